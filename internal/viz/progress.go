package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/bulbfield/internal/fractal"
)

// SlabMsg reports generator progress in lattice slabs.
type SlabMsg struct {
	Done, Total int
}

// DoneMsg carries the outcome of a generation run.
type DoneMsg struct {
	Cloud *fractal.Cloud
	Err   error
}

// ProgressModel displays generation progress until a DoneMsg arrives or
// the user interrupts.
type ProgressModel struct {
	title       string
	done, total int
	start       time.Time
	elapsed     time.Duration
	width       int

	Result      *fractal.Cloud
	Err         error
	Interrupted bool
}

func NewProgressModel(title string, total int) ProgressModel {
	return ProgressModel{title: title, total: total, start: time.Now(), width: 40}
}

// Observer forwards generator callbacks into a running program.
func Observer(p *tea.Program) fractal.Observer {
	return fractal.ObserverFunc(func(done, total int) {
		p.Send(SlabMsg{Done: done, Total: total})
	})
}

func (m ProgressModel) Init() tea.Cmd { return nil }

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Interrupted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = max(10, min(60, msg.Width-30))
	case SlabMsg:
		m.done, m.total = msg.Done, msg.Total
		m.elapsed = time.Since(m.start)
	case DoneMsg:
		m.Result, m.Err = msg.Cloud, msg.Err
		m.elapsed = time.Since(m.start)
		if m.Err == nil {
			m.done = m.total
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m ProgressModel) Percent() float64 {
	if m.total == 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

func (m ProgressModel) View() string {
	var b strings.Builder
	b.WriteString(Title.Render(m.title) + "\n\n")
	b.WriteString(ProgressBar(m.Percent(), m.width))
	b.WriteString(fmt.Sprintf(" %3.0f%%  %d/%d slabs  %v\n", m.Percent()*100, m.done, m.total, m.elapsed.Round(time.Millisecond)))

	switch {
	case m.Err != nil:
		b.WriteString(ErrorText.Render("error: "+m.Err.Error()) + "\n")
	case m.Result != nil:
		b.WriteString(Subtle.Render(fmt.Sprintf("%d points", m.Result.Len())) + "\n")
	default:
		b.WriteString(Subtle.Render("q to abort") + "\n")
	}
	return b.String()
}
