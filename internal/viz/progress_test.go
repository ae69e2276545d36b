package viz

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/bulbfield/internal/fractal"
)

func TestProgressModel_Slabs(t *testing.T) {
	m := NewProgressModel("generating", 8)

	next, cmd := m.Update(SlabMsg{Done: 2, Total: 8})
	m = next.(ProgressModel)
	if cmd != nil {
		t.Error("progress updates should not quit")
	}
	if m.Percent() != 0.25 {
		t.Errorf("expected 25%%, got %f", m.Percent())
	}
	if !strings.Contains(m.View(), "2/8 slabs") {
		t.Errorf("view missing progress: %q", m.View())
	}
}

func TestProgressModel_Done(t *testing.T) {
	m := NewProgressModel("generating", 4)
	cloud := fractal.NewCloud(0)

	next, cmd := m.Update(DoneMsg{Cloud: cloud})
	m = next.(ProgressModel)
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if m.Result != cloud || m.Err != nil {
		t.Error("result not recorded")
	}
	if m.Percent() != 1 {
		t.Errorf("expected complete bar, got %f", m.Percent())
	}
}

func TestProgressModel_Error(t *testing.T) {
	m := NewProgressModel("generating", 4)
	next, _ := m.Update(DoneMsg{Err: errors.New("boom")})
	m = next.(ProgressModel)
	if !strings.Contains(m.View(), "boom") {
		t.Errorf("view should show error: %q", m.View())
	}
}

func TestProgressModel_Interrupt(t *testing.T) {
	m := NewProgressModel("generating", 4)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(ProgressModel)
	if !m.Interrupted || cmd == nil {
		t.Error("ctrl+c should interrupt and quit")
	}
}
