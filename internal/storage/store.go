package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/BrugadaSyndrome/bslogger"

	"github.com/san-kum/bulbfield/internal/config"
	"github.com/san-kum/bulbfield/internal/fractal"
)

var (
	ErrRunNotFound  = errors.New("storage: run not found")
	ErrInvalidRunID = errors.New("storage: invalid run id")
)

const (
	metadataFile = "metadata.json"
	pointsFile   = "points.csv"
)

var pointsHeader = []string{"x", "y", "z", "r", "g", "b", "kind", "iterations"}

type Store struct {
	baseDir string
	logger  bslogger.Logger
}

func New(baseDir string) *Store {
	return &Store{
		baseDir: baseDir,
		logger:  bslogger.NewLogger("Storage", bslogger.Normal, nil),
	}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Timestamp time.Time     `json:"timestamp"`
	Config    config.Config `json:"config"`
	Points    int           `json:"points"`
	Primary   int           `json:"primary"`
	Bridges   int           `json:"bridges"`
	Skipped   int           `json:"skipped"`
	Exhausted int           `json:"exhausted"`
	ElapsedMs float64       `json:"elapsed_ms"`
}

// Save writes a run directory holding metadata.json and points.csv and
// returns the run id.
func (s *Store) Save(name string, cfg *config.Config, cloud *fractal.Cloud, elapsed time.Duration) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: now,
		Config:    *cfg,
		Points:    cloud.Len(),
		Primary:   cloud.Primary,
		Bridges:   cloud.Bridges,
		Skipped:   cloud.Skipped,
		Exhausted: cloud.Exhausted,
		ElapsedMs: float64(elapsed.Microseconds()) / 1000,
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writePoints(filepath.Join(runDir, pointsFile), cloud); err != nil {
		return "", err
	}

	s.logger.Info(fmt.Sprintf("saved run %s (%d points)", runID, meta.Points))
	return runID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writePoints(path string, cloud *fractal.Cloud) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(pointsHeader); err != nil {
		return err
	}

	row := make([]string, len(pointsHeader))
	for i := 0; i < cloud.Len(); i++ {
		for j := 0; j < 3; j++ {
			row[j] = formatFloat(cloud.Positions[3*i+j])
			row[3+j] = formatFloat(cloud.Colors[3*i+j])
		}
		row[6] = cloud.Kinds[i].String()
		row[7] = strconv.Itoa(cloud.Iterations[i])
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}

// List returns all readable runs, newest first. Unreadable run directories
// are skipped with a warning.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			s.logger.Warning(fmt.Sprintf("skipping %s: %v", entry.Name(), err))
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

// runDir resolves a run id to its directory. Ids are single path
// elements; anything that could escape the base directory is rejected.
func (s *Store) runDir(runID string) (string, error) {
	if runID == "" || runID == "." || runID == ".." || filepath.Base(runID) != runID {
		return "", fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return filepath.Join(s.baseDir, runID), nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	dir, err := s.runDir(runID)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadCloud rebuilds the point cloud of a saved run.
func (s *Store) LoadCloud(runID string) (*fractal.Cloud, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(s.baseDir, runID, pointsFile))
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(pointsHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	cloud := fractal.NewCloud(meta.Points)
	for i := 1; i < len(records); i++ {
		if err := appendRecord(cloud, records[i]); err != nil {
			return nil, fmt.Errorf("%s line %d: %w", pointsFile, i+1, err)
		}
	}
	cloud.Skipped = meta.Skipped
	cloud.Exhausted = meta.Exhausted

	return cloud, nil
}

func appendRecord(cloud *fractal.Cloud, record []string) error {
	var vals [6]float32
	for j := range vals {
		v, err := strconv.ParseFloat(record[j], 32)
		if err != nil {
			return err
		}
		vals[j] = float32(v)
	}

	kind, err := fractal.ParsePointKind(record[6])
	if err != nil {
		return err
	}
	iterations, err := strconv.Atoi(record[7])
	if err != nil {
		return err
	}

	cloud.Positions = append(cloud.Positions, vals[:3]...)
	cloud.Colors = append(cloud.Colors, vals[3:]...)
	cloud.Kinds = append(cloud.Kinds, kind)
	cloud.Iterations = append(cloud.Iterations, iterations)
	if kind == fractal.Primary {
		cloud.Primary++
	} else {
		cloud.Bridges++
	}
	return nil
}

func (s *Store) Delete(runID string) error {
	if _, err := s.Load(runID); err != nil {
		return err
	}
	dir, _ := s.runDir(runID)
	s.logger.Info(fmt.Sprintf("deleting run %s", runID))
	return os.RemoveAll(dir)
}
