package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BrugadaSyndrome/bslogger"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/bulbfield/internal/analysis"
	"github.com/san-kum/bulbfield/internal/config"
	"github.com/san-kum/bulbfield/internal/fractal"
	"github.com/san-kum/bulbfield/internal/storage"
)

var ErrEmptySweep = errors.New("automation: sweep needs at least one step")

// Scenario defines a scripted sequence of generation runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single generation run. Params override the preset
// (or the defaults when no preset is named).
type ScenarioStep struct {
	Preset  string             `yaml:"preset"`
	Params  map[string]float64 `yaml:"params"`
	KeyMode string             `yaml:"key_mode"`
	Seed    int64              `yaml:"seed"`
	Workers int                `yaml:"workers"`
	SaveAs  string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Config  *config.Config
	Summary analysis.Summary
	Elapsed time.Duration
	RunID   string
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}

	return &scenario, nil
}

// Config resolves the step's preset and overrides.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		p := config.GetPreset(s.Preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset %q", s.Preset)
		}
		cfg = p
	}
	for k, v := range s.Params {
		if err := cfg.SetParam(k, v); err != nil {
			return nil, err
		}
	}
	if s.KeyMode != "" {
		cfg.KeyMode = s.KeyMode
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	if s.Workers != 0 {
		cfg.Workers = s.Workers
	}
	return cfg, nil
}

// Runner executes scenarios and sweeps. Store may be nil, in which case
// steps with save_as are run but not persisted.
type Runner struct {
	Store  *storage.Store
	logger bslogger.Logger
}

func NewRunner(store *storage.Store) *Runner {
	return &Runner{
		Store:  store,
		logger: bslogger.NewLogger("Automation", bslogger.Normal, nil),
	}
}

// RunScenario executes all steps in a scenario
func (r *Runner) RunScenario(ctx context.Context, scenario *Scenario) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		r.logger.Info(fmt.Sprintf("running step %d/%d", i+1, len(scenario.Steps)))

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		cloud, elapsed, err := Generate(ctx, cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		res := StepResult{Config: cfg, Summary: analysis.Summarize(cloud), Elapsed: elapsed}
		if step.SaveAs != "" {
			if r.Store == nil {
				r.logger.Warning(fmt.Sprintf("step %d: no store, not saving %s", i+1, step.SaveAs))
			} else {
				id, err := r.Store.Save(step.SaveAs, cfg, cloud, elapsed)
				if err != nil {
					return results, fmt.Errorf("step %d save: %w", i+1, err)
				}
				res.RunID = id
			}
		}

		results = append(results, res)
	}

	return results, nil
}

// Generate runs the generator for cfg, in parallel when cfg.Workers is
// not 1.
func Generate(ctx context.Context, cfg *config.Config) (*fractal.Cloud, time.Duration, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, 0, err
	}

	start := time.Now()
	var cloud *fractal.Cloud
	if cfg.Workers == 1 {
		cloud, err = fractal.Generate(ctx, params, fractal.WithSeed(cfg.Seed))
	} else {
		cloud, err = fractal.GenerateParallel(ctx, params, cfg.Workers, fractal.WithSeed(cfg.Seed))
	}
	return cloud, time.Since(start), err
}

// ParameterSweep varies one tunable parameter of Base over an even grid.
type ParameterSweep struct {
	Base      *config.Config
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Summary    analysis.Summary
	Elapsed    time.Duration
}

// Values returns the grid of parameter values visited by the sweep.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 0 {
		return nil
	}
	if s.NumSteps == 1 {
		return []float64{s.ParamMin}
	}
	step := (s.ParamMax - s.ParamMin) / float64(s.NumSteps-1)
	vals := make([]float64, s.NumSteps)
	for i := range vals {
		vals[i] = s.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep executes a parameter sweep
func (r *Runner) RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	vals := sweep.Values()
	if len(vals) == 0 {
		return nil, ErrEmptySweep
	}

	base := sweep.Base
	if base == nil {
		base = config.DefaultConfig()
	}

	results := make([]SweepResult, 0, len(vals))
	for i, v := range vals {
		cfg := base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}

		cloud, elapsed, err := Generate(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sweep.ParamName, v, err)
		}

		results = append(results, SweepResult{
			ParamValue: v,
			Summary:    analysis.Summarize(cloud),
			Elapsed:    elapsed,
		})

		r.logger.Info(fmt.Sprintf("sweep %d/%d: %s=%.4f", i+1, len(vals), sweep.ParamName, v))
	}

	return results, nil
}
