// Package automation runs scripted sequences and one-parameter sweeps of
// headless simulations.
package automation

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/emsim/internal/config"
	"github.com/san-kum/emsim/internal/metrics"
	"github.com/san-kum/emsim/internal/sim"
	"github.com/san-kum/emsim/internal/storage"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset and applies overrides written in the
// config file layout, e.g. {boundary: fixed, grid: {nt: 400}}.
type ScenarioStep struct {
	Preset    string    `yaml:"preset"`
	Overrides yaml.Node `yaml:"overrides"`
	SaveAs    string    `yaml:"save_as"`
}

// StepResult pairs a finished step with its stored run id, if saved.
type StepResult struct {
	Result *sim.Result
	RunID  string
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
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step's configuration.
func (s *ScenarioStep) Config() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		preset = "mur"
	}
	cfg := config.GetPreset(preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s", preset)
	}
	if !s.Overrides.IsZero() {
		if err := s.Overrides.Decode(cfg); err != nil {
			return nil, fmt.Errorf("overrides: %w", err)
		}
	}
	if s.SaveAs != "" {
		cfg.Name = s.SaveAs
	}
	return cfg, nil
}

// RunScenario executes all steps in order. Steps with save_as are stored
// when st is non-nil. Results of completed steps are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, st *storage.Store, log *slog.Logger) ([]StepResult, error) {
	if log == nil {
		log = slog.Default()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		sc, err := cfg.SimConfig()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		log.Info("running scenario step", "step", i+1, "of", len(scenario.Steps), "name", sc.Name)

		s := sim.New(sc)
		for _, m := range metrics.Default(sc.Params) {
			s.AddMetric(m)
		}
		var rec *storage.Recorder
		if st != nil && step.SaveAs != "" {
			rec = storage.NewRecorder(cfg.RecordEvery)
			s.AddObserver(rec)
		}

		result, err := s.Run(ctx, nil)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		sr := StepResult{Result: result}
		if rec != nil {
			if sr.RunID, err = st.Save(result, rec); err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, sr)

		if result.Stop == sim.StopCanceled {
			return results, ctx.Err()
		}
	}

	return results, nil
}

// ParameterSweep varies one tunable linearly between Min and Max.
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
	Result     *sim.Result
}

// Values returns the swept parameter values.
func (p *ParameterSweep) Values() []float64 {
	if p.NumSteps <= 1 {
		return []float64{p.ParamMin}
	}
	step := (p.ParamMax - p.ParamMin) / float64(p.NumSteps-1)
	vals := make([]float64, p.NumSteps)
	for i := range vals {
		vals[i] = p.ParamMin + float64(i)*step
	}
	return vals
}

// RunSweep executes the sweep concurrently, one simulation per value.
func RunSweep(ctx context.Context, sweep *ParameterSweep) ([]SweepResult, error) {
	if sweep.Base == nil {
		return nil, fmt.Errorf("sweep has no base configuration")
	}

	vals := sweep.Values()
	cfgs := make([]sim.Config, len(vals))
	for i, v := range vals {
		cfg := sweep.Base.Clone()
		if err := cfg.SetParam(sweep.ParamName, v); err != nil {
			return nil, err
		}
		cfg.Name = fmt.Sprintf("%s_%s=%g", sweep.Base.Name, sweep.ParamName, v)
		sc, err := cfg.SimConfig()
		if err != nil {
			return nil, err
		}
		cfgs[i] = sc
	}

	results, err := sim.Compare(ctx, cfgs, func(c sim.Config) []sim.Metric {
		return metrics.Default(c.Params)
	})
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(vals))
	for i := range vals {
		out[i] = SweepResult{ParamValue: vals[i], Result: results[i]}
	}
	return out, nil
}
