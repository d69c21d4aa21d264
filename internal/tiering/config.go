// Package tiering classifies tracked pages into performance tiers from
// their recent and baseline traffic windows.
package tiering

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Benchmarks are the industry CTR reference points the score rubric and
// classification rules compare against.
type Benchmarks struct {
	CtrAverage   float64 `yaml:"ctrAverage"`
	CtrGood      float64 `yaml:"ctrGood"`
	CtrExcellent float64 `yaml:"ctrExcellent"`
}

// AnalysisConfig tunes the tiering engine. Both windows default to 28
// days; the lag keeps the recent window clear of dates the upstream API
// has not finished publishing.
type AnalysisConfig struct {
	RecentWindowDays   int        `yaml:"recentWindowDays"`
	BaselineWindowDays int        `yaml:"baselineWindowDays"`
	LagDays            int        `yaml:"lagDays"`
	Workers            int        `yaml:"workers"`
	Benchmarks         Benchmarks `yaml:"benchmarks"`
}

// DefaultConfig returns the stock analysis configuration.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		RecentWindowDays:   28,
		BaselineWindowDays: 28,
		LagDays:            2,
		Workers:            4,
		Benchmarks: Benchmarks{
			CtrAverage:   0.045,
			CtrGood:      0.06,
			CtrExcellent: 0.08,
		},
	}
}

// LoadConfig reads an analysis config from a YAML file. Fields absent
// from the file keep their defaults.
func LoadConfig(path string) (AnalysisConfig, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "tiering: read config %s", path)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, eris.Wrapf(err, "tiering: parse config %s", path)
	}
	return cfg.normalized(), nil
}

func (c AnalysisConfig) normalized() AnalysisConfig {
	def := DefaultConfig()
	if c.RecentWindowDays <= 0 {
		c.RecentWindowDays = def.RecentWindowDays
	}
	if c.BaselineWindowDays <= 0 {
		c.BaselineWindowDays = def.BaselineWindowDays
	}
	if c.LagDays < 0 {
		c.LagDays = def.LagDays
	}
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.Benchmarks.CtrAverage <= 0 {
		c.Benchmarks.CtrAverage = def.Benchmarks.CtrAverage
	}
	if c.Benchmarks.CtrGood <= 0 {
		c.Benchmarks.CtrGood = def.Benchmarks.CtrGood
	}
	if c.Benchmarks.CtrExcellent <= 0 {
		c.Benchmarks.CtrExcellent = def.Benchmarks.CtrExcellent
	}
	return c
}
