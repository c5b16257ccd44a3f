package application

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	strategy "krpc-telemetry/internal/strategy/domain"
)

// StrategyConfig selects one sampling strategy and optionally overrides
// its collection cadence.
type StrategyConfig struct {
	Name  string `yaml:"name"`
	Every int64  `yaml:"collect_every_seconds"`
}

// AlarmRuleConfig declares a threshold alarm in the mission file. It is
// kept as plain strings here; validation happens when the rule is built.
type AlarmRuleConfig struct {
	ID        string  `yaml:"id"`
	Name      string  `yaml:"name"`
	Kind      string  `yaml:"kind"`
	Operator  string  `yaml:"operator"`
	Threshold float64 `yaml:"threshold"`
	Severity  string  `yaml:"severity"`
	Enabled   *bool   `yaml:"enabled"`
}

// MissionConfig defines which strategies to run and which alarms to arm
// for a flight.
type MissionConfig struct {
	Strategies []StrategyConfig  `yaml:"strategies"`
	Alarms     []AlarmRuleConfig `yaml:"alarms"`
}

// LoadMissionConfig loads the mission file named by TELEMETRY_CONFIG.
// Without one, every known strategy runs at its default cadence and no
// alarms are armed.
func LoadMissionConfig() (MissionConfig, error) {
	cfg := MissionConfig{
		Strategies: []StrategyConfig{
			{Name: "orbital_velocity"},
			{Name: "surface_ascent"},
			{Name: "atmosphere"},
			{Name: "flight_loads"},
		},
	}

	if path := os.Getenv("TELEMETRY_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		cfg = MissionConfig{}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if len(cfg.Strategies) == 0 {
		return cfg, fmt.Errorf("mission config: no strategies selected")
	}
	return cfg, nil
}

// BuildSamplers constructs one sampler per configured strategy.
func (c MissionConfig) BuildSamplers() ([]*Sampler, error) {
	samplers := make([]*Sampler, 0, len(c.Strategies))
	seen := make(map[string]struct{}, len(c.Strategies))
	for _, sc := range c.Strategies {
		if _, dup := seen[sc.Name]; dup {
			return nil, fmt.Errorf("mission config: duplicate strategy %q", sc.Name)
		}
		seen[sc.Name] = struct{}{}
		variant, err := strategy.NewByName(sc.Name, sc.Every)
		if err != nil {
			return nil, err
		}
		sampler, err := NewSampler(variant)
		if err != nil {
			return nil, err
		}
		samplers = append(samplers, sampler)
	}
	return samplers, nil
}
