package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// scenario describes one layered graph: width source cells, then layers of
// width lifted cells, each combining sources neighbours of the layer below.
type scenario struct {
	Name       string `yaml:"name"`
	Width      int    `yaml:"width"`
	Layers     int    `yaml:"layers"`
	Sources    int    `yaml:"sources"`
	Iterations int    `yaml:"iterations"`
}

type benchConfig struct {
	Repeats   int        `yaml:"repeats"`
	Scenarios []scenario `yaml:"scenarios"`
}

func defaultConfig() benchConfig {
	return benchConfig{
		Repeats: 3,
		Scenarios: []scenario{
			{Name: "simple component", Width: 10, Layers: 5, Sources: 2, Iterations: 60000},
			{Name: "wide dense", Width: 1000, Layers: 5, Sources: 25, Iterations: 300},
			{Name: "deep", Width: 5, Layers: 500, Sources: 3, Iterations: 500},
		},
	}
}

func loadConfig(path string) (benchConfig, error) {
	if path == "" {
		return defaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return benchConfig{}, err
	}

	cfg := benchConfig{Repeats: 1}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return benchConfig{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(cfg.Scenarios) == 0 {
		return benchConfig{}, fmt.Errorf("%s: no scenarios", path)
	}
	return cfg, nil
}

// applyOverrides decodes key=value pairs over every scenario. Values are
// strings on the command line, so decoding is weakly typed.
func applyOverrides(cfg *benchConfig, overrides []string) error {
	if len(overrides) == 0 {
		return nil
	}

	values := make(map[string]any, len(overrides))
	for _, o := range overrides {
		key, value, ok := strings.Cut(o, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid override %q, want key=value", o)
		}
		values[key] = value
	}

	if repeats, ok := values["repeats"]; ok {
		if err := decodeWeak(map[string]any{"repeats": repeats}, cfg); err != nil {
			return err
		}
		delete(values, "repeats")
	}

	for i := range cfg.Scenarios {
		if err := decodeWeak(values, &cfg.Scenarios[i]); err != nil {
			return err
		}
	}
	return nil
}

func decodeWeak(input map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	return dec.Decode(input)
}

func (s scenario) validate() error {
	switch {
	case s.Width < 1:
		return fmt.Errorf("%s: width must be positive", s.Name)
	case s.Layers < 1:
		return fmt.Errorf("%s: layers must be positive", s.Name)
	case s.Sources < 1 || s.Sources > s.Width:
		return fmt.Errorf("%s: sources must be between 1 and width", s.Name)
	case s.Iterations < 1:
		return fmt.Errorf("%s: iterations must be positive", s.Name)
	}
	return nil
}
