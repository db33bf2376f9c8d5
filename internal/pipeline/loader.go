package pipeline

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/craftflow/craftflow/internal/domain/model/stage"
)

// DefaultConfig returns the built-in pipeline configuration used when
// no pipeline.yaml exists: uniform threshold, APPROVED token, single
// run (no continuous loop).
func DefaultConfig() *Config {
	return &Config{
		Name:          "software-lifecycle",
		ApprovalToken: "APPROVED",
		Continuous:    false,
		Gates:         map[string]GateConfig{},
	}
}

// Load reads and validates a pipeline configuration. A missing file is
// not an error; the defaults apply.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("pipeline: read: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // Fail on unknown fields
	cfg := DefaultConfig()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("pipeline: parse: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var knownGates = func() map[string]bool {
	m := make(map[string]bool, len(stage.GateNames))
	for _, g := range stage.GateNames {
		m[g] = true
	}
	return m
}()

func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf(`pipeline: "name" is required`)
	}
	if strings.TrimSpace(cfg.ApprovalToken) == "" {
		return fmt.Errorf(`pipeline: "approval_token" must not be empty`)
	}
	for name, g := range cfg.Gates {
		if !knownGates[name] {
			return fmt.Errorf("pipeline: unknown gate %q (known: %v)", name, stage.GateNames)
		}
		if g.Threshold < 1 {
			return fmt.Errorf("pipeline: gates.%s.threshold must be >= 1", name)
		}
	}
	return nil
}
