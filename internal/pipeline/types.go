package pipeline

// GateConfig is the per-gate tuning in pipeline.yaml.
type GateConfig struct {
	Threshold int `yaml:"threshold"`
}

// Config represents the pipeline.yaml configuration: gate thresholds,
// the approval token reviewers must emit, and the post-deployment
// behavior.
type Config struct {
	Name          string                `yaml:"name"`
	ApprovalToken string                `yaml:"approval_token"`
	Continuous    bool                  `yaml:"continuous"`
	Gates         map[string]GateConfig `yaml:"gates,omitempty"`
}

// Threshold returns the configured rejection threshold for a gate, or
// def when the gate has no override.
func (c *Config) Threshold(gate string, def int) int {
	if g, ok := c.Gates[gate]; ok && g.Threshold > 0 {
		return g.Threshold
	}
	return def
}
