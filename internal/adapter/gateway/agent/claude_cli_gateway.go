package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/craftflow/craftflow/internal/application/port/output"
	"github.com/craftflow/craftflow/internal/interface/external/claudecli"
)

// ClaudeCLIGateway implements AgentGateway by spawning the claude CLI
// binary for each request.
type ClaudeCLIGateway struct {
	runner *claudecli.Runner
}

// NewClaudeCLIGateway creates a new Claude CLI gateway.
func NewClaudeCLIGateway(bin string, timeout time.Duration) *ClaudeCLIGateway {
	if bin == "" {
		bin = "claude"
	}
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &ClaudeCLIGateway{
		runner: &claudecli.Runner{Bin: bin, Timeout: timeout},
	}
}

// Execute runs the claude CLI with the given request.
func (g *ClaudeCLIGateway) Execute(ctx context.Context, req output.AgentRequest) (*output.AgentResponse, error) {
	start := time.Now()

	result, err := g.runner.Run(ctx, req.Prompt)
	if err != nil {
		return nil, fmt.Errorf("claude CLI execution failed: %w", err)
	}

	return &output.AgentResponse{
		Output:    result,
		Duration:  time.Since(start),
		AgentType: "claude-cli",
		Metadata: map[string]string{
			"stage": req.Stage,
		},
	}, nil
}

// HealthCheck verifies if claude CLI is available
func (g *ClaudeCLIGateway) HealthCheck(ctx context.Context) error {
	_, err := g.Execute(ctx, output.AgentRequest{
		Prompt:  "ping",
		Timeout: 10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("claude CLI health check failed: %w", err)
	}
	return nil
}
