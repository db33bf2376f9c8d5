package agent

import (
	"fmt"
	"os"
	"time"

	"github.com/craftflow/craftflow/internal/application/port/output"
)

// NewAgentGateway creates an agent gateway based on agent type
// Supported types: claude-cli, claude-api, mock
// Note: User is responsible for ensuring the agent is available (e.g., claude CLI installed)
func NewAgentGateway(agentType, bin string, timeout time.Duration) (output.AgentGateway, error) {
	switch agentType {
	case "claude-cli":
		// CLI version (assumes the claude command is installed)
		return NewClaudeCLIGateway(bin, timeout), nil

	case "claude-api":
		// API version (requires ANTHROPIC_API_KEY)
		apiKey := os.Getenv("ANTHROPIC_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set for claude-api")
		}
		return NewClaudeAPIGateway(apiKey), nil

	case "mock":
		return NewMockGateway(), nil

	default:
		return nil, fmt.Errorf("unknown agent type: %s (supported: claude-cli, claude-api, mock)", agentType)
	}
}
