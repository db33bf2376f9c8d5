package output

import (
	"context"
	"time"
)

// AgentGateway is the interface for generative text execution.
// This abstraction allows different backends (claude CLI, claude API,
// mock) behind the same synchronous call: failure of Execute is fatal
// for the invoking stage; regeneration happens at the workflow level
// via the gate controller, never inside this call.
type AgentGateway interface {
	// Execute runs the agent with given request
	Execute(ctx context.Context, req AgentRequest) (*AgentResponse, error)

	// HealthCheck verifies if the agent is available
	HealthCheck(ctx context.Context) error
}

// AgentRequest represents a request to a generative agent
type AgentRequest struct {
	Prompt  string        // The prompt to send to the agent
	Stage   string        // Stage issuing the request, for logging
	Timeout time.Duration // Execution timeout
}

// AgentResponse represents the response from a generative agent
type AgentResponse struct {
	Output    string            // Generated output
	Duration  time.Duration     // Execution duration
	AgentType string            // Type of agent that executed
	Metadata  map[string]string // Additional metadata
}
