package agent

import (
	"context"
	"sync"
	"time"

	"github.com/craftflow/craftflow/internal/application/port/output"
)

// MockGateway implements AgentGateway with canned responses, for tests
// and dry runs. Responses are consumed per stage in FIFO order; when a
// stage's queue is exhausted the Default text is returned.
type MockGateway struct {
	mu        sync.Mutex
	responses map[string][]string
	Default   string
	calls     []output.AgentRequest
}

// NewMockGateway creates a mock gateway with an approval-style default
// so review stages pass unless scripted otherwise.
func NewMockGateway() *MockGateway {
	return &MockGateway{
		responses: map[string][]string{},
		Default:   "APPROVED",
	}
}

// Queue appends a canned response for the given stage.
func (g *MockGateway) Queue(stage string, response string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.responses[stage] = append(g.responses[stage], response)
}

// Calls returns a copy of every request seen so far.
func (g *MockGateway) Calls() []output.AgentRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]output.AgentRequest, len(g.calls))
	copy(out, g.calls)
	return out
}

// Execute returns the next canned response for the request's stage.
func (g *MockGateway) Execute(ctx context.Context, req output.AgentRequest) (*output.AgentResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.calls = append(g.calls, req)
	text := g.Default
	if queue := g.responses[req.Stage]; len(queue) > 0 {
		text = queue[0]
		g.responses[req.Stage] = queue[1:]
	}
	g.mu.Unlock()

	return &output.AgentResponse{
		Output:    text,
		Duration:  time.Millisecond,
		AgentType: "mock",
	}, nil
}

// HealthCheck always succeeds for the mock gateway.
func (g *MockGateway) HealthCheck(ctx context.Context) error {
	return nil
}
