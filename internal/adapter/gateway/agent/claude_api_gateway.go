package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/craftflow/craftflow/internal/application/port/output"
)

// ClaudeAPIGateway implements AgentGateway against the Anthropic
// messages API.
type ClaudeAPIGateway struct {
	apiKey     string
	apiURL     string
	httpClient *http.Client
	model      string
}

// NewClaudeAPIGateway creates a new Claude API gateway
func NewClaudeAPIGateway(apiKey string) *ClaudeAPIGateway {
	return &ClaudeAPIGateway{
		apiKey: apiKey,
		apiURL: "https://api.anthropic.com/v1/messages",
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		model: "claude-3-5-sonnet-20241022",
	}
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Execute runs the Claude API with the given request.
func (g *ClaudeAPIGateway) Execute(ctx context.Context, req output.AgentRequest) (*output.AgentResponse, error) {
	start := time.Now()

	apiReq := claudeRequest{
		Model:     g.model,
		MaxTokens: 8192,
		Messages: []claudeMessage{
			{Role: "user", Content: req.Prompt},
		},
	}

	resp, err := g.call(ctx, apiReq)
	if err != nil {
		return nil, fmt.Errorf("claude API call failed: %w", err)
	}

	var outputText string
	if len(resp.Content) > 0 {
		outputText = resp.Content[0].Text
	}

	return &output.AgentResponse{
		Output:    outputText,
		Duration:  time.Since(start),
		AgentType: "claude-api",
		Metadata: map[string]string{
			"model":         g.model,
			"stop_reason":   resp.StopReason,
			"input_tokens":  fmt.Sprintf("%d", resp.Usage.InputTokens),
			"output_tokens": fmt.Sprintf("%d", resp.Usage.OutputTokens),
		},
	}, nil
}

// HealthCheck verifies if the Claude API is accessible
func (g *ClaudeAPIGateway) HealthCheck(ctx context.Context) error {
	_, err := g.call(ctx, claudeRequest{
		Model:     g.model,
		MaxTokens: 10,
		Messages:  []claudeMessage{{Role: "user", Content: "ping"}},
	})
	return err
}

func (g *ClaudeAPIGateway) call(ctx context.Context, req claudeRequest) (*claudeResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", g.apiURL, bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", g.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	httpResp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", httpResp.StatusCode, string(respBody))
	}

	var resp claudeResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}
	return &resp, nil
}
