package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// GitHubGateway implements output.PublishGateway against the GitHub
// REST API v3. All methods are plain request/response wrappers; the
// best-effort policy lives in the caller.
type GitHubGateway struct {
	baseURL    string
	owner      string
	repo       string
	token      string
	httpClient *http.Client
}

// NewGitHubGateway creates a publish gateway for owner/repo.
func NewGitHubGateway(owner, repo, token string) *GitHubGateway {
	return &GitHubGateway{
		baseURL: "https://api.github.com",
		owner:   owner,
		repo:    repo,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// UpsertFile creates or updates a single file via the contents API.
// Updating requires the current blob SHA, so existing files are looked
// up first.
func (g *GitHubGateway) UpsertFile(ctx context.Context, path, content, message string) error {
	sha, err := g.fileSHA(ctx, path)
	if err != nil {
		return err
	}

	payload := map[string]interface{}{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
	}
	if sha != "" {
		payload["sha"] = sha
	}

	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", g.owner, g.repo, escapePath(path))
	_, err = g.do(ctx, "PUT", endpoint, payload)
	return err
}

// CreateIssue opens an issue and returns its number.
func (g *GitHubGateway) CreateIssue(ctx context.Context, title, body string, labels []string) (int, error) {
	payload := map[string]interface{}{
		"title": title,
		"body":  body,
	}
	if len(labels) > 0 {
		payload["labels"] = labels
	}

	data, err := g.do(ctx, "POST", fmt.Sprintf("/repos/%s/%s/issues", g.owner, g.repo), payload)
	if err != nil {
		return 0, err
	}

	var resp struct {
		Number int `json:"number"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return 0, fmt.Errorf("unmarshal issue response: %w", err)
	}
	return resp.Number, nil
}

// CreateRelease tags a release and returns its URL.
func (g *GitHubGateway) CreateRelease(ctx context.Context, tag, notes string) (string, error) {
	payload := map[string]interface{}{
		"tag_name": tag,
		"name":     tag,
		"body":     notes,
	}

	data, err := g.do(ctx, "POST", fmt.Sprintf("/repos/%s/%s/releases", g.owner, g.repo), payload)
	if err != nil {
		return "", err
	}

	var resp struct {
		HTMLURL string `json:"html_url"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal release response: %w", err)
	}
	return resp.HTMLURL, nil
}

// TriggerPipeline dispatches a workflow by file name on the default
// branch.
func (g *GitHubGateway) TriggerPipeline(ctx context.Context, name string) error {
	payload := map[string]interface{}{"ref": "main"}
	endpoint := fmt.Sprintf("/repos/%s/%s/actions/workflows/%s/dispatches",
		g.owner, g.repo, url.PathEscape(name))
	_, err := g.do(ctx, "POST", endpoint, payload)
	return err
}

// fileSHA returns the blob SHA for an existing file, or "" when the
// file does not exist yet.
func (g *GitHubGateway) fileSHA(ctx context.Context, path string) (string, error) {
	endpoint := fmt.Sprintf("/repos/%s/%s/contents/%s", g.owner, g.repo, escapePath(path))
	data, err := g.do(ctx, "GET", endpoint, nil)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
			return "", nil
		}
		return "", err
	}

	var resp struct {
		SHA string `json:"sha"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("unmarshal contents response: %w", err)
	}
	return resp.SHA, nil
}

// escapePath escapes each path segment while preserving separators,
// which the contents API requires for nested paths.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// APIError carries the status of a failed GitHub API call.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github API returned status %d: %s", e.StatusCode, e.Body)
}

func (g *GitHubGateway) do(ctx context.Context, method, endpoint string, payload interface{}) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+g.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}
