package output

import "context"

// PublishGateway is the interface to a remote repository host. Every
// call is best-effort from the orchestrator's point of view: failures
// are reported in the return values, logged by the caller, and never
// abort the pipeline unless configured to be fatal.
type PublishGateway interface {
	// UpsertFile creates or updates a single file in the remote
	// repository.
	UpsertFile(ctx context.Context, path, content, message string) error

	// CreateIssue opens an issue and returns its number.
	CreateIssue(ctx context.Context, title, body string, labels []string) (int, error)

	// CreateRelease tags a release and returns its URL.
	CreateRelease(ctx context.Context, tag, notes string) (string, error)

	// TriggerPipeline dispatches a CI workflow by file name.
	TriggerPipeline(ctx context.Context, name string) error
}

// FileResult records the outcome of publishing one file.
type FileResult struct {
	Path  string
	Error error
}

// PublishSummary aggregates per-file publish outcomes.
type PublishSummary struct {
	Results []FileResult
}

// Succeeded counts files published without error.
func (s *PublishSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Error == nil {
			n++
		}
	}
	return n
}

// Failed counts files whose publish attempt returned an error.
func (s *PublishSummary) Failed() int {
	return len(s.Results) - s.Succeeded()
}
