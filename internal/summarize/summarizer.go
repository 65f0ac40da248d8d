// Package summarize produces bounded-length threat descriptions, preferring
// a remote summarization endpoint and falling back to local extraction.
package summarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"threatbrief/internal/logger"
)

// RemoteClient is the remote summarization capability. Failure is a normal,
// expected outcome handled by the local fallback.
type RemoteClient interface {
	Summarize(ctx context.Context, text string, maxLength int) (string, error)
}

// Options configures the summarizer behavior.
type Options struct {
	MaxLength int      // summary length budget in characters
	MinInput  int      // inputs shorter than this are returned verbatim
	Keywords  []string // domain keywords used by the extractive fallback
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		MaxLength: 300,
		MinInput:  50,
		Keywords: []string{
			"vulnerability", "exploit", "attack", "breach", "malware",
			"ransomware", "patch", "security", "cve", "threat", "zero-day",
		},
	}
}

// Summarizer summarizes text. It never fails: every path ends in a usable
// summary string.
type Summarizer struct {
	remote  RemoteClient // nil disables the remote path
	options Options
}

// NewSummarizer creates a summarizer. Pass a nil remote client to run
// fully local.
func NewSummarizer(remote RemoteClient, options Options) *Summarizer {
	return &Summarizer{remote: remote, options: options}
}

// Summarize returns a summary of text within the configured length budget.
// Short inputs are returned verbatim with an ellipsis, skipping every
// summarizer. Remote failure falls back to extractive summarization.
func (s *Summarizer) Summarize(ctx context.Context, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if len(text) < s.options.MinInput {
		return text + "..."
	}

	if s.remote != nil {
		summary, err := s.remote.Summarize(ctx, text, s.options.MaxLength)
		if err == nil && strings.TrimSpace(summary) != "" {
			return truncate(strings.TrimSpace(summary), s.options.MaxLength)
		}
		if err != nil {
			logger.Debug("Remote summarization failed, using extractive fallback", "error", err.Error())
		}
	}

	return ExtractiveSummary(text, s.options.MaxLength, s.options.Keywords)
}

// hfRequest is the wire format of the remote summarization endpoint.
type hfRequest struct {
	Inputs     string       `json:"inputs"`
	Parameters hfParameters `json:"parameters"`
}

type hfParameters struct {
	MaxLength int `json:"max_length"`
}

// hfResponse covers both response field variants the endpoints return.
type hfResponse struct {
	SummaryText   string `json:"summary_text"`
	GeneratedText string `json:"generated_text"`
}

// HTTPRemote calls one or more summarization endpoints in priority order
// and accepts the first non-empty summary.
type HTTPRemote struct {
	endpoints []string
	client    *http.Client
	authToken string
}

// NewHTTPRemote creates a remote client over the given endpoints. Returns
// nil when no endpoints are configured so callers can pass the result
// straight to NewSummarizer.
func NewHTTPRemote(endpoints []string, timeout time.Duration, authToken string) *HTTPRemote {
	if len(endpoints) == 0 {
		return nil
	}
	return &HTTPRemote{
		endpoints: endpoints,
		client:    &http.Client{Timeout: timeout},
		authToken: authToken,
	}
}

// Summarize tries each endpoint in order and returns the first non-empty
// summary field. Exhausting every endpoint is an error.
func (r *HTTPRemote) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	var lastErr error
	for _, endpoint := range r.endpoints {
		summary, err := r.call(ctx, endpoint, text, maxLength)
		if err != nil {
			lastErr = err
			continue
		}
		if summary != "" {
			return summary, nil
		}
		lastErr = fmt.Errorf("endpoint %s returned an empty summary", endpoint)
	}
	return "", fmt.Errorf("all summarization endpoints exhausted: %w", lastErr)
}

func (r *HTTPRemote) call(ctx context.Context, endpoint, text string, maxLength int) (string, error) {
	payload, err := json.Marshal(hfRequest{Inputs: text, Parameters: hfParameters{MaxLength: maxLength}})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.authToken)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("endpoint returned status %d", resp.StatusCode)
	}

	// Endpoints answer with either a single object or a one-element array.
	var single hfResponse
	var many []hfResponse
	decoder := json.NewDecoder(resp.Body)
	var raw json.RawMessage
	if err := decoder.Decode(&raw); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		single = many[0]
	} else if err := json.Unmarshal(raw, &single); err != nil {
		return "", fmt.Errorf("unrecognized response shape: %w", err)
	}

	if single.SummaryText != "" {
		return single.SummaryText, nil
	}
	return single.GeneratedText, nil
}

// truncate bounds s to maxLen characters, cutting at a word boundary.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return cut + "..."
}
