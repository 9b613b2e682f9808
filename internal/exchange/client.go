// ABOUTME: HTTP client that sends one question to the remote answering endpoint
// ABOUTME: Classifies every response or transport failure into a typed Outcome

package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 1 << 20

// answerFields lists the answer-like fields in precedence order.
var answerFields = []string{"answer", "response", "result"}

// Sender is the contract the conversation controller depends on.
type Sender interface {
	Send(ctx context.Context, question, sessionID string) Outcome
}

// Options configures a Client. The zero value is usable.
type Options struct {
	// HTTPClient is used for requests when set. Otherwise a client with
	// Timeout is created.
	HTTPClient *http.Client
	// Timeout applies to a client created by New. Zero means no timeout
	// beyond the transport's own.
	Timeout time.Duration
	// UserAgent is sent on every request when non-empty.
	UserAgent string
	Logger    *slog.Logger
}

// Client posts questions to a single endpoint URL.
type Client struct {
	endpoint  string
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// askRequest is the JSON body sent to the endpoint.
type askRequest struct {
	Question  string `json:"question"`
	SessionID string `json:"session_id"`
}

// New creates a Client for endpoint.
func New(endpoint string, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		endpoint:  endpoint,
		http:      httpClient,
		userAgent: opts.UserAgent,
		logger:    logger.With("component", "exchange"),
	}
}

// Endpoint returns the URL questions are posted to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send performs one POST and classifies the result. It never retries and
// never returns an error value: failures are reported in the Outcome.
func (c *Client) Send(ctx context.Context, question, sessionID string) Outcome {
	start := time.Now()
	out := c.send(ctx, question, sessionID)
	out.Latency = time.Since(start)

	c.logger.Debug("exchange resolved",
		"kind", out.Kind.String(),
		"status", out.Status,
		"latency", out.Latency,
		"question_len", len(question),
		"error", out.Err)

	return out
}

func (c *Client) send(ctx context.Context, question, sessionID string) Outcome {
	bodyBytes, err := json.Marshal(askRequest{Question: question, SessionID: sessionID})
	if err != nil {
		return NetworkFailure(fmt.Errorf("marshaling request: %w", err))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return NetworkFailure(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return NetworkFailure(fmt.Errorf("sending request: %w", err))
	}
	defer resp.Body.Close()

	// 429 wins regardless of what the body looks like
	if resp.StatusCode == http.StatusTooManyRequests {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return RateLimitedOutcome()
	}

	data := c.decodeBody(resp.Body)

	var out Outcome
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		out = classifyFailure(resp.StatusCode, data)
	} else {
		out = classifySuccess(data)
	}
	out.Status = resp.StatusCode
	return out
}

// decodeBody parses the body as a JSON object. Anything that is not a JSON
// object, including a truncated read, is treated as an empty object.
func (c *Client) decodeBody(body io.Reader) map[string]any {
	raw, err := io.ReadAll(io.LimitReader(body, maxResponseBytes))
	if err != nil {
		c.logger.Debug("reading response body failed", "error", err)
	}

	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil || data == nil {
		return map[string]any{}
	}
	return data
}

func classifyFailure(status int, data map[string]any) Outcome {
	if msg, ok := nonEmptyString(data, "error"); ok {
		return FailedOutcome(msg, fmt.Errorf("%w: HTTP %d: %s", ErrServer, status, msg))
	}
	return FailedOutcome(
		fmt.Sprintf(messageHTTPFailure, status),
		fmt.Errorf("%w: HTTP %d", ErrServer, status),
	)
}

func classifySuccess(data map[string]any) Outcome {
	for _, field := range answerFields {
		if text, ok := nonEmptyString(data, field); ok {
			return AnsweredOutcome(text, stringList(data["followups"]))
		}
	}
	return FailedOutcome(MessageNoAnswer, ErrMalformedResponse)
}

func nonEmptyString(data map[string]any, key string) (string, bool) {
	s, ok := data[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// stringList keeps the string elements of a JSON array and ignores the rest.
func stringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
