package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"
)

// jsonOnlyInstruction is sent as the system message of every JSON call; the
// task-specific instructions travel in the user message.
const jsonOnlyInstruction = "Tu renvoies uniquement du JSON valide conforme au schéma."

// CallOptions tunes a single JSON completion. Zero values fall back to the
// client defaults.
type CallOptions struct {
	// Name labels the call in usage accounting and logs ("decision", "summary", ...).
	Name        string
	Temperature *float64
	MaxTokens   int
}

// Usage accumulates token counts across calls.
type Usage struct {
	Calls        int     `json:"calls"`
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	CostUSD      float64 `json:"cost_usd"`
	// Throttled counts calls held back by the rate limit, for a total of
	// ThrottledFor.
	Throttled    int           `json:"throttled"`
	ThrottledFor time.Duration `json:"throttled_ns"`
}

// JSONClientConfig configures a JSONClient.
type JSONClientConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds every call; zero disables the client-side timeout.
	// Time spent waiting for the rate limit does not count against it.
	Timeout time.Duration
	// RequestsPerMinute paces calls; zero disables pacing.
	RequestsPerMinute int
}

// JSONClient sends a system/user prompt pair and returns the parsed JSON
// object from the reply. It is the only way the interview talks to a model.
type JSONClient struct {
	provider Provider
	cfg      JSONClientConfig
	pacer    *pacer

	mu    sync.Mutex
	usage Usage
}

// NewJSONClient wraps provider.
func NewJSONClient(provider Provider, cfg JSONClientConfig) *JSONClient {
	c := &JSONClient{provider: provider, cfg: cfg}
	if cfg.RequestsPerMinute > 0 {
		c.pacer = newPacer(cfg.RequestsPerMinute)
	}
	return c
}

// CompleteJSON sends the prompt pair with JSON mode enabled. Transport
// failures and non-2xx answers are returned unchanged; a reply without a
// JSON object yields ErrNonJSON.
func (c *JSONClient) CompleteJSON(ctx context.Context, system, user string, opts CallOptions) (map[string]any, error) {
	if c.pacer != nil {
		held, err := c.pacer.wait(ctx)
		if held > 0 {
			c.mu.Lock()
			c.usage.Throttled++
			c.usage.ThrottledFor += held
			c.mu.Unlock()
		}
		if err != nil {
			return nil, fmt.Errorf("%s call held by rate limit (%d/min) for %s: %w",
				callName(opts), c.cfg.RequestsPerMinute, held.Round(time.Millisecond), err)
		}
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	temperature := c.cfg.Temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}
	maxTokens := c.cfg.MaxTokens
	if opts.MaxTokens > 0 {
		maxTokens = opts.MaxTokens
	}

	userContent := user
	if system != "" {
		userContent = system + "\n---\n" + user
	}

	resp, err := c.provider.Complete(ctx, CompletionRequest{
		Model: c.cfg.Model,
		Messages: []Message{
			{Role: RoleSystem, Content: jsonOnlyInstruction},
			{Role: RoleUser, Content: userContent},
		},
		MaxTokens:   maxTokens,
		Temperature: temperature,
		JSONMode:    true,
	})
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%s call timed out after %s: %w", c.provider.Name(), c.cfg.Timeout, err)
		}
		return nil, err
	}

	c.record(userContent, resp)

	obj, err := ParseJSONObject(resp.Content)
	if err != nil && resp.Truncated() {
		return nil, fmt.Errorf("%w: %s reply cut at the token limit (%d)", err, callName(opts), maxTokens)
	}
	return obj, err
}

func callName(opts CallOptions) string {
	if opts.Name == "" {
		return "model"
	}
	return opts.Name
}

// Usage returns the accumulated usage.
func (c *JSONClient) Usage() Usage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.usage
}

func (c *JSONClient) record(prompt string, resp *CompletionResponse) {
	in, out := resp.InputTokens, resp.OutputTokens
	if in == 0 {
		in = EstimateTokens(jsonOnlyInstruction) + EstimateTokens(prompt)
	}
	if out == 0 {
		out = EstimateTokens(resp.Content)
	}
	model := resp.Model
	if model == "" {
		model = c.cfg.Model
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.usage.Calls++
	c.usage.InputTokens += in
	c.usage.OutputTokens += out
	c.usage.CostUSD += EstimateCost(model, in, out)
}

// ParseJSONObject parses content as a JSON object. If the strict parse fails
// it retries on the span between the first '{' and the last '}', which
// tolerates markdown fences and chatter around the payload.
func ParseJSONObject(content string) (map[string]any, error) {
	var obj map[string]any
	trimmed := strings.TrimSpace(content)
	if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
		return obj, nil
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start < 0 || end <= start {
		return nil, ErrNonJSON
	}
	obj = nil
	if err := json.Unmarshal([]byte(trimmed[start:end+1]), &obj); err != nil || obj == nil {
		return nil, ErrNonJSON
	}
	return obj, nil
}
