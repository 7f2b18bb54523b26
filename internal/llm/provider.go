// Package llm talks to chat-completion endpoints. Providers speak one
// vendor's wire format; JSONClient layers the JSON-only contract the
// interview relies on, with pacing, timeouts and usage accounting.
package llm

import "context"

// Provider sends one chat completion to a vendor endpoint.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name identifies the provider in errors and usage lines.
	Name() string
}

// Role is the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat message.
type Message struct {
	Role    Role
	Content string
}

// CompletionRequest is a provider-neutral chat completion. An empty Model
// selects the provider's configured model; a zero MaxTokens its default.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// JSONMode asks for a JSON object reply where the vendor supports it.
	JSONMode bool
}

// CompletionResponse is a provider-neutral completion result. Token counts
// are zero when the vendor does not report them.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}

// Truncated reports whether the reply stopped at the token limit, in which
// case a JSON payload is usually cut mid-object.
func (r *CompletionResponse) Truncated() bool {
	switch r.FinishReason {
	case "length", "max_tokens":
		return true
	}
	return false
}

// splitSystem joins the system messages and returns the rest in order, for
// vendors that take the system prompt as a separate field.
func splitSystem(msgs []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
