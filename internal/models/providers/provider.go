package providers

import "context"

// Message roles understood by Completer.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Completer sends role-tagged messages to a hosted model and returns the
// text of the first choice. Failures are returned as
// *models.CompletionError. Implementations must be safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error)
}

// UserPrompt wraps a single prompt as a user message.
func UserPrompt(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}

// SystemPrompt prefixes prompt with a system message.
func SystemPrompt(system, prompt string) []Message {
	return []Message{
		{Role: RoleSystem, Content: system},
		{Role: RoleUser, Content: prompt},
	}
}
