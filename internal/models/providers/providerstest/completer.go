// Package providerstest provides a scriptable Completer for tests.
package providerstest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"whatsfordinner/internal/models/providers"
)

var _ providers.Completer = (*MockCompleter)(nil)

// MockCompleter is a testify mock of providers.Completer.
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []providers.Message, maxTokens int, temperature float64) (string, error) {
	args := m.Called(ctx, messages, maxTokens, temperature)
	return args.String(0), args.Error(1)
}

// LastUserPrompt returns the user message of the most recent call, or "".
func (m *MockCompleter) LastUserPrompt() string {
	if len(m.Calls) == 0 {
		return ""
	}
	messages := m.Calls[len(m.Calls)-1].Arguments.Get(1).([]providers.Message)
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == providers.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}
