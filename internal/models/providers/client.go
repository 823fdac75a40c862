package providers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"whatsfordinner/internal/models"
)

var _ Completer = (*LLMClient)(nil)

// LLMClient adapts a langchaingo model to Completer. It holds no mutable
// state, so one client serves every session.
type LLMClient struct {
	model   llms.Model
	modelID string
	log     logrus.FieldLogger
}

// NewLLMClient pins every request to modelID.
func NewLLMClient(model llms.Model, modelID string, log logrus.FieldLogger) *LLMClient {
	return &LLMClient{
		model:   model,
		modelID: modelID,
		log:     log.WithField("model", modelID),
	}
}

// ModelID returns the model identifier sent with every request.
func (c *LLMClient) ModelID() string {
	return c.modelID
}

// Complete implements Completer
func (c *LLMClient) Complete(ctx context.Context, messages []Message, maxTokens int, temperature float64) (string, error) {
	content := make([]llms.MessageContent, len(messages))
	for i, msg := range messages {
		var msgType schema.ChatMessageType
		switch msg.Role {
		case RoleSystem:
			msgType = schema.ChatMessageTypeSystem
		case RoleUser:
			msgType = schema.ChatMessageTypeHuman
		case RoleAssistant:
			msgType = schema.ChatMessageTypeAI
		default:
			return "", &models.CompletionError{Err: fmt.Errorf("unsupported message role: %s", msg.Role)}
		}
		content[i] = llms.TextParts(msgType, msg.Content)
	}

	start := time.Now()
	resp, err := c.model.GenerateContent(ctx, content,
		llms.WithModel(c.modelID),
		llms.WithMaxTokens(maxTokens),
		llms.WithTemperature(temperature),
	)
	log := c.log.WithFields(logrus.Fields{
		"max_tokens":  maxTokens,
		"temperature": temperature,
		"duration":    time.Since(start).Round(time.Millisecond),
	})
	if err != nil {
		log.WithError(err).Warn("completion request failed")
		return "", &models.CompletionError{Err: err}
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		log.Warn("completion returned no choices")
		return "", &models.CompletionError{Err: errors.New("empty response from model")}
	}

	text := resp.Choices[0].Content
	log.WithField("chars", len(text)).Debug("completion received")
	return text, nil
}
