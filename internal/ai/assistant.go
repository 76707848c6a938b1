// Package ai runs the stock assistant chat against a completion provider
package ai

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/xelth-com/stockmaster/internal/models"
	"go.uber.org/zap"
)

var errNotConfigured = errors.New("no completion provider configured")

// Apology replaces the reply whenever the completion fails
const Apology = "Sorry, I encountered an error."

// NoResponse is shown when the provider returns empty text
const NoResponse = "No response."

// TurnRole is the provider-side author of a turn
type TurnRole string

const (
	RoleUser  TurnRole = "user"
	RoleModel TurnRole = "model"
)

// Turn is one message sent to the provider
type Turn struct {
	Role TurnRole
	Text string
}

// Completer produces the next reply of a conversation
type Completer interface {
	Complete(ctx context.Context, system string, history []Turn) (string, error)
}

// CompletionError records why a reply degraded to the apology
type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return "ai completion failed: " + e.Err.Error()
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Assistant turns chat transcripts into replies
type Assistant struct {
	completer Completer
	timeout   time.Duration
	log       *zap.SugaredLogger
}

// NewAssistant creates an assistant. A nil completer makes every chat
// degrade to the apology, which keeps the chat usable without an API key.
func NewAssistant(c Completer, timeout time.Duration) *Assistant {
	return &Assistant{completer: c, timeout: timeout, log: zap.S().Named("ai")}
}

// Greeting is the opening assistant message of a session
func (a *Assistant) Greeting() models.ChatMessage {
	return models.ChatMessage{
		Role:      models.RoleAssistant,
		Content:   GreetingText,
		Timestamp: time.Now().UnixMilli(),
	}
}

// Chat answers the transcript. It never fails the session: on any provider
// error the reply is the apology and the error is returned for logging.
func (a *Assistant) Chat(ctx context.Context, transcript []models.ChatMessage, summary ContextSummary) (Reply, error) {
	history := make([]Turn, 0, len(transcript))
	for _, m := range transcript {
		switch m.Role {
		case models.RoleSystem:
			continue
		case models.RoleAssistant:
			history = append(history, Turn{Role: RoleModel, Text: m.Content})
		default:
			history = append(history, Turn{Role: RoleUser, Text: m.Content})
		}
	}

	if a.completer == nil {
		return Reply{Text: Apology}, &CompletionError{Err: errNotConfigured}
	}
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	text, err := a.completer.Complete(ctx, SystemPrompt(summary), history)
	if err != nil {
		a.log.Warnw("completion failed", "turns", len(history), "error", err)
		return Reply{Text: Apology}, &CompletionError{Err: err}
	}
	if strings.TrimSpace(text) == "" {
		return Reply{Text: NoResponse}, nil
	}
	return ParseReply(text), nil
}
