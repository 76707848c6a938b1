package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultModel is used when no model name is configured
const DefaultModel = "gemini-3-flash-preview"

// Temperature of every completion
const Temperature = 0.7

// GeminiClient interacts with Google Gemini API using the official SDK
type GeminiClient struct {
	client    *genai.Client
	modelName string
}

// NewGeminiClient creates a new Gemini API client
func NewGeminiClient(ctx context.Context, apiKey, modelName string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is empty")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	if modelName == "" {
		modelName = DefaultModel
	}

	return &GeminiClient{
		client:    client,
		modelName: modelName,
	}, nil
}

// Close closes the client connection
func (c *GeminiClient) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// Complete sends the conversation with a system instruction and returns the
// reply text. The last turn must come from the user.
func (c *GeminiClient) Complete(ctx context.Context, system string, history []Turn) (string, error) {
	// Gemini rejects a history that opens with a model turn
	for len(history) > 0 && history[0].Role != RoleUser {
		history = history[1:]
	}
	if len(history) == 0 || history[len(history)-1].Role != RoleUser {
		return "", fmt.Errorf("conversation must end with a user message")
	}

	model := c.client.GenerativeModel(c.modelName)
	model.SetTemperature(Temperature)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}

	cs := model.StartChat()
	for _, turn := range history[:len(history)-1] {
		cs.History = append(cs.History, &genai.Content{
			Role:  string(turn.Role),
			Parts: []genai.Part{genai.Text(turn.Text)},
		})
	}

	resp, err := cs.SendMessage(ctx, genai.Text(history[len(history)-1].Text))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var fullText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			fullText.WriteString(string(txt))
		}
	}
	return fullText.String(), nil
}
