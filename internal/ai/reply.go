package ai

import (
	"encoding/json"
	"strings"

	"github.com/xelth-com/stockmaster/internal/ledger"
)

// Delimiters of the add-item command appended to a reply
const (
	BlockStart = "||JSON||"
	BlockEnd   = "||END||"
)

// ActionAdd is the only command the assistant may issue
const ActionAdd = "add"

// SourceAssistant is recorded as the source of items the assistant adds
const SourceAssistant = "AI Assistant"

// AddItemAction is a parsed request to add one new item
type AddItemAction struct {
	Name         string   `json:"name"`
	Quantity     *float64 `json:"quantity"`
	Price        *float64 `json:"price"`
	Category     string   `json:"category,omitempty"`
	MinThreshold *float64 `json:"minThreshold,omitempty"`
	Description  string   `json:"description,omitempty"`
}

// IntakeRow converts the action into an intake candidate
func (a AddItemAction) IntakeRow() ledger.IntakeRow {
	return ledger.IntakeRow{
		Name:         a.Name,
		Category:     a.Category,
		Quantity:     a.Quantity,
		Price:        a.Price,
		MinThreshold: a.MinThreshold,
		Description:  a.Description,
		Source:       SourceAssistant,
	}
}

// Reply is an assistant message split into display text and command
type Reply struct {
	Text   string         `json:"text"`
	Action *AddItemAction `json:"action,omitempty"`
}

type command struct {
	Action string        `json:"action"`
	Item   AddItemAction `json:"item"`
}

// ParseReply removes a trailing command block from text. The block is
// always hidden from the user; it becomes an Action only when it is valid
// JSON asking to add an item.
func ParseReply(text string) Reply {
	start := strings.Index(text, BlockStart)
	if start < 0 {
		return Reply{Text: strings.TrimSpace(text)}
	}
	reply := Reply{Text: strings.TrimSpace(text[:start])}

	body := text[start+len(BlockStart):]
	if end := strings.Index(body, BlockEnd); end >= 0 {
		body = body[:end]
	}

	var cmd command
	if err := json.Unmarshal([]byte(stripFences(body)), &cmd); err != nil {
		return reply
	}
	if cmd.Action != ActionAdd || strings.TrimSpace(cmd.Item.Name) == "" {
		return reply
	}
	reply.Action = &cmd.Item
	return reply
}

// stripFences removes Markdown code fences the model sometimes wraps JSON in
func stripFences(input string) string {
	cleaned := strings.TrimSpace(input)
	if strings.HasPrefix(cleaned, "```json") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
	} else if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
	return strings.TrimSpace(cleaned)
}
