package models

import (
	"gorm.io/datatypes"
)

// ChatRole identifies who authored a chat message
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
	RoleSystem    ChatRole = "system"
)

// ChatMessage is one team-chat or assistant message.
// Timestamp is Unix milliseconds.
type ChatMessage struct {
	ID        string         `gorm:"primaryKey;type:varchar(64)" json:"id,omitempty"`
	Sender    string         `json:"sender,omitempty"`
	Role      ChatRole       `gorm:"type:varchar(16)" json:"role"`
	Content   string         `gorm:"type:text" json:"content"`
	Timestamp int64          `gorm:"index" json:"timestamp"`
	Action    datatypes.JSON `gorm:"type:jsonb" json:"action,omitempty"`
}

// TableName specifies the table name for ChatMessage model
func (ChatMessage) TableName() string {
	return "team_chat"
}

func (m *ChatMessage) GetEntityID() string   { return m.ID }
func (m *ChatMessage) SetEntityID(id string) { m.ID = id }
func (m *ChatMessage) GetCollection() string { return CollectionTeamChat }
