package models

import (
	"time"
)

// CollectionUsers holds accounts; it is never exposed to subscribers
const CollectionUsers = "users"

// UserAuth represents a user in the system.
// The record key is the lowercased email address.
// Standardized: Go (PascalCase) -> DB (snake_case) -> JSON (camelCase)
type UserAuth struct {
	ID        string     `gorm:"primaryKey;type:varchar(255)" json:"id"`
	Email     string     `gorm:"unique;not null" json:"email"`
	Password  string     `gorm:"not null" json:"password,omitempty"`
	Name      string     `json:"name,omitempty"`
	Role      string     `gorm:"type:varchar(32)" json:"role"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TableName specifies the table name for UserAuth model
func (UserAuth) TableName() string {
	return "user_auths"
}

func (u *UserAuth) GetEntityID() string   { return u.ID }
func (u *UserAuth) SetEntityID(id string) { u.ID = id }
func (u *UserAuth) GetCollection() string { return CollectionUsers }

// Public strips the password hash for API responses
func (u UserAuth) Public() UserAuth {
	u.Password = ""
	return u
}
