package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const StatusActive = "active"

// Client is master data owned by the clients service. Billing reads it only.
type Client struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    int64        `gorm:"not null;index" json:"user_id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     *string      `gorm:"type:text" json:"email,omitempty"`
	Phone     *string      `gorm:"type:text" json:"phone,omitempty"`
	Address   *string      `gorm:"type:text" json:"address,omitempty"`
	Status    string       `gorm:"type:text;not null;default:'active'" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (Client) TableName() string { return "clients" }

// Counts is the dashboard view of a caller's clients.
type Counts struct {
	Total  int64 `json:"total_clients"`
	Active int64 `json:"active_clients"`
}
