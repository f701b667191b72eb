package user

import "time"

// User represents a registered account.
type User struct {
	ID             int64     `json:"id"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	PasswordHash   string    `json:"-"`
	Verified       bool      `json:"verified"`
	TelegramChatID *int64    `json:"telegram_chat_id,omitempty"`
	DietID         *int64    `json:"diet_id,omitempty"`
	CostID         *int64    `json:"cost_id,omitempty"`
	DifficultyID   *int64    `json:"difficulty_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Preferences is the mutable dietary profile a user maintains. The menu
// engine reads a snapshot of it through its own gateway and never writes it.
type Preferences struct {
	DietID       *int64  `json:"diet_id"`
	CostID       *int64  `json:"cost_id"`
	DifficultyID *int64  `json:"difficulty_id"`
	AllergyIDs   []int64 `json:"allergy_ids"`
}
