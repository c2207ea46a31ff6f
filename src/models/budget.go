package models

import "time"

type Budget struct {
	ID        int64      `json:"id"`
	UserID    int64      `json:"user_id"`
	Category  string     `json:"category"`
	Amount    float64    `json:"amount"`
	Period    string     `json:"period"` // monthly, weekly, annual
	StartDate time.Time  `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Rollover  bool       `json:"rollover"`
	IsActive  bool       `json:"is_active"`
	Notes     *string    `json:"notes"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
