package models

import "time"

// PlaidItem is one linked institution connection. The access token and the
// sync cursor are owned by the backend and never serialized to clients.
type PlaidItem struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	ItemID      string    `json:"item_id"`
	AccessToken string    `json:"-"`
	SyncCursor  *string   `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
