package models

import "time"

// Balance is a user's current point amount.
type Balance struct {
	UserID    int64     `json:"user_id"`
	Amount    int64     `json:"amount"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmptyBalance is what a user who never transacted owns.
func EmptyBalance(userID int64, at time.Time) Balance {
	return Balance{UserID: userID, Amount: 0, UpdatedAt: at}
}
