package models

import "time"

// PointEvent is emitted after a charge or use has been committed.
type PointEvent struct {
	ID        string          `json:"id"`
	UserID    int64           `json:"user_id"`
	Type      TransactionType `json:"type"`
	Amount    int64           `json:"amount"`
	Balance   int64           `json:"balance"`
	CreatedAt time.Time       `json:"created_at"`
}

// Action is the event name used on the wire, e.g. "point.charged".
func (e PointEvent) Action() string {
	switch e.Type {
	case TxnCharge:
		return "point.charged"
	case TxnUse:
		return "point.used"
	default:
		return "point.unknown"
	}
}
