package models

import "time"

type TransactionType string

const (
	TxnCharge TransactionType = "CHARGE"
	TxnUse    TransactionType = "USE"
)

func (t TransactionType) Valid() bool {
	return t == TxnCharge || t == TxnUse
}

// PointHistory is one immutable ledger entry. Amount is always the positive
// magnitude; Type carries the direction.
type PointHistory struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	Amount    int64           `json:"amount"`
	Type      TransactionType `json:"type"`
	CreatedAt time.Time       `json:"created_at"`
}

// Signed returns the balance delta this entry contributed.
func (h PointHistory) Signed() int64 {
	if h.Type == TxnUse {
		return -h.Amount
	}
	return h.Amount
}
