package repository

import (
	"context"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
)

// Balances owns the authoritative point amount per user.
type Balances interface {
	// GetByID returns a zero balance for users that never transacted.
	GetByID(ctx context.Context, userID int64) (models.Balance, error)
	Upsert(ctx context.Context, userID, amount int64) (models.Balance, error)
}

// Histories is an append-only log of charges and uses per user.
type Histories interface {
	Append(ctx context.Context, userID, amount int64, typ models.TransactionType, at time.Time) (models.PointHistory, error)
	// ListByUser returns records oldest first.
	ListByUser(ctx context.Context, userID int64) ([]models.PointHistory, error)
}

// TxManager runs fn so that every store write made with the ctx passed to fn
// commits together or not at all.
type TxManager interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type AuditLogs interface {
	Create(ctx context.Context, l models.AuditLog) error
}
