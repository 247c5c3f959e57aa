package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/jackc/pgx/v5"
)

const (
	selectBalanceSQL = `SELECT user_id, amount, updated_at FROM point_balances WHERE user_id = $1`
	upsertBalanceSQL = `INSERT INTO point_balances (user_id, amount, updated_at) VALUES ($1, $2, now()) ON CONFLICT (user_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = EXCLUDED.updated_at RETURNING user_id, amount, updated_at`
)

type balancesRepo struct{ db DB }

func (r *balancesRepo) GetByID(ctx context.Context, userID int64) (models.Balance, error) {
	var b models.Balance
	err := conn(ctx, r.db).QueryRow(ctx, selectBalanceSQL, userID).
		Scan(&b.UserID, &b.Amount, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.EmptyBalance(userID, time.Now()), nil
	}
	if err != nil {
		return models.Balance{}, fmt.Errorf("select balance: %w", err)
	}
	return b, nil
}

func (r *balancesRepo) Upsert(ctx context.Context, userID, amount int64) (models.Balance, error) {
	var b models.Balance
	err := conn(ctx, r.db).QueryRow(ctx, upsertBalanceSQL, userID, amount).
		Scan(&b.UserID, &b.Amount, &b.UpdatedAt)
	if err != nil {
		return models.Balance{}, fmt.Errorf("upsert balance: %w", err)
	}
	return b, nil
}
