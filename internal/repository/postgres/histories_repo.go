package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
)

const (
	insertHistorySQL = `INSERT INTO point_histories (user_id, amount, type, created_at) VALUES ($1, $2, $3, $4) RETURNING id, user_id, amount, type, created_at`
	listHistorySQL   = `SELECT id, user_id, amount, type, created_at FROM point_histories WHERE user_id = $1 ORDER BY id ASC`
)

type historiesRepo struct{ db DB }

func (r *historiesRepo) Append(ctx context.Context, userID, amount int64, typ models.TransactionType, at time.Time) (models.PointHistory, error) {
	var (
		h  models.PointHistory
		tt string
	)
	err := conn(ctx, r.db).QueryRow(ctx, insertHistorySQL, userID, amount, string(typ), at).
		Scan(&h.ID, &h.UserID, &h.Amount, &tt, &h.CreatedAt)
	if err != nil {
		return models.PointHistory{}, fmt.Errorf("insert history: %w", err)
	}
	h.Type = models.TransactionType(tt)
	return h, nil
}

func (r *historiesRepo) ListByUser(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	rows, err := conn(ctx, r.db).Query(ctx, listHistorySQL, userID)
	if err != nil {
		return nil, fmt.Errorf("list histories: %w", err)
	}
	defer rows.Close()

	out := []models.PointHistory{}
	for rows.Next() {
		var (
			h  models.PointHistory
			tt string
		)
		if err := rows.Scan(&h.ID, &h.UserID, &h.Amount, &tt, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		h.Type = models.TransactionType(tt)
		out = append(out, h)
	}
	return out, rows.Err()
}
