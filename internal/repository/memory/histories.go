package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
)

type historiesRepo struct {
	mu      sync.RWMutex
	seq     int64
	rows    map[int64][]models.PointHistory
	latency time.Duration
}

func (r *historiesRepo) Append(ctx context.Context, userID, amount int64, typ models.TransactionType, at time.Time) (models.PointHistory, error) {
	if err := throttle(ctx, r.latency); err != nil {
		return models.PointHistory{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	h := models.PointHistory{ID: r.seq, UserID: userID, Amount: amount, Type: typ, CreatedAt: at}
	r.rows[userID] = append(r.rows[userID], h)
	return h, nil
}

func (r *historiesRepo) ListByUser(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	if err := throttle(ctx, r.latency); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.PointHistory, len(r.rows[userID]))
	copy(out, r.rows[userID])
	return out, nil
}
