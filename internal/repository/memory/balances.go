package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
)

type balancesRepo struct {
	mu      sync.RWMutex
	rows    map[int64]models.Balance
	latency time.Duration
	now     func() time.Time
}

func (r *balancesRepo) GetByID(ctx context.Context, userID int64) (models.Balance, error) {
	if err := throttle(ctx, r.latency); err != nil {
		return models.Balance{}, err
	}
	r.mu.RLock()
	b, ok := r.rows[userID]
	r.mu.RUnlock()
	if !ok {
		return models.EmptyBalance(userID, r.now()), nil
	}
	return b, nil
}

func (r *balancesRepo) Upsert(ctx context.Context, userID, amount int64) (models.Balance, error) {
	if err := throttle(ctx, r.latency); err != nil {
		return models.Balance{}, err
	}
	b := models.Balance{UserID: userID, Amount: amount, UpdatedAt: r.now()}
	r.mu.Lock()
	r.rows[userID] = b
	r.mu.Unlock()
	return b, nil
}
