// Package memory holds process-local stores. Nothing survives a restart.
package memory

import (
	"context"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	repo "github.com/baharkarakas/point-service/internal/repository"
)

type Repositories struct {
	Balances  repo.Balances
	Histories repo.Histories
	Tx        repo.TxManager
	AuditLogs repo.AuditLogs
}

type Option func(*settings)

type settings struct {
	latency time.Duration
	now     func() time.Time
}

// WithLatency delays every store call, like a slow backing table would.
func WithLatency(d time.Duration) Option {
	return func(s *settings) { s.latency = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *settings) { s.now = now }
}

func NewRepositories(opts ...Option) Repositories {
	s := settings{now: time.Now}
	for _, o := range opts {
		o(&s)
	}
	return Repositories{
		Balances:  &balancesRepo{rows: make(map[int64]models.Balance), latency: s.latency, now: s.now},
		Histories: &historiesRepo{rows: make(map[int64][]models.PointHistory), latency: s.latency},
		Tx:        passthroughTx{},
		AuditLogs: &auditLogsRepo{},
	}
}

// passthroughTx runs fn directly and cannot roll back. Callers must not let
// fn stop between writes; see services.TransactionService.commit.
type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func throttle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
