package postgres

import (
	"context"

	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Repositories struct {
	Balances  repo.Balances
	Histories repo.Histories
	Tx        repo.TxManager
	AuditLogs repo.AuditLogs
}

func NewRepositories(db DB) Repositories {
	return Repositories{
		Balances:  &balancesRepo{db},
		Histories: &historiesRepo{db},
		Tx:        &txManager{db},
		AuditLogs: &auditLogsRepo{db},
	}
}
