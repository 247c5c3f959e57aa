package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMock(t *testing.T) (Repositories, pgxmock.PgxPoolIface) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepositories(mock), mock
}

func TestBalances_GetByID_Existing(t *testing.T) {
	repos, mock := setupMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM point_balances WHERE user_id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "amount", "updated_at"}).AddRow(int64(10), int64(1500), now))

	b, err := repos.Balances.GetByID(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.UserID)
	assert.Equal(t, int64(1500), b.Amount)
	assert.Equal(t, now, b.UpdatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBalances_GetByID_MissingIsZero(t *testing.T) {
	repos, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM point_balances WHERE user_id = $1")).
		WithArgs(int64(11)).
		WillReturnError(pgx.ErrNoRows)

	b, err := repos.Balances.GetByID(context.Background(), 11)
	require.NoError(t, err)
	assert.Equal(t, int64(11), b.UserID)
	assert.Zero(t, b.Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBalances_GetByID_DatabaseError(t *testing.T) {
	repos, mock := setupMock(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(regexp.QuoteMeta("FROM point_balances WHERE user_id = $1")).
		WithArgs(int64(12)).
		WillReturnError(boom)

	_, err := repos.Balances.GetByID(context.Background(), 12)
	assert.ErrorIs(t, err, boom)
}

func TestBalances_Upsert(t *testing.T) {
	repos, mock := setupMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO point_balances (user_id, amount, updated_at)")).
		WithArgs(int64(10), int64(3000)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "amount", "updated_at"}).AddRow(int64(10), int64(3000), now))

	b, err := repos.Balances.Upsert(context.Background(), 10, 3000)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), b.Amount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistories_Append(t *testing.T) {
	repos, mock := setupMock(t)
	at := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO point_histories (user_id, amount, type, created_at)")).
		WithArgs(int64(10), int64(500), "USE", at).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "amount", "type", "created_at"}).AddRow(int64(1), int64(10), int64(500), "USE", at))

	h, err := repos.Histories.Append(context.Background(), 10, 500, models.TxnUse, at)
	require.NoError(t, err)
	assert.Equal(t, int64(1), h.ID)
	assert.Equal(t, models.TxnUse, h.Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistories_ListByUser(t *testing.T) {
	repos, mock := setupMock(t)
	at := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM point_histories WHERE user_id = $1 ORDER BY id ASC")).
		WithArgs(int64(10)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "amount", "type", "created_at"}).
			AddRow(int64(1), int64(10), int64(2000), "CHARGE", at).
			AddRow(int64(2), int64(10), int64(500), "USE", at.Add(time.Millisecond)))

	hs, err := repos.Histories.ListByUser(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, models.TxnCharge, hs[0].Type)
	assert.Equal(t, models.TxnUse, hs[1].Type)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistories_ListByUser_Empty(t *testing.T) {
	repos, mock := setupMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM point_histories WHERE user_id = $1")).
		WithArgs(int64(99)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "amount", "type", "created_at"}))

	hs, err := repos.Histories.ListByUser(context.Background(), 99)
	require.NoError(t, err)
	assert.NotNil(t, hs)
	assert.Empty(t, hs)
}

func TestTx_CommitsBothWrites(t *testing.T) {
	repos, mock := setupMock(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO point_balances")).
		WithArgs(int64(1), int64(1000)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "amount", "updated_at"}).AddRow(int64(1), int64(1000), now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO point_histories")).
		WithArgs(int64(1), int64(1000), "CHARGE", now).
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "amount", "type", "created_at"}).AddRow(int64(1), int64(1), int64(1000), "CHARGE", now))
	mock.ExpectCommit()

	err := repos.Tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := repos.Balances.Upsert(ctx, 1, 1000); err != nil {
			return err
		}
		_, err := repos.Histories.Append(ctx, 1, 1000, models.TxnCharge, now)
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTx_RollsBackOnError(t *testing.T) {
	repos, mock := setupMock(t)
	now := time.Now()
	boom := errors.New("disk full")

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO point_balances")).
		WithArgs(int64(1), int64(1000)).
		WillReturnRows(pgxmock.NewRows([]string{"user_id", "amount", "updated_at"}).AddRow(int64(1), int64(1000), now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO point_histories")).
		WithArgs(int64(1), int64(1000), "CHARGE", now).
		WillReturnError(boom)
	mock.ExpectRollback()

	err := repos.Tx.WithinTx(context.Background(), func(ctx context.Context) error {
		if _, err := repos.Balances.Upsert(ctx, 1, 1000); err != nil {
			return err
		}
		_, err := repos.Histories.Append(ctx, 1, 1000, models.TxnCharge, now)
		return err
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogs_Create(t *testing.T) {
	repos, mock := setupMock(t)
	entityID := "10"
	details := map[string]any{"amount": int64(100)}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs("log-1", "point", &entityID, "point.charged", details).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repos.AuditLogs.Create(context.Background(), models.AuditLog{
		ID:         "log-1",
		EntityType: "point",
		EntityID:   &entityID,
		Action:     "point.charged",
		Details:    details,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
