package services

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/baharkarakas/point-service/internal/events"
	"github.com/baharkarakas/point-service/internal/locker"
	"github.com/baharkarakas/point-service/internal/metrics"
	"github.com/baharkarakas/point-service/internal/models"
	repo "github.com/baharkarakas/point-service/internal/repository"
	"github.com/baharkarakas/point-service/internal/worker"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Policy holds the configurable floor and ceiling.
type Policy struct {
	// MinCharge rejects smaller charges; values below 1 only require a positive amount.
	MinCharge int64
	// MaxBalance caps a balance after a charge; 0 disables the cap.
	MaxBalance int64
}

func DefaultPolicy() Policy {
	return Policy{MinCharge: 100, MaxBalance: 100_000}
}

func (p Policy) minCharge() int64 {
	if p.MinCharge < 1 {
		return 1
	}
	return p.MinCharge
}

type Option func(*TransactionService)

func WithLogger(l zerolog.Logger) Option {
	return func(s *TransactionService) { s.log = l }
}

// WithPublisher emits a PointEvent after every committed charge or use. Events
// are handed to wp when it is non-nil, otherwise published inline.
func WithPublisher(p events.Publisher, wp *worker.Pool) Option {
	return func(s *TransactionService) {
		s.pub = p
		s.wp = wp
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *TransactionService) { s.now = now }
}

// TransactionService charges and uses points. Mutations for one user run inside
// that user's critical section; reads take no lock.
type TransactionService struct {
	bal    repo.Balances
	hist   repo.Histories
	tx     repo.TxManager
	locks  *locker.KeyedLock[int64]
	policy Policy
	log    zerolog.Logger
	pub    events.Publisher
	wp     *worker.Pool
	now    func() time.Time
}

func NewTransactionService(b repo.Balances, h repo.Histories, tx repo.TxManager, locks *locker.KeyedLock[int64], policy Policy, opts ...Option) *TransactionService {
	s := &TransactionService{
		bal:    b,
		hist:   h,
		tx:     tx,
		locks:  locks,
		policy: policy,
		log:    zerolog.Nop(),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// ----------------- Queries -----------------

// GetBalance is a point-in-time snapshot; it may race with in-flight writes.
func (s *TransactionService) GetBalance(ctx context.Context, userID int64) (models.Balance, error) {
	if err := validateUserID(userID); err != nil {
		return models.Balance{}, err
	}
	b, err := s.bal.GetByID(ctx, userID)
	if err != nil {
		return models.Balance{}, fmt.Errorf("read balance: %w", err)
	}
	return b, nil
}

// GetHistory returns every record for userID, oldest first.
func (s *TransactionService) GetHistory(ctx context.Context, userID int64) ([]models.PointHistory, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}
	hs, err := s.hist.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return hs, nil
}

// ----------------- Mutations -----------------

// Charge adds amount to userID's balance. ctx can abandon the wait for the
// user's lock; once inside, the charge runs to completion.
func (s *TransactionService) Charge(ctx context.Context, userID, amount int64) (models.Balance, error) {
	if err := validateUserID(userID); err != nil {
		return s.reject(models.TxnCharge, userID, amount, err)
	}
	if floor := s.policy.minCharge(); amount < floor {
		return s.reject(models.TxnCharge, userID, amount,
			newError(KindAmountTooSmall, fmt.Sprintf("charge amount must be at least %d", floor)))
	}

	b, err := locker.Do(ctx, s.locks, userID, func(ctx context.Context) (models.Balance, error) {
		ctx = context.WithoutCancel(ctx)
		cur, err := s.bal.GetByID(ctx, userID)
		if err != nil {
			return models.Balance{}, fmt.Errorf("read balance: %w", err)
		}
		if amount > math.MaxInt64-cur.Amount {
			return models.Balance{}, ErrArithmeticOverflow
		}
		next := cur.Amount + amount
		if s.policy.MaxBalance > 0 && next > s.policy.MaxBalance {
			return models.Balance{}, newError(KindBalanceCeilingExceeded,
				fmt.Sprintf("balance would exceed the maximum of %d", s.policy.MaxBalance))
		}
		return s.commit(ctx, userID, next, amount, models.TxnCharge)
	})
	if err != nil {
		return s.reject(models.TxnCharge, userID, amount, err)
	}
	return s.accept(models.TxnCharge, b, amount), nil
}

func (s *TransactionService) Use(ctx context.Context, userID, amount int64) (models.Balance, error) {
	if err := validateUserID(userID); err != nil {
		return s.reject(models.TxnUse, userID, amount, err)
	}
	if amount <= 0 {
		return s.reject(models.TxnUse, userID, amount, ErrInvalidAmount)
	}

	b, err := locker.Do(ctx, s.locks, userID, func(ctx context.Context) (models.Balance, error) {
		ctx = context.WithoutCancel(ctx)
		cur, err := s.bal.GetByID(ctx, userID)
		if err != nil {
			return models.Balance{}, fmt.Errorf("read balance: %w", err)
		}
		if cur.Amount < amount {
			return models.Balance{}, newError(KindInsufficientBalance,
				fmt.Sprintf("insufficient balance: have %d, need %d", cur.Amount, amount))
		}
		return s.commit(ctx, userID, cur.Amount-amount, amount, models.TxnUse)
	})
	if err != nil {
		return s.reject(models.TxnUse, userID, amount, err)
	}
	return s.accept(models.TxnUse, b, amount), nil
}

// Exclusive runs fn inside userID's critical section. Charge and Use called
// with the context handed to fn re-enter the section instead of blocking.
func (s *TransactionService) Exclusive(ctx context.Context, userID int64, fn func(ctx context.Context) error) error {
	if err := validateUserID(userID); err != nil {
		return err
	}
	return s.locks.Run(ctx, userID, fn)
}

// ----------------- Helpers -----------------

// commit must run inside the user's critical section, on a context that cannot
// be cancelled: a store without rollback would keep a half-written commit.
func (s *TransactionService) commit(ctx context.Context, userID, next, amount int64, typ models.TransactionType) (models.Balance, error) {
	var out models.Balance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		b, err := s.bal.Upsert(ctx, userID, next)
		if err != nil {
			return fmt.Errorf("write balance: %w", err)
		}
		if _, err := s.hist.Append(ctx, userID, amount, typ, s.now()); err != nil {
			return fmt.Errorf("append history: %w", err)
		}
		out = b
		return nil
	})
	return out, err
}

func (s *TransactionService) accept(typ models.TransactionType, b models.Balance, amount int64) models.Balance {
	metrics.TransactionsTotal.WithLabelValues(string(typ), "ok").Inc()
	s.log.Info().
		Str("type", string(typ)).
		Int64("user_id", b.UserID).
		Int64("amount", amount).
		Int64("balance", b.Amount).
		Msg("point transaction committed")
	s.publish(models.PointEvent{
		ID:        uuid.NewString(),
		UserID:    b.UserID,
		Type:      typ,
		Amount:    amount,
		Balance:   b.Amount,
		CreatedAt: b.UpdatedAt,
	})
	return b
}

func (s *TransactionService) reject(typ models.TransactionType, userID, amount int64, err error) (models.Balance, error) {
	kind, ok := KindOf(err)
	result := "error"
	if ok {
		result = strings.ToLower(string(kind))
	}
	metrics.TransactionsTotal.WithLabelValues(string(typ), result).Inc()

	level := zerolog.WarnLevel
	if !ok {
		level = zerolog.ErrorLevel
	}
	s.log.WithLevel(level).Err(err).
		Str("type", string(typ)).
		Int64("user_id", userID).
		Int64("amount", amount).
		Msg("point transaction rejected")
	return models.Balance{}, err
}

func (s *TransactionService) publish(ev models.PointEvent) {
	if s.pub == nil {
		return
	}
	job := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.pub.Publish(ctx, ev); err != nil {
			metrics.EventsPublished.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).
				Str("event", ev.Action()).
				Int64("user_id", ev.UserID).
				Msg("publish point event")
			return
		}
		metrics.EventsPublished.WithLabelValues("ok").Inc()
	}
	if s.wp == nil {
		job()
		return
	}
	if err := s.wp.Submit(job); err != nil {
		s.log.Warn().Err(err).Str("event", ev.Action()).Msg("event dropped")
	}
}

func validateUserID(userID int64) error {
	if userID <= 0 {
		return ErrInvalidIdentifier
	}
	return nil
}
