// Package events delivers committed point transactions to downstream sinks.
package events

import (
	"context"
	"strconv"

	"github.com/baharkarakas/point-service/internal/models"
	repo "github.com/baharkarakas/point-service/internal/repository"
)

type Publisher interface {
	Publish(ctx context.Context, ev models.PointEvent) error
}

// Nop discards events.
type Nop struct{}

func (Nop) Publish(context.Context, models.PointEvent) error { return nil }

// AuditPublisher records events as audit log rows.
type AuditPublisher struct {
	logs repo.AuditLogs
}

func NewAuditPublisher(logs repo.AuditLogs) *AuditPublisher {
	return &AuditPublisher{logs: logs}
}

func (p *AuditPublisher) Publish(ctx context.Context, ev models.PointEvent) error {
	entityID := strconv.FormatInt(ev.UserID, 10)
	return p.logs.Create(ctx, models.AuditLog{
		ID:         ev.ID,
		EntityType: "point",
		EntityID:   &entityID,
		Action:     ev.Action(),
		Details: map[string]any{
			"type":    string(ev.Type),
			"amount":  ev.Amount,
			"balance": ev.Balance,
		},
		CreatedAt: ev.CreatedAt,
	})
}
