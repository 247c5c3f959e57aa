package postgres

import (
	"context"
	"fmt"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/google/uuid"
)

const insertAuditLogSQL = `INSERT INTO audit_logs (id, entity_type, entity_id, action, details) VALUES ($1, $2, $3, $4, $5)`

type auditLogsRepo struct{ db DB }

func (r *auditLogsRepo) Create(ctx context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if _, err := conn(ctx, r.db).Exec(ctx, insertAuditLogSQL, l.ID, l.EntityType, l.EntityID, l.Action, l.Details); err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}
	return nil
}
