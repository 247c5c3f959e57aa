package memory

import (
	"context"
	"sync"
	"time"

	"github.com/baharkarakas/point-service/internal/models"
	"github.com/google/uuid"
)

type auditLogsRepo struct {
	mu   sync.Mutex
	logs []models.AuditLog
}

func (r *auditLogsRepo) Create(_ context.Context, l models.AuditLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = time.Now()
	}
	r.mu.Lock()
	r.logs = append(r.logs, l)
	r.mu.Unlock()
	return nil
}

func (r *auditLogsRepo) List() []models.AuditLog {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]models.AuditLog, len(r.logs))
	copy(out, r.logs)
	return out
}
