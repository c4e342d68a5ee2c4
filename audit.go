package access

import (
	"context"
	"time"
)

// audit records an entry when audit logging is enabled. Audit failures are
// logged but never fail the operation being audited.
func (s *Service) audit(ctx context.Context, actorID, action, target string, success bool) {
	if !s.auditEnabled {
		return
	}

	entry := AuditEntry{
		ActorID:   actorID,
		Action:    action,
		Target:    target,
		Success:   success,
		CreatedAt: time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		s.log.Errorw("failed to record audit entry", "action", action, "target", target, "error", err)
	}
}

// AuditFilter narrows ListAuditEntries. Nil fields match everything.
type AuditFilter struct {
	ActorID *string
	Action  *string
	Since   *time.Time
	Until   *time.Time
}

// ListAuditEntries retrieves audit entries, newest first.
func (s *Service) ListAuditEntries(ctx context.Context, filter AuditFilter) ([]AuditEntry, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.Since != nil {
		query = query.Where("created_at >= ?", *filter.Since)
	}
	if filter.Until != nil {
		query = query.Where("created_at <= ?", *filter.Until)
	}

	var entries []AuditEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
