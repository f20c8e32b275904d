package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/hrops/approval-engine/internal/application/port"
	"github.com/hrops/approval-engine/internal/domain/request"
)

// AuditRepository implements port.AuditRepository over sqlite. The table is
// append-only; there is no update or delete path.
type AuditRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *sql.DB, logger *zap.Logger) port.AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a transition record
func (r *AuditRepository) Create(ctx context.Context, rec *request.TransitionRecord) error {
	query := `
		INSERT INTO approval_audit (
			request_id, actor_id, level, action_type,
			previous_status, new_status, comment, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		rec.RequestID,
		rec.ActorID,
		rec.Level,
		rec.ActionType,
		rec.PreviousStatus.String(),
		rec.NewStatus.String(),
		rec.Comment,
		rec.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create audit record",
			zap.String("request_id", rec.RequestID), zap.Error(err))
		return fmt.Errorf("failed to create audit record: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	rec.ID = id

	return nil
}

// ListByRequestID retrieves a request's transition records in insertion order
func (r *AuditRepository) ListByRequestID(ctx context.Context, requestID string) ([]*request.TransitionRecord, error) {
	query := `
		SELECT id, request_id, actor_id, level, action_type,
			previous_status, new_status, comment, created_at
		FROM approval_audit
		WHERE request_id = ?
		ORDER BY id ASC
	`

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, requestID)
	if err != nil {
		r.logger.Error("Failed to list audit records",
			zap.String("request_id", requestID), zap.Error(err))
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer rows.Close()

	var records []*request.TransitionRecord
	for rows.Next() {
		var rec request.TransitionRecord
		var prev, next string
		err := rows.Scan(
			&rec.ID,
			&rec.RequestID,
			&rec.ActorID,
			&rec.Level,
			&rec.ActionType,
			&prev,
			&next,
			&rec.Comment,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan audit record: %w", err)
		}
		rec.PreviousStatus = request.Status(prev)
		rec.NewStatus = request.Status(next)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit records: %w", err)
	}

	return records, nil
}

// Verify interface compliance
var _ port.AuditRepository = (*AuditRepository)(nil)
