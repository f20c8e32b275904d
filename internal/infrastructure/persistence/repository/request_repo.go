package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hrops/approval-engine/internal/application/port"
	"github.com/hrops/approval-engine/internal/domain/request"
)

const requestColumns = `
	id, kind, requester_id, requester_position, payload, status, confidential,
	level1_approver_id, level1_action, level1_comment, level1_decided_at,
	level2_approver_id, level2_action, level2_comment, level2_decided_at,
	deleted_at, deleted_by, created_at, updated_at
`

// RequestRepository implements port.RequestRepository over sqlite
type RequestRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *sql.DB, logger *zap.Logger) port.RequestRepository {
	return &RequestRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new approval request, including any synthetic decisions
// recorded on the auto-approval path
func (r *RequestRepository) Create(ctx context.Context, req *request.ApprovalRequest) error {
	query := `
		INSERT INTO approval_requests (
			id, kind, requester_id, requester_position, payload, status, confidential,
			level1_approver_id, level1_action, level1_comment, level1_decided_at,
			level2_approver_id, level2_action, level2_comment, level2_decided_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	l1 := decisionColumns(req.Level1)
	l2 := decisionColumns(req.Level2)

	_, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		req.ID,
		req.Kind.String(),
		req.RequesterID,
		req.RequesterPosition.String(),
		string(req.Payload),
		req.Status.String(),
		req.Confidential,
		l1.approverID, l1.action, l1.comment, l1.decidedAt,
		l2.approverID, l2.action, l2.comment, l2.decidedAt,
		req.CreatedAt,
		req.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create request", zap.String("id", req.ID), zap.Error(err))
		return fmt.Errorf("failed to create request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by id, including soft-deleted rows
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*request.ApprovalRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM approval_requests WHERE id = ?`

	req, err := scanRequest(executorFor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get request", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	return req, nil
}

// RecordDecision stores a decision and advances the status in one guarded
// write. The status guard makes the write a compare-and-swap: a request whose
// status moved since it was read is reported as a conflict, never silently
// overwritten.
func (r *RequestRepository) RecordDecision(ctx context.Context, id string, level int, d *request.Decision, fromStatus, toStatus request.Status) error {
	if level < 1 || level > 2 {
		return fmt.Errorf("%w: level %d out of range", request.ErrInvalidInput, level)
	}

	query := fmt.Sprintf(`
		UPDATE approval_requests
		SET level%d_approver_id = ?, level%d_action = ?, level%d_comment = ?, level%d_decided_at = ?,
			status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND deleted_at IS NULL
			AND level%d_action IS NULL
	`, level, level, level, level, level)

	result, err := executorFor(ctx, r.db).ExecContext(ctx, query,
		d.ApproverID,
		d.Action.String(),
		d.Comment,
		d.DecidedAt,
		toStatus.String(),
		d.DecidedAt,
		id,
		fromStatus.String(),
	)
	if err != nil {
		r.logger.Error("Failed to record decision",
			zap.String("id", id), zap.Int("level", level), zap.Error(err))
		return fmt.Errorf("failed to record decision: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return r.conflictFor(ctx, id)
	}

	return nil
}

// MarkDeleted sets the soft-delete marker with a guard against double deletion
func (r *RequestRepository) MarkDeleted(ctx context.Context, id, actorID string, at time.Time) error {
	query := `
		UPDATE approval_requests
		SET deleted_at = ?, deleted_by = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := executorFor(ctx, r.db).ExecContext(ctx, query, at, actorID, at, id)
	if err != nil {
		r.logger.Error("Failed to mark request deleted", zap.String("id", id), zap.Error(err))
		return fmt.Errorf("failed to mark request deleted: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		existing, err := r.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return request.ErrNotFound
		}
		return request.ErrAlreadyDeleted
	}

	return nil
}

// List retrieves requests matching the filter, newest first
func (r *RequestRepository) List(ctx context.Context, filter port.ListFilter) ([]*request.ApprovalRequest, error) {
	var conditions []string
	var args []interface{}

	if filter.Kind != nil {
		conditions = append(conditions, "kind = ?")
		args = append(args, filter.Kind.String())
	}
	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, filter.Status.String())
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, "requester_id = ?")
		args = append(args, filter.RequesterID)
	}
	if !filter.IncludeDeleted {
		conditions = append(conditions, "deleted_at IS NULL")
	}

	query := `SELECT ` + requestColumns + ` FROM approval_requests`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := executorFor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list requests", zap.Error(err))
		return nil, fmt.Errorf("failed to list requests: %w", err)
	}
	defer rows.Close()

	var requests []*request.ApprovalRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate requests: %w", err)
	}

	return requests, nil
}

// conflictFor maps a zero-row guarded write to the right typed error
func (r *RequestRepository) conflictFor(ctx context.Context, id string) error {
	existing, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil || existing.Deleted() {
		return request.ErrNotFound
	}
	return request.ErrAlreadyFinal
}

// scanner covers *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRequest(s scanner) (*request.ApprovalRequest, error) {
	var req request.ApprovalRequest
	var kind, position, status, payload string
	var l1Approver, l1Action, l1Comment sql.NullString
	var l1DecidedAt sql.NullTime
	var l2Approver, l2Action, l2Comment sql.NullString
	var l2DecidedAt sql.NullTime
	var deletedAt sql.NullTime
	var deletedBy sql.NullString

	err := s.Scan(
		&req.ID,
		&kind,
		&req.RequesterID,
		&position,
		&payload,
		&status,
		&req.Confidential,
		&l1Approver, &l1Action, &l1Comment, &l1DecidedAt,
		&l2Approver, &l2Action, &l2Comment, &l2DecidedAt,
		&deletedAt,
		&deletedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	req.Kind = request.Kind(kind)
	req.RequesterPosition = request.Position(position)
	req.Status = request.Status(status)
	if payload != "" {
		req.Payload = []byte(payload)
	}
	if l1Action.Valid {
		req.Level1 = &request.Decision{
			ApproverID: l1Approver.String,
			Action:     request.Action(l1Action.String),
			Comment:    l1Comment.String,
			DecidedAt:  l1DecidedAt.Time,
		}
	}
	if l2Action.Valid {
		req.Level2 = &request.Decision{
			ApproverID: l2Approver.String,
			Action:     request.Action(l2Action.String),
			Comment:    l2Comment.String,
			DecidedAt:  l2DecidedAt.Time,
		}
	}
	if deletedAt.Valid {
		req.DeletedAt = &deletedAt.Time
	}
	req.DeletedBy = deletedBy.String

	return &req, nil
}

// decisionCols holds the nullable column values of one decision
type decisionCols struct {
	approverID sql.NullString
	action     sql.NullString
	comment    sql.NullString
	decidedAt  sql.NullTime
}

func decisionColumns(d *request.Decision) decisionCols {
	if d == nil {
		return decisionCols{}
	}
	return decisionCols{
		approverID: sql.NullString{String: d.ApproverID, Valid: true},
		action:     sql.NullString{String: d.Action.String(), Valid: true},
		comment:    sql.NullString{String: d.Comment, Valid: true},
		decidedAt:  sql.NullTime{Time: d.DecidedAt, Valid: true},
	}
}

// Verify interface compliance
var _ port.RequestRepository = (*RequestRepository)(nil)
