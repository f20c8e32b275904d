// Package engine implements the approval workflow engine: submission with
// auto-approval, per-level decisions with permission and confidentiality
// gating, and soft deletion. One engine serves all request kinds; the
// differences between the flows live in the workflow policy tables.
package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hrops/approval-engine/internal/application/dispatcher"
	"github.com/hrops/approval-engine/internal/application/port"
	"github.com/hrops/approval-engine/internal/domain/event"
	"github.com/hrops/approval-engine/internal/domain/request"
	"github.com/hrops/approval-engine/internal/workflow"
)

// autoApproveComment marks the synthetic decisions of the auto-approval path
const autoApproveComment = "auto-approved"

// SubmitResult is the outcome of a submission
type SubmitResult struct {
	Request      *request.ApprovalRequest
	AutoApproved bool
}

// Engine owns every state transition of an approval request. Mutations are
// serialized per request id and persisted transactionally; event dispatch
// happens after commit and never affects the committed transition.
type Engine struct {
	requests port.RequestRepository
	audit    port.AuditRepository
	tx       port.TransactionManager
	oracle   port.PermissionOracle
	configs  map[request.Kind]*workflow.Config
	policy   *workflow.Policy
	events   dispatcher.Dispatcher
	logger   *zap.Logger
	locks    *keyedMutex
	now      func() time.Time
}

// Option configures the engine
type Option func(*Engine)

// WithDispatcher sets the event dispatcher for post-commit emission
func WithDispatcher(d dispatcher.Dispatcher) Option {
	return func(e *Engine) {
		e.events = d
	}
}

// WithClock overrides the engine's time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates an approval engine over the given storage, oracle and policy
func New(
	requests port.RequestRepository,
	audit port.AuditRepository,
	tx port.TransactionManager,
	oracle port.PermissionOracle,
	configs map[request.Kind]*workflow.Config,
	logger *zap.Logger,
	opts ...Option,
) *Engine {
	e := &Engine{
		requests: requests,
		audit:    audit,
		tx:       tx,
		oracle:   oracle,
		configs:  configs,
		policy:   workflow.NewPolicy(configs),
		logger:   logger,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Policy exposes the confidentiality policy so read-path callers can filter
// listings; the engine itself gates writes only.
func (e *Engine) Policy() *workflow.Policy {
	return e.policy
}

// Submit creates a new request. A requester holding an auto-approving
// position gets every configured level populated with a synthetic approval
// and the request comes back final; no permission check runs on that path.
func (e *Engine) Submit(ctx context.Context, kind request.Kind, requesterID string, payload json.RawMessage) (*SubmitResult, error) {
	cfg, ok := e.configs[kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", request.ErrInvalidInput, kind)
	}
	if requesterID == "" {
		return nil, fmt.Errorf("%w: requester id is empty", request.ErrInvalidInput)
	}

	position, err := e.oracle.PositionOf(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("resolve requester position: %w", err)
	}

	now := e.now()
	confidential := e.policy.IsConfidential(position, kind)
	req := request.New(uuid.NewString(), kind, requesterID, position, payload, confidential, now)

	autoApproved := cfg.AutoApproves(position)
	if autoApproved {
		for level := 1; level <= cfg.Levels; level++ {
			req.SetDecision(level, &request.Decision{
				ApproverID: requesterID,
				Action:     request.ActionApprove,
				Comment:    autoApproveComment,
				DecidedAt:  now,
			})
		}
		req.Status = request.StatusApproved
	}

	err = e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.requests.Create(txCtx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		if err := e.audit.Create(txCtx, &request.TransitionRecord{
			RequestID:  req.ID,
			ActorID:    requesterID,
			ActionType: request.AuditActionSubmit,
			NewStatus:  request.StatusPending,
			CreatedAt:  now,
		}); err != nil {
			return fmt.Errorf("create audit record: %w", err)
		}

		// The auto path records one approval per level so the trail reads
		// the same as a manually approved request.
		if autoApproved {
			prev := request.StatusPending
			for level := 1; level <= cfg.Levels; level++ {
				next := request.StatusApproved
				if level < cfg.Levels {
					next = request.StatusLevel1Approved
				}
				if err := e.audit.Create(txCtx, &request.TransitionRecord{
					RequestID:      req.ID,
					ActorID:        requesterID,
					Level:          level,
					ActionType:     request.AuditActionApprove,
					PreviousStatus: prev,
					NewStatus:      next,
					Comment:        autoApproveComment,
					CreatedAt:      now,
				}); err != nil {
					return fmt.Errorf("create audit record: %w", err)
				}
				prev = next
			}
		}

		return nil
	})
	if err != nil {
		e.logger.Error("Failed to submit request",
			zap.String("kind", kind.String()),
			zap.String("requester_id", requesterID),
			zap.Error(err))
		return nil, err
	}

	e.logger.Info("Request submitted",
		zap.String("request_id", req.ID),
		zap.String("kind", kind.String()),
		zap.String("status", req.Status.String()),
		zap.Bool("confidential", confidential),
		zap.Bool("auto_approved", autoApproved))

	e.emit(ctx, event.New(event.TypeSubmitted, req.ID, kind.String(), requesterID, map[string]interface{}{
		"status":        req.Status.String(),
		"confidential":  confidential,
		"auto_approved": autoApproved,
	}))
	if autoApproved {
		e.emit(ctx, event.New(event.TypeFinalized, req.ID, kind.String(), requesterID, map[string]interface{}{
			"status":        request.StatusApproved.String(),
			"auto_approved": true,
			"requester_id":  requesterID,
		}))
	} else {
		e.emit(ctx, event.New(event.TypeReviewPending, req.ID, kind.String(), requesterID, map[string]interface{}{
			"level":        1,
			"confidential": confidential,
		}))
	}

	return &SubmitResult{Request: req, AutoApproved: autoApproved}, nil
}

// Decide records one approver's verdict at a level. Checks run in a fixed
// order: existence, finality, level validity, permission, confidentiality.
// Holding the level's permission does not bypass the confidentiality gate.
func (e *Engine) Decide(ctx context.Context, requestID string, level int, actorID string, action request.Action, comment string) (*request.ApprovalRequest, error) {
	if !action.IsValid() {
		return nil, fmt.Errorf("%w: unknown action %q", request.ErrInvalidInput, action)
	}
	if actorID == "" {
		return nil, fmt.Errorf("%w: actor id is empty", request.ErrInvalidInput)
	}

	unlock := e.locks.Lock(requestID)
	defer unlock()

	req, err := e.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil || req.Deleted() {
		return nil, request.ErrNotFound
	}
	if req.Final() {
		return nil, request.ErrAlreadyFinal
	}

	cfg, ok := e.configs[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: unknown kind %q", request.ErrInvalidInput, req.Kind)
	}

	switch {
	case level < 1 || level > cfg.Levels:
		return nil, fmt.Errorf("%w: level %d not configured for %s", request.ErrWrongLevel, level, req.Kind)
	case level == 1 && req.Status != request.StatusPending:
		return nil, fmt.Errorf("%w: level 1 already decided", request.ErrWrongLevel)
	case level == 2 && req.Status == request.StatusPending:
		return nil, request.ErrLevel1Incomplete
	case level == 2 && req.Status != request.StatusLevel1Approved:
		return nil, fmt.Errorf("%w: status %s", request.ErrWrongLevel, req.Status)
	}

	key := cfg.PermissionKey(level)
	allowed, err := e.oracle.HasPermission(ctx, actorID, key)
	if err != nil {
		return nil, fmt.Errorf("check permission %s: %w", key, err)
	}
	if !allowed {
		return nil, request.NewForbidden(request.ReasonPermission)
	}

	if req.Confidential {
		position, err := e.oracle.PositionOf(ctx, actorID)
		if err != nil {
			return nil, fmt.Errorf("resolve actor position: %w", err)
		}
		if !e.policy.MayActOnConfidential(position, req.Kind, level) {
			return nil, request.NewForbidden(request.ReasonConfidentiality)
		}
	}

	now := e.now()
	decision := &request.Decision{
		ApproverID: actorID,
		Action:     action,
		Comment:    comment,
		DecidedAt:  now,
	}

	fromStatus := req.Status
	var toStatus request.Status
	switch {
	case action == request.ActionReject:
		toStatus = request.StatusRejected
	case level == cfg.FinalLevel():
		toStatus = request.StatusApproved
	default:
		toStatus = request.StatusLevel1Approved
	}

	actionType := request.AuditActionApprove
	if action == request.ActionReject {
		actionType = request.AuditActionReject
	}

	err = e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.requests.RecordDecision(txCtx, requestID, level, decision, fromStatus, toStatus); err != nil {
			return err
		}

		if err := e.audit.Create(txCtx, &request.TransitionRecord{
			RequestID:      requestID,
			ActorID:        actorID,
			Level:          level,
			ActionType:     actionType,
			PreviousStatus: fromStatus,
			NewStatus:      toStatus,
			Comment:        comment,
			CreatedAt:      now,
		}); err != nil {
			return fmt.Errorf("create audit record: %w", err)
		}

		return nil
	})
	if err != nil {
		e.logger.Error("Failed to record decision",
			zap.String("request_id", requestID),
			zap.Int("level", level),
			zap.String("actor_id", actorID),
			zap.Error(err))
		return nil, err
	}

	req.SetDecision(level, decision)
	req.Status = toStatus
	req.UpdatedAt = now

	e.logger.Info("Decision recorded",
		zap.String("request_id", requestID),
		zap.Int("level", level),
		zap.String("action", action.String()),
		zap.String("status", toStatus.String()))

	e.emit(ctx, event.New(event.TypeDecided, requestID, req.Kind.String(), actorID, map[string]interface{}{
		"level":           level,
		"action":          action.String(),
		"comment":         comment,
		"previous_status": fromStatus.String(),
		"status":          toStatus.String(),
		"requester_id":    req.RequesterID,
	}))
	switch {
	case toStatus.IsTerminal():
		e.emit(ctx, event.New(event.TypeFinalized, requestID, req.Kind.String(), actorID, map[string]interface{}{
			"status":        toStatus.String(),
			"auto_approved": false,
			"requester_id":  req.RequesterID,
		}))
	case toStatus == request.StatusLevel1Approved:
		e.emit(ctx, event.New(event.TypeReviewPending, requestID, req.Kind.String(), actorID, map[string]interface{}{
			"level":        level + 1,
			"confidential": req.Confidential,
		}))
	}

	return req, nil
}

// SoftDelete marks a request deleted without touching its status. The actor
// needs the kind's manage grant, and for confidential requests the
// gating-level override as well.
func (e *Engine) SoftDelete(ctx context.Context, requestID, actorID string) error {
	if actorID == "" {
		return fmt.Errorf("%w: actor id is empty", request.ErrInvalidInput)
	}

	unlock := e.locks.Lock(requestID)
	defer unlock()

	req, err := e.requests.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return request.ErrNotFound
	}
	if req.Deleted() {
		return request.ErrAlreadyDeleted
	}

	cfg, ok := e.configs[req.Kind]
	if !ok {
		return fmt.Errorf("%w: unknown kind %q", request.ErrInvalidInput, req.Kind)
	}

	allowed, err := e.oracle.HasPermission(ctx, actorID, cfg.ManageKey)
	if err != nil {
		return fmt.Errorf("check permission %s: %w", cfg.ManageKey, err)
	}
	if !allowed {
		return request.NewForbidden(request.ReasonPermission)
	}

	if req.Confidential {
		position, err := e.oracle.PositionOf(ctx, actorID)
		if err != nil {
			return fmt.Errorf("resolve actor position: %w", err)
		}
		if !e.policy.MayActOnConfidential(position, req.Kind, cfg.GatingLevel) {
			return request.NewForbidden(request.ReasonConfidentiality)
		}
	}

	now := e.now()
	err = e.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := e.requests.MarkDeleted(txCtx, requestID, actorID, now); err != nil {
			return err
		}

		if err := e.audit.Create(txCtx, &request.TransitionRecord{
			RequestID:      requestID,
			ActorID:        actorID,
			ActionType:     request.AuditActionSoftDelete,
			PreviousStatus: req.Status,
			NewStatus:      req.Status,
			CreatedAt:      now,
		}); err != nil {
			return fmt.Errorf("create audit record: %w", err)
		}

		return nil
	})
	if err != nil {
		e.logger.Error("Failed to soft delete request",
			zap.String("request_id", requestID),
			zap.String("actor_id", actorID),
			zap.Error(err))
		return err
	}

	e.logger.Info("Request soft deleted",
		zap.String("request_id", requestID),
		zap.String("actor_id", actorID))

	e.emit(ctx, event.New(event.TypeDeleted, requestID, req.Kind.String(), actorID, map[string]interface{}{
		"status": req.Status.String(),
	}))

	return nil
}

// Get returns a request by id, including soft-deleted ones. Reads are not
// confidentiality-filtered; callers apply Policy() where listings need it.
func (e *Engine) Get(ctx context.Context, requestID string) (*request.ApprovalRequest, error) {
	req, err := e.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, request.ErrNotFound
	}
	return req, nil
}

// List returns requests matching the filter
func (e *Engine) List(ctx context.Context, filter port.ListFilter) ([]*request.ApprovalRequest, error) {
	return e.requests.List(ctx, filter)
}

// AuditTrail returns the ordered transition records of a request
func (e *Engine) AuditTrail(ctx context.Context, requestID string) ([]*request.TransitionRecord, error) {
	req, err := e.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, request.ErrNotFound
	}
	return e.audit.ListByRequestID(ctx, requestID)
}

// emit dispatches an event asynchronously when a dispatcher is configured
func (e *Engine) emit(ctx context.Context, evt *event.Event) {
	if e.events != nil {
		e.events.DispatchAsync(ctx, evt)
	}
}
