package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/hrops/approval-engine/internal/application/port"
	"github.com/hrops/approval-engine/internal/domain/request"
	"github.com/hrops/approval-engine/internal/engine"
	"github.com/hrops/approval-engine/pkg/utils"
)

// actorHeader carries the authenticated caller's id. Authentication itself
// happens upstream; the engine only needs the identity.
const actorHeader = "X-Actor-ID"

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine *engine.Engine
	logger Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(eng *engine.Engine, logger Logger) *Handlers {
	return &Handlers{
		engine: eng,
		logger: logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Reason  string      `json:"reason,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// SubmitRequestBody is the payload for POST /api/v1/requests
type SubmitRequestBody struct {
	Kind        string          `json:"kind" binding:"required"`
	RequesterID string          `json:"requester_id" binding:"required"`
	Payload     json.RawMessage `json:"payload"`
}

// DecisionBody is the payload for POST /api/v1/requests/:id/decisions
type DecisionBody struct {
	Level   int    `json:"level" binding:"required"`
	ActorID string `json:"actor_id" binding:"required"`
	Action  string `json:"action" binding:"required"`
	Comment string `json:"comment"`
}

// ListRequestsQuery holds query parameters for GET /api/v1/requests
type ListRequestsQuery struct {
	Kind           string `form:"kind"`
	Status         string `form:"status"`
	RequesterID    string `form:"requester_id"`
	IncludeDeleted bool   `form:"include_deleted"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

// RequestResponse represents an approval request in API responses
type RequestResponse struct {
	ID                string            `json:"id"`
	Kind              string            `json:"kind"`
	RequesterID       string            `json:"requester_id"`
	RequesterPosition string            `json:"requester_position"`
	Payload           json.RawMessage   `json:"payload,omitempty"`
	Status            string            `json:"status"`
	Confidential      bool              `json:"confidential"`
	Level1            *DecisionResponse `json:"level1,omitempty"`
	Level2            *DecisionResponse `json:"level2,omitempty"`
	DeletedAt         *string           `json:"deleted_at,omitempty"`
	DeletedBy         string            `json:"deleted_by,omitempty"`
	CreatedAt         string            `json:"created_at"`
	UpdatedAt         string            `json:"updated_at"`
}

// DecisionResponse represents one recorded decision in API responses
type DecisionResponse struct {
	ApproverID string `json:"approver_id"`
	Action     string `json:"action"`
	Comment    string `json:"comment,omitempty"`
	DecidedAt  string `json:"decided_at"`
}

// AuditRecordResponse represents one audit trail entry in API responses
type AuditRecordResponse struct {
	ID             int64  `json:"id"`
	ActorID        string `json:"actor_id"`
	Level          int    `json:"level,omitempty"`
	ActionType     string `json:"action_type"`
	PreviousStatus string `json:"previous_status,omitempty"`
	NewStatus      string `json:"new_status"`
	Comment        string `json:"comment,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.1.0",
		},
	})
}

// SubmitRequest handles POST /api/v1/requests
func (h *Handlers) SubmitRequest(c *gin.Context) {
	var body SubmitRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Error("Invalid submit payload", "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := utils.ValidateID(body.RequesterID); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	result, err := h.engine.Submit(c.Request.Context(), request.Kind(body.Kind), body.RequesterID, body.Payload)
	if err != nil {
		h.writeError(c, err, "failed to submit request")
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data: gin.H{
			"request":       toRequestResponse(result.Request),
			"auto_approved": result.AutoApproved,
		},
	})
}

// RecordDecision handles POST /api/v1/requests/:id/decisions
func (h *Handlers) RecordDecision(c *gin.Context) {
	id := c.Param("id")
	var body DecisionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		h.logger.Error("Invalid decision payload", "id", id, "error", err)
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body"})
		return
	}
	if err := utils.ValidateID(body.ActorID); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}
	if err := utils.ValidateComment(body.Comment); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return
	}

	req, err := h.engine.Decide(c.Request.Context(), id, body.Level, body.ActorID,
		request.Action(body.Action), utils.SanitizeString(body.Comment))
	if err != nil {
		h.writeError(c, err, "failed to record decision")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// DeleteRequest handles DELETE /api/v1/requests/:id
func (h *Handlers) DeleteRequest(c *gin.Context) {
	id := c.Param("id")
	actorID := c.GetHeader(actorHeader)
	if err := utils.ValidateID(actorID); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing or invalid " + actorHeader + " header"})
		return
	}

	if err := h.engine.SoftDelete(c.Request.Context(), id, actorID); err != nil {
		h.writeError(c, err, "failed to delete request")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// GetRequest handles GET /api/v1/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	id := c.Param("id")

	req, err := h.engine.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to get request")
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: toRequestResponse(req)})
}

// ListRequests handles GET /api/v1/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var query ListRequestsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}

	filter := port.ListFilter{
		RequesterID:    query.RequesterID,
		IncludeDeleted: query.IncludeDeleted,
		Limit:          query.Limit,
		Offset:         query.Offset,
	}
	if query.Kind != "" {
		kind := request.Kind(query.Kind)
		if !kind.IsValid() {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown kind"})
			return
		}
		filter.Kind = &kind
	}
	if query.Status != "" {
		status := request.Status(query.Status)
		if !status.IsValid() {
			c.JSON(http.StatusBadRequest, Response{Success: false, Error: "unknown status"})
			return
		}
		filter.Status = &status
	}

	requests, err := h.engine.List(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err, "failed to list requests")
		return
	}

	responses := make([]RequestResponse, 0, len(requests))
	for _, req := range requests {
		responses = append(responses, toRequestResponse(req))
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// GetAuditTrail handles GET /api/v1/requests/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	id := c.Param("id")

	records, err := h.engine.AuditTrail(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err, "failed to get audit trail")
		return
	}

	responses := make([]AuditRecordResponse, 0, len(records))
	for _, rec := range records {
		responses = append(responses, AuditRecordResponse{
			ID:             rec.ID,
			ActorID:        rec.ActorID,
			Level:          rec.Level,
			ActionType:     rec.ActionType,
			PreviousStatus: rec.PreviousStatus.String(),
			NewStatus:      rec.NewStatus.String(),
			Comment:        rec.Comment,
			CreatedAt:      rec.CreatedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: responses})
}

// writeError maps engine errors to HTTP status codes
func (h *Handlers) writeError(c *gin.Context, err error, fallback string) {
	var forbidden *request.ForbiddenError
	switch {
	case errors.Is(err, request.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: "request not found"})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "forbidden", Reason: string(forbidden.Reason)})
	case errors.Is(err, request.ErrForbidden):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: "forbidden"})
	case errors.Is(err, request.ErrAlreadyFinal),
		errors.Is(err, request.ErrWrongLevel),
		errors.Is(err, request.ErrLevel1Incomplete),
		errors.Is(err, request.ErrAlreadyDeleted):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, request.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error(fallback, "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: fallback})
	}
}

func toRequestResponse(req *request.ApprovalRequest) RequestResponse {
	resp := RequestResponse{
		ID:                req.ID,
		Kind:              req.Kind.String(),
		RequesterID:       req.RequesterID,
		RequesterPosition: req.RequesterPosition.String(),
		Payload:           req.Payload,
		Status:            req.Status.String(),
		Confidential:      req.Confidential,
		Level1:            toDecisionResponse(req.Level1),
		Level2:            toDecisionResponse(req.Level2),
		DeletedBy:         req.DeletedBy,
		CreatedAt:         req.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         req.UpdatedAt.Format(time.RFC3339),
	}
	if req.DeletedAt != nil {
		deletedAt := req.DeletedAt.Format(time.RFC3339)
		resp.DeletedAt = &deletedAt
	}
	return resp
}

func toDecisionResponse(d *request.Decision) *DecisionResponse {
	if d == nil {
		return nil
	}
	return &DecisionResponse{
		ApproverID: d.ApproverID,
		Action:     d.Action.String(),
		Comment:    d.Comment,
		DecidedAt:  d.DecidedAt.Format(time.RFC3339),
	}
}
