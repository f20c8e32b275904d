package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hrops/approval-engine/internal/application/port"
	"github.com/hrops/approval-engine/internal/domain/request"
)

// testSchema mirrors the migration files; kept inline so the tests do not
// depend on the working directory.
const testSchema = `
CREATE TABLE approval_requests (
    id TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    requester_id TEXT NOT NULL,
    requester_position TEXT NOT NULL,
    payload TEXT NOT NULL DEFAULT '',
    status TEXT NOT NULL,
    confidential INTEGER NOT NULL DEFAULT 0,
    level1_approver_id TEXT,
    level1_action TEXT,
    level1_comment TEXT,
    level1_decided_at DATETIME,
    level2_approver_id TEXT,
    level2_action TEXT,
    level2_comment TEXT,
    level2_decided_at DATETIME,
    deleted_at DATETIME,
    deleted_by TEXT,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE approval_audit (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    request_id TEXT NOT NULL,
    actor_id TEXT NOT NULL,
    level INTEGER NOT NULL DEFAULT 0,
    action_type TEXT NOT NULL,
    previous_status TEXT NOT NULL DEFAULT '',
    new_status TEXT NOT NULL,
    comment TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE TABLE users (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    position TEXT NOT NULL
);

CREATE TABLE user_permissions (
    user_id TEXT NOT NULL,
    permission_key TEXT NOT NULL,
    PRIMARY KEY (user_id, permission_key)
);
`

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// One connection, or each pooled conn would see its own empty :memory: db
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func newTestRequest(id string) *request.ApprovalRequest {
	now := time.Now().UTC().Truncate(time.Second)
	return request.New(id, request.KindCashAdvance, "emp-1", request.PositionEmployee,
		[]byte(`{"amount":2500}`), false, now)
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	req := newTestRequest("req-1")
	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, req.ID, got.ID)
	assert.Equal(t, request.KindCashAdvance, got.Kind)
	assert.Equal(t, request.StatusPending, got.Status)
	assert.Equal(t, request.PositionEmployee, got.RequesterPosition)
	assert.JSONEq(t, `{"amount":2500}`, string(got.Payload))
	assert.Nil(t, got.Level1)
	assert.Nil(t, got.Level2)
	assert.False(t, got.Deleted())
}

func TestRequestRepository_GetByID_Missing(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())

	got, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRequestRepository_CreateWithSyntheticDecisions(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	req := newTestRequest("req-auto")
	req.Status = request.StatusApproved
	req.SetDecision(1, &request.Decision{ApproverID: "gm-1", Action: request.ActionApprove, Comment: "auto-approved", DecidedAt: now})
	req.SetDecision(2, &request.Decision{ApproverID: "gm-1", Action: request.ActionApprove, Comment: "auto-approved", DecidedAt: now})

	require.NoError(t, repo.Create(ctx, req))

	got, err := repo.GetByID(ctx, "req-auto")
	require.NoError(t, err)
	require.NotNil(t, got.Level1)
	require.NotNil(t, got.Level2)
	assert.Equal(t, "auto-approved", got.Level1.Comment)
	assert.Equal(t, request.ActionApprove, got.Level2.Action)
	assert.Equal(t, request.StatusApproved, got.Status)
}

func TestRequestRepository_RecordDecision(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestRequest("req-1")))

	d := &request.Decision{
		ApproverID: "lead-1",
		Action:     request.ActionApprove,
		Comment:    "within budget",
		DecidedAt:  time.Now().UTC().Truncate(time.Second),
	}
	err := repo.RecordDecision(ctx, "req-1", 1, d, request.StatusPending, request.StatusLevel1Approved)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, request.StatusLevel1Approved, got.Status)
	require.NotNil(t, got.Level1)
	assert.Equal(t, "lead-1", got.Level1.ApproverID)
	assert.Equal(t, "within budget", got.Level1.Comment)
}

func TestRequestRepository_RecordDecision_StatusGuard(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestRequest("req-1")))

	d := &request.Decision{ApproverID: "lead-1", Action: request.ActionApprove, DecidedAt: time.Now()}
	require.NoError(t, repo.RecordDecision(ctx, "req-1", 1, d, request.StatusPending, request.StatusLevel1Approved))

	// Second write with a stale expected status is rejected as a conflict
	err := repo.RecordDecision(ctx, "req-1", 1, d, request.StatusPending, request.StatusLevel1Approved)
	assert.ErrorIs(t, err, request.ErrAlreadyFinal)
}

func TestRequestRepository_RecordDecision_MissingRequest(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())

	d := &request.Decision{ApproverID: "lead-1", Action: request.ActionApprove, DecidedAt: time.Now()}
	err := repo.RecordDecision(context.Background(), "missing", 1, d, request.StatusPending, request.StatusLevel1Approved)
	assert.ErrorIs(t, err, request.ErrNotFound)
}

func TestRequestRepository_MarkDeleted(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newTestRequest("req-1")))

	at := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.MarkDeleted(ctx, "req-1", "admin-1", at))

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.True(t, got.Deleted())
	assert.Equal(t, "admin-1", got.DeletedBy)

	// Duplicate deletion surfaces as a typed error
	err = repo.MarkDeleted(ctx, "req-1", "admin-1", at)
	assert.ErrorIs(t, err, request.ErrAlreadyDeleted)

	err = repo.MarkDeleted(ctx, "missing", "admin-1", at)
	assert.ErrorIs(t, err, request.ErrNotFound)
}

func TestRequestRepository_List(t *testing.T) {
	db := openTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop())
	ctx := context.Background()

	first := newTestRequest("req-1")
	require.NoError(t, repo.Create(ctx, first))

	second := newTestRequest("req-2")
	second.Kind = request.KindOvertime
	second.RequesterID = "emp-2"
	require.NoError(t, repo.Create(ctx, second))

	deleted := newTestRequest("req-3")
	require.NoError(t, repo.Create(ctx, deleted))
	require.NoError(t, repo.MarkDeleted(ctx, "req-3", "admin-1", time.Now()))

	all, err := repo.List(ctx, port.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2, "deleted requests are excluded by default")

	withDeleted, err := repo.List(ctx, port.ListFilter{IncludeDeleted: true})
	require.NoError(t, err)
	assert.Len(t, withDeleted, 3)

	kind := request.KindOvertime
	byKind, err := repo.List(ctx, port.ListFilter{Kind: &kind})
	require.NoError(t, err)
	require.Len(t, byKind, 1)
	assert.Equal(t, "req-2", byKind[0].ID)

	byRequester, err := repo.List(ctx, port.ListFilter{RequesterID: "emp-2"})
	require.NoError(t, err)
	require.Len(t, byRequester, 1)
	assert.Equal(t, "req-2", byRequester[0].ID)
}

func TestAuditRepository_CreateAndList(t *testing.T) {
	db := openTestDB(t)
	requests := NewRequestRepository(db, zap.NewNop())
	audit := NewAuditRepository(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, requests.Create(ctx, newTestRequest("req-1")))

	now := time.Now().UTC().Truncate(time.Second)
	records := []*request.TransitionRecord{
		{
			RequestID:  "req-1",
			ActorID:    "emp-1",
			ActionType: request.AuditActionSubmit,
			NewStatus:  request.StatusPending,
			CreatedAt:  now,
		},
		{
			RequestID:      "req-1",
			ActorID:        "lead-1",
			Level:          1,
			ActionType:     request.AuditActionReject,
			PreviousStatus: request.StatusPending,
			NewStatus:      request.StatusRejected,
			Comment:        "insufficient funds",
			CreatedAt:      now,
		},
	}
	for _, rec := range records {
		require.NoError(t, audit.Create(ctx, rec))
		assert.NotZero(t, rec.ID)
	}

	got, err := audit.ListByRequestID(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, request.AuditActionSubmit, got[0].ActionType)
	assert.Equal(t, request.AuditActionReject, got[1].ActionType)
	assert.Equal(t, "insufficient funds", got[1].Comment)
	assert.Equal(t, request.StatusRejected, got[1].NewStatus)
}

func TestDirectoryRepository(t *testing.T) {
	db := openTestDB(t)
	dir := NewDirectoryRepository(db, zap.NewNop())
	ctx := context.Background()

	_, err := db.Exec(`INSERT INTO users (id, name, position) VALUES
		('hr-1', 'Dana', 'hr_manager'),
		('bad-1', 'Quinn', 'Senior HR Staff')`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO user_permissions (user_id, permission_key) VALUES
		('hr-1', 'overtime.approve.l1')`)
	require.NoError(t, err)

	pos, err := dir.PositionOf(ctx, "hr-1")
	require.NoError(t, err)
	assert.Equal(t, request.PositionHRManager, pos)

	_, err = dir.PositionOf(ctx, "ghost")
	assert.ErrorIs(t, err, request.ErrInvalidInput)

	// Free-form titles in the directory are rejected, not pattern-matched
	_, err = dir.PositionOf(ctx, "bad-1")
	assert.ErrorIs(t, err, request.ErrInvalidInput)

	ok, err := dir.HasPermission(ctx, "hr-1", "overtime.approve.l1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = dir.HasPermission(ctx, "hr-1", "overtime.manage")
	require.NoError(t, err)
	assert.False(t, ok)
}
