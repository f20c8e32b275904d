package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/hrops/approval-engine/internal/application/port"
	"github.com/hrops/approval-engine/internal/domain/request"
)

// DirectoryRepository implements port.PermissionOracle over the portal's
// user directory tables. Positions come from the users table, grants from
// user_permissions.
type DirectoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDirectoryRepository creates a new directory repository
func NewDirectoryRepository(db *sql.DB, logger *zap.Logger) port.PermissionOracle {
	return &DirectoryRepository{
		db:     db,
		logger: logger,
	}
}

// HasPermission reports whether the user holds the named grant
func (r *DirectoryRepository) HasPermission(ctx context.Context, userID, key string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM user_permissions WHERE user_id = ? AND permission_key = ?)`

	var exists bool
	err := executorFor(ctx, r.db).QueryRowContext(ctx, query, userID, key).Scan(&exists)
	if err != nil {
		r.logger.Error("Failed to check permission",
			zap.String("user_id", userID), zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("failed to check permission: %w", err)
	}

	return exists, nil
}

// PositionOf returns the user's organizational position
func (r *DirectoryRepository) PositionOf(ctx context.Context, userID string) (request.Position, error) {
	query := `SELECT position FROM users WHERE id = ?`

	var position string
	err := executorFor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(&position)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: unknown user %q", request.ErrInvalidInput, userID)
	}
	if err != nil {
		r.logger.Error("Failed to look up position",
			zap.String("user_id", userID), zap.Error(err))
		return "", fmt.Errorf("failed to look up position: %w", err)
	}

	pos := request.Position(position)
	if !pos.IsValid() {
		return "", fmt.Errorf("%w: user %q has unrecognized position %q", request.ErrInvalidInput, userID, position)
	}

	return pos, nil
}

// Verify interface compliance
var _ port.PermissionOracle = (*DirectoryRepository)(nil)
