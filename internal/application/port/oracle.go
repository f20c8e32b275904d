package port

import (
	"context"

	"github.com/hrops/approval-engine/internal/domain/request"
)

// PermissionOracle answers permission and position queries. The portal's
// identity store sits behind this interface; the engine never queries it
// directly.
type PermissionOracle interface {
	// HasPermission reports whether the user holds the grant named by key
	HasPermission(ctx context.Context, userID, key string) (bool, error)

	// PositionOf returns the user's organizational position. Unknown users
	// are an error, not an empty position.
	PositionOf(ctx context.Context, userID string) (request.Position, error)
}
