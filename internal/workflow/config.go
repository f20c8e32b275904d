// Package workflow holds the static per-kind approval policy: level counts,
// permission keys, auto-approval and confidentiality position sets. The three
// financial request flows of the portal differ only in these tables.
package workflow

import (
	"fmt"

	"github.com/hrops/approval-engine/internal/domain/request"
)

// MaxLevels is the deepest approval ladder any kind may configure
const MaxLevels = 2

// Config is the static approval policy for one request kind
type Config struct {
	Kind request.Kind

	// Levels is the number of sequential sign-offs required (1 or 2)
	Levels int

	// PermissionKeys maps a level to the grant required to decide at it
	PermissionKeys map[int]string

	// ManageKey is the grant required for soft deletion
	ManageKey string

	// AutoApprovePositions submit requests that bypass manual review
	AutoApprovePositions map[request.Position]bool

	// ConfidentialPositions make a requester's submissions confidential
	ConfidentialPositions map[request.Position]bool

	// GatingLevel is the level at which confidentiality is enforced
	GatingLevel int

	// OverridePositions maps a level to the positions allowed to act on
	// confidential requests at that level. Levels without an entry are
	// unrestricted.
	OverridePositions map[int]map[request.Position]bool
}

// Validate checks the config for internal consistency
func (c *Config) Validate() error {
	if !c.Kind.IsValid() {
		return fmt.Errorf("unknown kind %q", c.Kind)
	}
	if c.Levels < 1 || c.Levels > MaxLevels {
		return fmt.Errorf("kind %s: levels must be 1 or %d, got %d", c.Kind, MaxLevels, c.Levels)
	}
	if c.GatingLevel < 1 || c.GatingLevel > c.Levels {
		return fmt.Errorf("kind %s: gating level %d outside configured levels", c.Kind, c.GatingLevel)
	}
	for level := 1; level <= c.Levels; level++ {
		if c.PermissionKeys[level] == "" {
			return fmt.Errorf("kind %s: no permission key for level %d", c.Kind, level)
		}
	}
	if c.ManageKey == "" {
		return fmt.Errorf("kind %s: no manage permission key", c.Kind)
	}
	for level := range c.OverridePositions {
		if level < 1 || level > c.Levels {
			return fmt.Errorf("kind %s: override set for unconfigured level %d", c.Kind, level)
		}
	}
	return nil
}

// PermissionKey returns the grant required to decide at the given level
func (c *Config) PermissionKey(level int) string {
	return c.PermissionKeys[level]
}

// AutoApproves returns true if the position submits auto-approved requests
func (c *Config) AutoApproves(pos request.Position) bool {
	return c.AutoApprovePositions[pos]
}

// FinalLevel returns the last configured level
func (c *Config) FinalLevel() int {
	return c.Levels
}

// Defaults returns the built-in policy tables for all request kinds.
// Override sets intentionally differ per kind; liquidation keeps its single
// senior reviewer.
func Defaults() map[request.Kind]*Config {
	return map[request.Kind]*Config{
		request.KindCashAdvance: {
			Kind:   request.KindCashAdvance,
			Levels: 2,
			PermissionKeys: map[int]string{
				1: "cash_advance.approve.l1",
				2: "cash_advance.approve.l2",
			},
			ManageKey: "cash_advance.manage",
			AutoApprovePositions: map[request.Position]bool{
				request.PositionGeneralManager: true,
			},
			ConfidentialPositions: map[request.Position]bool{
				request.PositionDepartmentManager: true,
				request.PositionOperationsManager: true,
				request.PositionGeneralManager:    true,
			},
			GatingLevel: 2,
			OverridePositions: map[int]map[request.Position]bool{
				2: {
					request.PositionHRManager:         true,
					request.PositionAccountingManager: true,
					request.PositionOperationsManager: true,
				},
			},
		},
		request.KindOvertime: {
			Kind:   request.KindOvertime,
			Levels: 1,
			PermissionKeys: map[int]string{
				1: "overtime.approve.l1",
			},
			ManageKey: "overtime.manage",
			AutoApprovePositions: map[request.Position]bool{
				request.PositionGeneralManager: true,
				request.PositionHRManager:      true,
			},
			ConfidentialPositions: map[request.Position]bool{
				request.PositionDepartmentManager: true,
				request.PositionHRManager:         true,
			},
			GatingLevel: 1,
			OverridePositions: map[int]map[request.Position]bool{
				1: {
					request.PositionGeneralManager: true,
					request.PositionHRManager:      true,
				},
			},
		},
		request.KindLiquidation: {
			Kind:   request.KindLiquidation,
			Levels: 2,
			PermissionKeys: map[int]string{
				1: "liquidation.approve.l1",
				2: "liquidation.approve.l2",
			},
			ManageKey: "liquidation.manage",
			AutoApprovePositions: map[request.Position]bool{
				request.PositionGeneralManager: true,
			},
			ConfidentialPositions: map[request.Position]bool{
				request.PositionDepartmentManager: true,
				request.PositionAccountingManager: true,
				request.PositionGeneralManager:    true,
			},
			GatingLevel: 2,
			OverridePositions: map[int]map[request.Position]bool{
				2: {
					request.PositionFinanceDirector: true,
				},
			},
		},
	}
}
