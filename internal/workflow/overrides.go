package workflow

import (
	"fmt"

	"github.com/hrops/approval-engine/internal/domain/request"
)

// PolicyOverride adjusts one kind's position sets from configuration. Empty
// slices leave the built-in defaults untouched. Level counts and permission
// keys are not overridable; they are part of the engine contract.
type PolicyOverride struct {
	AutoApprovePositions  []string `mapstructure:"auto_approve_positions"`
	ConfidentialPositions []string `mapstructure:"confidential_positions"`
	OverridePositions     []string `mapstructure:"override_positions"`
}

// Load merges configuration overrides over the default policy tables and
// validates the result. Override positions apply at the kind's gating level.
func Load(overrides map[string]PolicyOverride) (map[request.Kind]*Config, error) {
	configs := Defaults()

	for name, ov := range overrides {
		kind := request.Kind(name)
		cfg, ok := configs[kind]
		if !ok {
			return nil, fmt.Errorf("workflow override for unknown kind %q", name)
		}

		if len(ov.AutoApprovePositions) > 0 {
			set, err := toPositionSet(ov.AutoApprovePositions)
			if err != nil {
				return nil, fmt.Errorf("kind %s auto_approve_positions: %w", name, err)
			}
			cfg.AutoApprovePositions = set
		}
		if len(ov.ConfidentialPositions) > 0 {
			set, err := toPositionSet(ov.ConfidentialPositions)
			if err != nil {
				return nil, fmt.Errorf("kind %s confidential_positions: %w", name, err)
			}
			cfg.ConfidentialPositions = set
		}
		if len(ov.OverridePositions) > 0 {
			set, err := toPositionSet(ov.OverridePositions)
			if err != nil {
				return nil, fmt.Errorf("kind %s override_positions: %w", name, err)
			}
			cfg.OverridePositions[cfg.GatingLevel] = set
		}
	}

	for _, cfg := range configs {
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	return configs, nil
}

func toPositionSet(names []string) (map[request.Position]bool, error) {
	set := make(map[request.Position]bool, len(names))
	for _, name := range names {
		pos := request.Position(name)
		if !pos.IsValid() {
			return nil, fmt.Errorf("unknown position %q", name)
		}
		set[pos] = true
	}
	return set, nil
}
