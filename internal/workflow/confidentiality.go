package workflow

import "github.com/hrops/approval-engine/internal/domain/request"

// Policy answers confidentiality questions against the static per-kind
// tables. Pure lookups; no I/O.
type Policy struct {
	configs map[request.Kind]*Config
}

// NewPolicy creates a confidentiality policy over the given kind configs
func NewPolicy(configs map[request.Kind]*Config) *Policy {
	return &Policy{configs: configs}
}

// IsConfidential returns true when a request submitted from the given
// position is confidential for the kind
func (p *Policy) IsConfidential(pos request.Position, kind request.Kind) bool {
	cfg, ok := p.configs[kind]
	if !ok {
		return false
	}
	return cfg.ConfidentialPositions[pos]
}

// MayActOnConfidential returns true when the position may act on a
// confidential request of the kind at the given level. Levels without a
// declared override set are unrestricted.
func (p *Policy) MayActOnConfidential(pos request.Position, kind request.Kind, level int) bool {
	cfg, ok := p.configs[kind]
	if !ok {
		return false
	}
	set, restricted := cfg.OverridePositions[level]
	if !restricted {
		return true
	}
	return set[pos]
}

// GatingLevel returns the level at which confidentiality is enforced for the
// kind, or 0 for an unknown kind
func (p *Policy) GatingLevel(kind request.Kind) int {
	cfg, ok := p.configs[kind]
	if !ok {
		return 0
	}
	return cfg.GatingLevel
}
