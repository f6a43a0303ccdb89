package migration

import (
	"fmt"
)

// SourcePolicy infers the region a migration moves away from
type SourcePolicy interface {
	// Source returns the source region for a migration to target
	Source(target string) string
	// Migrated records a successful migration
	Migrated(req Request)
}

// PairComplement treats the deployment as living in one of a fixed pair of regions
// The source is whichever member of the pair is not the target; non-pair targets come from Primary
type PairComplement struct {
	Primary   string
	Secondary string
}

func (p PairComplement) Source(target string) string {
	if target == p.Primary {
		return p.Secondary
	}
	return p.Primary
}

func (PairComplement) Migrated(Request) {}

// TrackedDeployment follows the current deployment region across successful migrations
type TrackedDeployment struct {
	current string
}

func NewTrackedDeployment(initial string) *TrackedDeployment {
	return &TrackedDeployment{current: initial}
}

func (t *TrackedDeployment) Source(string) string {
	return t.current
}

func (t *TrackedDeployment) Migrated(req Request) {
	t.current = req.TargetRegion
}

// Current returns the tracked deployment region
func (t *TrackedDeployment) Current() string {
	return t.current
}

// ParseSourcePolicy builds a policy by name: "pair" or "tracked"
// Tracked starts from primary
func ParseSourcePolicy(name, primary, secondary string) (SourcePolicy, error) {
	switch name {
	case "pair":
		return PairComplement{Primary: primary, Secondary: secondary}, nil
	case "tracked":
		return NewTrackedDeployment(primary), nil
	}
	return nil, fmt.Errorf("unknown source policy %q (want pair or tracked)", name)
}
