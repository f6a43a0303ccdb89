package price

import (
	"fmt"
)

// DropEvent is a region whose price fell sharply since the previous snapshot
type DropEvent struct {
	Region        string
	PreviousPrice float64
	CurrentPrice  float64
}

// Ratio returns current/previous
func (d DropEvent) Ratio() float64 {
	if d.PreviousPrice == 0 {
		return 0
	}
	return d.CurrentPrice / d.PreviousPrice
}

// TieBreak selects one drop when several regions qualify in the same tick
type TieBreak string

const (
	// TieFirst keeps the first candidate in feed order
	TieFirst TieBreak = "first"
	// TieLargestDrop keeps the candidate with the largest relative fall
	TieLargestDrop TieBreak = "largest-drop"
	// TieLowestPrice keeps the cheapest candidate
	TieLowestPrice TieBreak = "lowest-price"
)

// ParseTieBreak validates a policy name
func ParseTieBreak(s string) (TieBreak, error) {
	switch t := TieBreak(s); t {
	case TieFirst, TieLargestDrop, TieLowestPrice:
		return t, nil
	}
	return "", fmt.Errorf("unknown tie-break policy %q (want first, largest-drop or lowest-price)", s)
}

// DetectDrops compares cur against the immediately preceding snapshot only
// A region qualifies iff it exists in both and cur.price < prev.price * ratio
// Candidates are returned in cur's feed order
func DetectDrops(prev, cur Snapshot, ratio float64) []DropEvent {
	var out []DropEvent
	for _, e := range cur.entries {
		old, ok := prev.Get(e.Region)
		if !ok {
			continue
		}
		if e.Price < old.Price*ratio {
			out = append(out, DropEvent{
				Region:        e.Region,
				PreviousPrice: old.Price,
				CurrentPrice:  e.Price,
			})
		}
	}
	return out
}

// PickDrop reduces candidates to the single surfaced drop
// Equal scores resolve to the earlier candidate so every policy is deterministic
func PickDrop(cands []DropEvent, policy TieBreak) (DropEvent, bool) {
	if len(cands) == 0 {
		return DropEvent{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		switch policy {
		case TieLargestDrop:
			if c.Ratio() < best.Ratio() {
				best = c
			}
		case TieLowestPrice:
			if c.CurrentPrice < best.CurrentPrice {
				best = c
			}
		}
	}
	return best, true
}
