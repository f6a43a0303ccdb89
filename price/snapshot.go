package price

import (
	"errors"
	"fmt"
	"math"
)

// RegionPrice is one region's hourly spot price
// ContextID and Latency are optional fields carried by the oracle store
type RegionPrice struct {
	Region    string  `json:"region"`
	Price     float64 `json:"price"`
	ContextID string  `json:"contextId,omitempty"`
	Latency   int     `json:"latency,omitempty"`
}

// Snapshot is an immutable set of region prices in feed order
// Region identifiers are unique and prices are non-negative
type Snapshot struct {
	entries []RegionPrice
	index   map[string]int
}

// ParseSnapshot validates raw feed entries into a Snapshot
// The returned snapshot is always usable: invalid entries (empty region, negative or
// non-finite price, repeated region) are left out and reported together in err
func ParseSnapshot(prices []RegionPrice) (Snapshot, error) {
	s := Snapshot{
		entries: make([]RegionPrice, 0, len(prices)),
		index:   make(map[string]int, len(prices)),
	}

	var errs []error
	for i, p := range prices {
		switch {
		case p.Region == "":
			errs = append(errs, fmt.Errorf("entry %d: empty region", i))
		case math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0:
			errs = append(errs, fmt.Errorf("entry %d: region %s has invalid price %v", i, p.Region, p.Price))
		default:
			if _, dup := s.index[p.Region]; dup {
				errs = append(errs, fmt.Errorf("entry %d: duplicate region %s, keeping first", i, p.Region))
				continue
			}
			s.index[p.Region] = len(s.entries)
			s.entries = append(s.entries, p)
		}
	}
	return s, errors.Join(errs...)
}

// MustSnapshot builds a snapshot from region/price pairs, panics on invalid input
func MustSnapshot(pairs ...any) Snapshot {
	if len(pairs)%2 != 0 {
		panic("price: MustSnapshot needs region/price pairs")
	}
	prices := make([]RegionPrice, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		prices = append(prices, RegionPrice{Region: pairs[i].(string), Price: pairs[i+1].(float64)})
	}
	s, err := ParseSnapshot(prices)
	if err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of regions
func (s Snapshot) Len() int { return len(s.entries) }

// Empty reports a snapshot with no regions, treated as "no data yet"
func (s Snapshot) Empty() bool { return len(s.entries) == 0 }

// Get returns the price entry for region
func (s Snapshot) Get(region string) (RegionPrice, bool) {
	i, ok := s.index[region]
	if !ok {
		return RegionPrice{}, false
	}
	return s.entries[i], true
}

// Price returns the hourly price for region
func (s Snapshot) Price(region string) (float64, bool) {
	p, ok := s.Get(region)
	return p.Price, ok
}

// Prices returns a copy of the entries in feed order
func (s Snapshot) Prices() []RegionPrice {
	out := make([]RegionPrice, len(s.entries))
	copy(out, s.entries)
	return out
}

// Regions returns region identifiers in feed order
func (s Snapshot) Regions() []string {
	out := make([]string, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.Region
	}
	return out
}

// IsCheap reports whether region is priced under threshold
func (s Snapshot) IsCheap(region string, threshold float64) bool {
	p, ok := s.Price(region)
	return ok && p < threshold
}
