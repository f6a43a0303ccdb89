package price

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectDropsThreshold(t *testing.T) {
	tests := []struct {
		name     string
		prev     float64
		cur      float64
		wantDrop bool
	}{
		{"sharp drop", 0.05, 0.039, true},
		{"mild drop", 0.05, 0.041, false},
		{"exactly 80 percent", 1.0, 0.8, false},
		{"rise", 0.05, 0.06, false},
		{"to zero", 0.05, 0, true},
		{"from zero", 0, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			drops := DetectDrops(MustSnapshot("US-East", tc.prev), MustSnapshot("US-East", tc.cur), 0.8)
			if tc.wantDrop {
				require.Len(t, drops, 1)
				assert.Equal(t, DropEvent{Region: "US-East", PreviousPrice: tc.prev, CurrentPrice: tc.cur}, drops[0])
			} else {
				assert.Empty(t, drops)
			}
		})
	}
}

func TestDetectDropsNeedsPreviousEntry(t *testing.T) {
	assert.Empty(t, DetectDrops(Snapshot{}, MustSnapshot("US-East", 0.01), 0.8))
	assert.Empty(t, DetectDrops(MustSnapshot("EU-West", 0.05), MustSnapshot("US-East", 0.01), 0.8))
}

func TestPickDropPolicies(t *testing.T) {
	prev := MustSnapshot("US-East", 0.05, "EU-West", 0.06, "AP-South", 0.05)
	cur := MustSnapshot("US-East", 0.039, "EU-West", 0.03, "AP-South", 0.025)
	cands := DetectDrops(prev, cur, 0.8)
	require.Len(t, cands, 3)

	tests := []struct {
		policy TieBreak
		want   string
	}{
		{TieFirst, "US-East"},
		{TieLargestDrop, "AP-South"},
		{TieLowestPrice, "AP-South"},
	}
	for _, tc := range tests {
		t.Run(string(tc.policy), func(t *testing.T) {
			got, ok := PickDrop(cands, tc.policy)
			require.True(t, ok)
			assert.Equal(t, tc.want, got.Region)
		})
	}

	_, ok := PickDrop(nil, TieFirst)
	assert.False(t, ok)
}

func TestPickDropEqualScoresKeepEarlier(t *testing.T) {
	cands := []DropEvent{
		{Region: "a", PreviousPrice: 0.05, CurrentPrice: 0.02},
		{Region: "b", PreviousPrice: 0.05, CurrentPrice: 0.02},
	}
	for _, p := range []TieBreak{TieFirst, TieLargestDrop, TieLowestPrice} {
		got, _ := PickDrop(cands, p)
		assert.Equal(t, "a", got.Region, string(p))
	}
}

func TestParseTieBreak(t *testing.T) {
	p, err := ParseTieBreak("largest-drop")
	require.NoError(t, err)
	assert.Equal(t, TieLargestDrop, p)

	_, err = ParseTieBreak("random")
	assert.Error(t, err)
}
