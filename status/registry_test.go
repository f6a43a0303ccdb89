package status

import (
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricMapCachesPointer(t *testing.T) {
	reg := NewRegistry()
	a := reg.Ints.Get(KeyPolls)
	b := reg.Ints.Get(KeyPolls)
	require.Same(t, a, b)

	a.Add(3)
	assert.Equal(t, int64(3), b.Load())
}

func TestMetricMapConcurrentGet(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Ints.Get(KeyDrops).Add(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(8), reg.Ints.Get(KeyDrops).Load())
	assert.Equal(t, 1, reg.Ints.Count())
}

func TestRangeSortedOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Ints.Get("b")
	reg.Ints.Get("a")
	reg.Ints.Get("c")

	var keys []string
	reg.Ints.Range(func(key string, _ *atomic.Int64) { keys = append(keys, key) })
	assert.Equal(t, []string{"a", "b", "c"}, keys)
}

func TestCollectorExportsRegistry(t *testing.T) {
	reg := NewRegistry()
	reg.Ints.Get(KeyMigrations).Store(2)
	reg.Floats.Get(KeySavingsTotal).Set(1051.2)
	reg.Bools.Get(KeySourceConnected).Store(true)
	reg.Strings.Get(KeyState).Store("IDLE")

	c := NewCollector(reg)
	assert.Equal(t, 4, testutil.CollectAndCount(c))

	promReg := prometheus.NewRegistry()
	require.NoError(t, promReg.Register(c))

	expected := `
# HELP spotglobe_migration_success spotglobe status migration.success
# TYPE spotglobe_migration_success gauge
spotglobe_migration_success 2
`
	require.NoError(t, testutil.CollectAndCompare(c, strings.NewReader(expected), "spotglobe_migration_success"))
}

func TestMetricName(t *testing.T) {
	assert.Equal(t, "spotglobe_live_malformed_frames", MetricName(KeyMalformed))
}
