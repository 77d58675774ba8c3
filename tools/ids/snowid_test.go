package ids

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerator_Monotonic(t *testing.T) {
	req := require.New(t)
	g := NewGenerator(7)

	prev := g.Next()
	for i := 0; i < 10000; i++ {
		id := g.Next()
		req.Greater(id, prev)
		prev = id
	}
}

func TestGenerator_StringsSortLikeNumbers(t *testing.T) {
	req := require.New(t)
	g := NewGenerator(3)

	var out []string
	for i := 0; i < 500; i++ {
		out = append(out, g.NextString())
	}
	req.True(sort.StringsAreSorted(out))
	req.Len(out[0], idWidth)
}

func TestGenerator_ConcurrentUnique(t *testing.T) {
	g := NewGenerator(1)
	var (
		mu   sync.Mutex
		seen = map[int64]struct{}{}
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				id := g.Next()
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	require.Len(t, seen, 8000)
}

func TestTime_RoundTrip(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(1)
	g.now = func() time.Time { return fixed }

	id := g.Next()
	require.Equal(t, fixed, Time(id))

	parsed, err := ParseString(g.NextString())
	require.NoError(t, err)
	require.Equal(t, fixed, Time(parsed))
}
