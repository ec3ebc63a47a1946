package services

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBillNumberFormat(t *testing.T) {
	g := NewBillNumberGenerator("WD", testLocation)
	g.now = func() time.Time { return time.Date(2025, 3, 15, 9, 5, 7, 0, testLocation) }

	n := g.Next()

	require.Len(t, n, len("WD")+14+3)
	assert.True(t, strings.HasPrefix(n, "WD20250315090507"))
	suffix := n[len(n)-3:]
	assert.GreaterOrEqual(t, suffix, "100")
	assert.LessOrEqual(t, suffix, "999")
}

func TestBillNumberUniqueWithinSecond(t *testing.T) {
	g := NewBillNumberGenerator("WD", testLocation)
	g.now = func() time.Time { return time.Date(2025, 3, 15, 9, 5, 7, 0, testLocation) }

	const workers, perWorker = 9, 100
	var (
		mu   sync.Mutex
		seen = map[string]struct{}{}
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				n := g.Next()
				mu.Lock()
				seen[n] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}

func TestBillNumberResetsOnNextSecond(t *testing.T) {
	g := NewBillNumberGenerator("X", testLocation)
	current := time.Date(2025, 3, 15, 9, 5, 7, 0, testLocation)
	g.now = func() time.Time { return current }

	first := g.Next()
	current = current.Add(time.Second)
	second := g.Next()

	assert.True(t, strings.HasPrefix(first, "X20250315090507"))
	assert.True(t, strings.HasPrefix(second, "X20250315090508"))
	assert.Len(t, g.issued, 1)
}
