package ledger

import (
	"context"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonymise-pipeline/internal/domain"
)

// memStore is an in-memory Store fake with the same serialization
// guarantee as the real backends.
type memStore struct {
	mu   sync.Mutex
	used map[int64]bool
}

func newMemStore(preexisting ...int64) *memStore {
	used := make(map[int64]bool, len(preexisting))
	for _, id := range preexisting {
		used[id] = true
	}
	return &memStore{used: used}
}

func (m *memStore) Reserve(_ context.Context, fn func(used map[int64]bool) ([]int64, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := make(map[int64]bool, len(m.used))
	for id := range m.used {
		snapshot[id] = true
	}
	newIDs, err := fn(snapshot)
	if err != nil {
		return err
	}
	for _, id := range newIDs {
		m.used[id] = true
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func TestAllocate_DistinctAndDisjointFromLedger(t *testing.T) {
	preexisting := make([]int64, 0, 50)
	for i := int64(0); i < 50; i++ {
		preexisting = append(preexisting, MinSurrogateID+i)
	}
	store := newMemStore(preexisting...)
	allocator := NewAllocator(store, testLogger())

	samples := []string{"S1", "S2", "S3", "S4", "S5"}
	mapping, err := allocator.Allocate(context.Background(), samples)
	require.NoError(t, err)
	require.Len(t, mapping, len(samples))

	seen := make(map[int64]bool)
	for _, surrogate := range mapping {
		assert.GreaterOrEqual(t, surrogate, int64(MinSurrogateID))
		assert.False(t, seen[surrogate], "surrogates must be pairwise distinct")
		seen[surrogate] = true
	}
	for _, id := range preexisting {
		assert.False(t, seen[id], "surrogates must be disjoint from the ledger")
	}
	assert.Len(t, store.used, len(preexisting)+len(samples), "ledger must contain exactly M+N ids after commit")
}

func TestAllocate_TwoCallsNeverOverlap(t *testing.T) {
	store := newMemStore()
	allocator := NewAllocator(store, testLogger())

	first, err := allocator.Allocate(context.Background(), []string{"S1", "S2"})
	require.NoError(t, err)
	second, err := allocator.Allocate(context.Background(), []string{"S3", "S4"})
	require.NoError(t, err)

	for _, a := range first {
		for _, b := range second {
			assert.NotEqual(t, a, b)
		}
	}
}

func TestAllocate_RetriesCollisions(t *testing.T) {
	store := newMemStore(MinSurrogateID)
	allocator := NewAllocator(store, testLogger())

	// First draw always collides with the pre-existing id, second is fresh.
	draws := []int64{MinSurrogateID, MinSurrogateID + 1}
	allocator.draw = func() int64 {
		next := draws[0]
		if len(draws) > 1 {
			draws = draws[1:]
		}
		return next
	}

	mapping, err := allocator.Allocate(context.Background(), []string{"S1"})
	require.NoError(t, err)
	assert.Equal(t, int64(MinSurrogateID+1), mapping["S1"])
}

func TestAllocate_ExhaustionIsFatal(t *testing.T) {
	store := newMemStore(MinSurrogateID)
	allocator := NewAllocator(store, testLogger())
	// Every draw collides; the retry bound must trip.
	allocator.draw = func() int64 { return MinSurrogateID }

	_, err := allocator.Allocate(context.Background(), []string{"S1"})
	require.Error(t, err)
	assert.Equal(t, domain.CategoryExhaustion.ExitCode(), domain.ExitCode(err))
	assert.Len(t, store.used, 1, "no partial mapping may be committed")
}

func TestAllocate_ConcurrentAllocationsNeverCollide(t *testing.T) {
	store := newMemStore()
	const workers = 8

	var wg sync.WaitGroup
	results := make([]map[string]int64, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			allocator := NewAllocator(store, testLogger())
			mapping, err := allocator.Allocate(context.Background(), []string{"A", "B", "C"})
			assert.NoError(t, err)
			results[w] = mapping
		}(w)
	}
	wg.Wait()

	seen := make(map[int64]int)
	for _, mapping := range results {
		for _, surrogate := range mapping {
			seen[surrogate]++
		}
	}
	for surrogate, count := range seen {
		assert.Equal(t, 1, count, "surrogate %d issued more than once", surrogate)
	}
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.WarnLevel)
	return log
}
