package ledger

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/anonymise-pipeline/internal/domain"
)

const (
	// MinSurrogateID starts the surrogate id range well above zero: users
	// might think there is something special about low-numbered ids.
	MinSurrogateID = 1000

	// maxDrawAttempts caps how often a fresh candidate is drawn for one
	// sample before giving up. Exceeding it means the id space is exhausted
	// or the ledger is corrupt.
	maxDrawAttempts = 1000000
)

// Allocator issues surrogate sample identifiers backed by a used-id ledger.
type Allocator struct {
	store Store
	log   *logrus.Logger
	draw  func() int64
}

// NewAllocator creates an allocator on the given ledger store.
func NewAllocator(store Store, log *logrus.Logger) *Allocator {
	return &Allocator{store: store, log: log, draw: drawSurrogateID}
}

// drawSurrogateID draws a candidate uniformly from [MinSurrogateID, MaxInt64].
func drawSurrogateID() int64 {
	return MinSurrogateID + rand.Int64N(math.MaxInt64-MinSurrogateID+1)
}

// Allocate returns a one-to-one mapping from each original sample id to a
// newly issued surrogate id. Every surrogate is distinct from every id ever
// committed to the ledger and from every other surrogate issued in the same
// call. All new ids are committed in a single ledger transaction before the
// mapping is returned; a concurrent invocation can never observe a partial
// allocation.
func (a *Allocator) Allocate(ctx context.Context, sampleIDs []string) (map[string]int64, error) {
	ordered := make([]string, len(sampleIDs))
	copy(ordered, sampleIDs)
	sort.Strings(ordered)

	mapping := make(map[string]int64, len(ordered))
	err := a.store.Reserve(ctx, func(used map[int64]bool) ([]int64, error) {
		newIDs := make([]int64, 0, len(ordered))
		for _, sampleID := range ordered {
			surrogate, err := a.drawFresh(used)
			if err != nil {
				return nil, err
			}
			used[surrogate] = true
			mapping[sampleID] = surrogate
			newIDs = append(newIDs, surrogate)
		}
		return newIDs, nil
	})
	if err != nil {
		var pe *domain.PipelineError
		if errors.As(err, &pe) {
			return nil, err
		}
		return nil, domain.WrapError(domain.CategoryResource, err, "surrogate id ledger failure")
	}

	a.log.WithField("count", len(mapping)).Info("Surrogate ids allocated and committed to ledger")
	return mapping, nil
}

// drawFresh draws candidates until one is neither in the ledger nor already
// drawn in this call.
func (a *Allocator) drawFresh(used map[int64]bool) (int64, error) {
	for attempt := 0; attempt < maxDrawAttempts; attempt++ {
		candidate := a.draw()
		if !used[candidate] {
			return candidate, nil
		}
	}
	return 0, domain.NewError(domain.CategoryExhaustion,
		"could not draw a fresh surrogate id after %d attempts", maxDrawAttempts)
}
