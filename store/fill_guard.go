package store

import (
	"hash/fnv"
	"sync"
)

const fillGuardStripes = 64

// fillGuard keeps read-through loads from caching values that a concurrent
// write already superseded. Writers bump the generation of the user after
// the database changes; a load only fills the cache if the generation it
// saw before reading the database is still current.
type fillGuard struct {
	stripes [fillGuardStripes]fillStripe
}

type fillStripe struct {
	mu         sync.Mutex
	generation uint64
}

func (g *fillGuard) stripe(userID string) *fillStripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &g.stripes[h.Sum32()%fillGuardStripes]
}

// generation returns the current generation of userID.
func (g *fillGuard) generation(userID string) uint64 {
	st := g.stripe(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.generation
}

// invalidate marks every load of userID started so far as stale.
func (g *fillGuard) invalidate(userID string) {
	st := g.stripe(userID)
	st.mu.Lock()
	st.generation++
	st.mu.Unlock()
}

// fillIfCurrent runs fill while holding the stripe, unless userID was
// invalidated since generation was taken. It reports whether fill ran.
func (g *fillGuard) fillIfCurrent(userID string, generation uint64, fill func()) bool {
	st := g.stripe(userID)
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.generation != generation {
		return false
	}
	fill()
	return true
}
