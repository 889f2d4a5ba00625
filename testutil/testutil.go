package testutil

import (
	"math/rand"
	"sort"
	"sync"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64n returns a pseudo-random number in [0,n). n must be positive.
func (r *RNG) Uint64n(n uint64) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.uint64nLocked(n)
}

func (r *RNG) uint64nLocked(n uint64) uint64 {
	if n&(n-1) == 0 {
		return r.rand.Uint64() & (n - 1)
	}
	limit := ^uint64(0) - ^uint64(0)%n
	for {
		v := r.rand.Uint64()
		if v < limit {
			return v % n
		}
	}
}

// Indices returns count distinct indices in [0,universe), sorted ascending.
// count is capped at universe.
func (r *RNG) Indices(count int, universe uint64) []uint64 {
	if uint64(count) > universe {
		count = int(universe)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[uint64]struct{}, count)
	out := make([]uint64, 0, count)
	for len(out) < count {
		v := r.uint64nLocked(universe)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// OpKind is a mutating bitmap operation.
type OpKind uint8

const (
	OpSet OpKind = iota
	OpClear
	OpToggle
)

func (k OpKind) String() string {
	switch k {
	case OpSet:
		return "set"
	case OpClear:
		return "clear"
	case OpToggle:
		return "toggle"
	default:
		return "unknown"
	}
}

// Op is one operation of a random stream.
type Op struct {
	Kind  OpKind
	Index uint64
}

// Ops returns n random operations on indices in [0,universe).
// Sets and toggles are twice as likely as clears, so streams tend to grow.
func (r *RNG) Ops(n int, universe uint64) []Op {
	r.mu.Lock()
	defer r.mu.Unlock()

	ops := make([]Op, n)
	for i := range ops {
		var kind OpKind
		switch r.rand.Intn(5) {
		case 0, 1:
			kind = OpSet
		case 2, 3:
			kind = OpToggle
		default:
			kind = OpClear
		}
		ops[i] = Op{Kind: kind, Index: r.uint64nLocked(universe)}
	}
	return ops
}

// Model is a map-backed reference bitmap.
//
// It follows the same length rules as a growable bitmap with blocks of
// Width bits: set and toggle grow the length to a whole number of blocks
// covering the index, clear past the length is rejected.
type Model struct {
	Width uint64
	bits  map[uint64]bool
	len   uint64
}

// NewModel creates an empty model for the given block width.
func NewModel(width uint64) *Model {
	return &Model{
		Width: width,
		bits:  make(map[uint64]bool),
	}
}

// Len returns the modeled length in bits.
func (m *Model) Len() uint64 { return m.len }

// Get returns the bit and whether index is in bounds.
func (m *Model) Get(index uint64) (bool, bool) {
	if index >= m.len {
		return false, false
	}
	return m.bits[index], true
}

// Apply performs op and reports whether it was in bounds.
// Only clears can be out of bounds.
func (m *Model) Apply(op Op) bool {
	switch op.Kind {
	case OpSet:
		m.grow(op.Index)
		m.bits[op.Index] = true
	case OpToggle:
		m.grow(op.Index)
		m.bits[op.Index] = !m.bits[op.Index]
	case OpClear:
		if op.Index >= m.len {
			return false
		}
		delete(m.bits, op.Index)
	}
	return true
}

// ShrinkTo keeps the first blocks blocks.
func (m *Model) ShrinkTo(blocks uint64) {
	if n := blocks * m.Width; n < m.len {
		m.len = n
		for i := range m.bits {
			if i >= n {
				delete(m.bits, i)
			}
		}
	}
}

// Ones returns the set indices in ascending order.
func (m *Model) Ones() []uint64 {
	out := make([]uint64, 0, len(m.bits))
	for i, v := range m.bits {
		if v {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (m *Model) grow(index uint64) {
	if index >= m.len {
		m.len = (index/m.Width + 1) * m.Width
	}
}
