package host

import "time"

// DefaultApplyEvery is the minimum interval between pushes of the draw state
// to the renderer.
const DefaultApplyEvery = 80 * time.Millisecond

// DrawMask is a per-point draw state (1 = draw, 0 = hidden) updated
// incrementally from index lists. Only entries touched by the previous or
// the new list are written, and the apply hook runs at most once per
// ApplyEvery so it can be called every frame.
type DrawMask struct {
	ApplyEvery time.Duration

	state       []uint8
	last        []uint32
	apply       func(state []uint8)
	lastApplied time.Time
	dirty       bool
}

// NewDrawMask creates a mask for n points with every point hidden. apply may
// be nil.
func NewDrawMask(n int, applyEvery time.Duration, apply func(state []uint8)) *DrawMask {
	if n < 0 {
		n = 0
	}
	return &DrawMask{
		ApplyEvery: applyEvery,
		state:      make([]uint8, n),
		apply:      apply,
	}
}

// Len returns the number of points the mask covers.
func (m *DrawMask) Len() int {
	return len(m.state)
}

// State returns the mask. Callers must treat it as read-only.
func (m *DrawMask) State() []uint8 {
	return m.state
}

// Drawn returns the number of points currently marked.
func (m *DrawMask) Drawn() int {
	return len(m.last)
}

// Dirty reports whether the state changed since the last apply.
func (m *DrawMask) Dirty() bool {
	return m.dirty
}

// Set hides the previously drawn points, marks indices, and applies the
// state when ApplyEvery has elapsed since the last apply. Out-of-range
// indices are ignored. It reports whether the apply hook ran.
func (m *DrawMask) Set(indices []uint32, now time.Time) bool {
	for _, idx := range m.last {
		m.state[idx] = 0
	}
	m.last = m.last[:0]
	n := uint32(len(m.state))
	for _, idx := range indices {
		if idx < n {
			m.state[idx] = 1
			m.last = append(m.last, idx)
		}
	}
	m.dirty = true

	if m.lastApplied.IsZero() || now.Sub(m.lastApplied) >= m.ApplyEvery {
		m.flush(now)
		return true
	}
	return false
}

// Flush applies the state immediately if it changed since the last apply.
func (m *DrawMask) Flush(now time.Time) {
	if m.dirty {
		m.flush(now)
	}
}

func (m *DrawMask) flush(now time.Time) {
	if m.apply != nil {
		m.apply(m.state)
	}
	m.lastApplied = now
	m.dirty = false
}

// Reset resizes the mask to n points and hides everything. Used when the
// point set is replaced.
func (m *DrawMask) Reset(n int) {
	if n < 0 {
		n = 0
	}
	if cap(m.state) >= n {
		m.state = m.state[:n]
		clear(m.state)
	} else {
		m.state = make([]uint8, n)
	}
	m.last = m.last[:0]
	m.dirty = true
}
