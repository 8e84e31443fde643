package world

import "sync"

// Metrics tracks counters of the generation and meshing scheduler. A nil
// *Metrics discards all updates.
type Metrics struct {
	mu sync.Mutex
	s  MetricsSnapshot
}

// MetricsSnapshot is a copy of the counters of a Metrics.
type MetricsSnapshot struct {
	// Requested counts Generate and Update events accepted for generation.
	Requested uint64
	// Dropped counts events dropped because the chunk was already present or
	// being generated.
	Dropped uint64
	// Generated counts chunks whose voxels were applied.
	Generated uint64
	// Failed counts generation units that returned an error or panicked.
	Failed uint64
	// Removed counts chunks evicted by Remove events.
	Removed uint64
	// MeshBuilt counts meshes handed to the mesh sink.
	MeshBuilt uint64
	// MeshDiscarded counts meshes thrown away because the chunk changed or was
	// removed while the mesh was being built.
	MeshDiscarded uint64
	// MeshFailed counts mesh units that returned an error or panicked.
	MeshFailed uint64
	// Backlog is the number of generation requests waiting to be dispatched.
	Backlog int
	// Generating is the number of chunks with a generation in flight.
	Generating int
}

// NewMetrics creates an empty metrics registry.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) update(f func(s *MetricsSnapshot)) {
	if m == nil {
		return
	}
	m.mu.Lock()
	f(&m.s)
	m.mu.Unlock()
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.s
}
