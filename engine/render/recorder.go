package render

import (
	"sync"

	"github.com/dm-vev/voxelworld/engine/world"
)

// Recorder is a Sink that keeps the latest batches of every chunk in memory.
// It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	chunks  map[world.ChunkPos][]Batch
	uploads int
	removes int
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{chunks: make(map[world.ChunkPos][]Batch)}
}

func (r *Recorder) Upload(pos world.ChunkPos, batches []Batch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chunks[pos] = batches
	r.uploads++
}

func (r *Recorder) Remove(pos world.ChunkPos) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.chunks, pos)
	r.removes++
}

// Batches returns the batches last uploaded for the chunk at pos.
func (r *Recorder) Batches(pos world.ChunkPos) ([]Batch, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.chunks[pos]
	return b, ok
}

// Positions returns the positions of all chunks with batches, ordered by Y,
// then Z, then X.
func (r *Recorder) Positions() []world.ChunkPos {
	r.mu.Lock()
	defer r.mu.Unlock()
	return sortedPositions(r.chunks)
}

// Stats returns the number of uploads and removals so far, and the number of
// quads currently held.
func (r *Recorder) Stats() (uploads, removes, quads int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, batches := range r.chunks {
		for _, b := range batches {
			quads += b.Quads()
		}
	}
	return r.uploads, r.removes, quads
}
