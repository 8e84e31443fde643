package world

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/mesh"
	"golang.org/x/time/rate"
)

// World streams chunks around its subjects. It generates chunks and builds
// their meshes on a shared worker pool and applies the results once per
// frame.
//
// All chunk and mesh state of a World is owned by the goroutine that calls
// Tick (or Run). Workers never touch it: they receive a copy of what they
// need and return a new value. Unless documented otherwise, methods of World
// must only be called from that goroutine or from functions passed to Exec.
type World struct {
	conf   Config
	ctx    context.Context
	cancel context.CancelFunc

	pool    pond.Pool
	limiter *rate.Limiter

	index      *SpatialIndex
	generating map[ChunkPos]*Record
	dirty      map[ChunkPos]*Record
	meshing    map[ChunkPos]*Record
	backlog    []*Record

	subjects []*Subject
	streamer Streamer

	mu     sync.Mutex
	queue  []execTask
	events []Event
	closed bool

	fps            atomic.Uint64
	lastBacklogLog time.Time

	closing chan struct{}
	once    sync.Once
	running sync.WaitGroup
}

type execTask struct {
	f    func(w *World)
	done chan struct{}
}

// Exec queues f to be run by the goroutine ticking the World at the start of
// the next frame. The channel returned is closed once f has run. Exec may be
// called from any goroutine. After Close, f is not run and the channel
// returned is closed immediately.
func (w *World) Exec(f func(w *World)) <-chan struct{} {
	done := make(chan struct{})
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		close(done)
		return done
	}
	w.queue = append(w.queue, execTask{f: f, done: done})
	return done
}

// Submit queues an event to be handled in the next frame. Submit may be
// called from any goroutine.
func (w *World) Submit(ev Event) {
	w.mu.Lock()
	w.events = append(w.events, ev)
	w.mu.Unlock()
}

// AddSubject starts streaming chunks around s.
func (w *World) AddSubject(s *Subject) {
	if slices.Contains(w.subjects, s) {
		return
	}
	w.subjects = append(w.subjects, s)
}

// RemoveSubject stops streaming chunks around s. Chunks already loaded for s
// stay loaded.
func (w *World) RemoveSubject(s *Subject) {
	w.subjects = slices.DeleteFunc(w.subjects, func(o *Subject) bool { return o == s })
}

// Subjects returns the subjects of the World.
func (w *World) Subjects() []*Subject {
	return slices.Clone(w.subjects)
}

// Index returns the spatial index holding the live chunks of the World.
func (w *World) Index() *SpatialIndex {
	return w.index
}

// Chunk returns the voxels of the chunk at pos, if it has been generated. The
// chunk returned must not be modified.
func (w *World) Chunk(pos ChunkPos) (*chunk.Chunk, bool) {
	r, ok := w.index.Lookup(pos)
	if !ok || r.chunk == nil {
		return nil, false
	}
	return r.chunk, true
}

// Mesh returns the latest mesh of the chunk at pos, if one has been built.
func (w *World) Mesh(pos ChunkPos) (*mesh.Buffers, bool) {
	r, ok := w.index.Lookup(pos)
	if !ok || r.mesh == nil {
		return nil, false
	}
	return r.mesh, true
}

// Generating checks if the chunk at pos is waiting for or in the middle of
// being generated.
func (w *World) Generating(pos ChunkPos) bool {
	_, ok := w.generating[pos]
	return ok
}

// Busy checks if any generation or mesh build is queued or in flight.
func (w *World) Busy() bool {
	return len(w.generating) > 0 || len(w.meshing) > 0 || len(w.dirty) > 0
}

// Len returns the number of live chunks.
func (w *World) Len() int {
	return w.index.Len()
}

// Metrics returns a snapshot of the scheduler counters. Metrics may be called
// from any goroutine.
func (w *World) Metrics() MetricsSnapshot {
	return w.conf.Metrics.Snapshot()
}

// Tick runs a single frame: queued functions and events are handled, subject
// movement is turned into requests, new work is dispatched to the worker pool
// and every unit of work that finished since the last frame is applied. Tick
// never waits for a unit of work to finish.
func (w *World) Tick() {
	w.mu.Lock()
	queue, events := w.queue, w.events
	w.queue, w.events = nil, nil
	w.mu.Unlock()

	for _, t := range queue {
		t.f(w)
		close(t.done)
	}
	for _, ev := range events {
		w.handle(ev)
	}
	for _, ev := range w.streamer.Collect(w.subjects, w.index) {
		w.handle(ev)
	}
	w.dispatch()
	w.pollGeneration()
	w.pollMeshing()
	w.remesh()

	w.conf.Metrics.update(func(s *MetricsSnapshot) {
		s.Backlog, s.Generating = len(w.backlog), len(w.generating)
	})
}

// handle applies a single event.
func (w *World) handle(ev Event) {
	switch ev.Kind {
	case EventGenerate:
		if w.index.Contains(ev.Pos) || w.Generating(ev.Pos) {
			w.conf.Metrics.update(func(s *MetricsSnapshot) { s.Dropped++ })
			return
		}
		w.request(newRecord(ev.Pos))
	case EventUpdate:
		if w.Generating(ev.Pos) {
			w.conf.Metrics.update(func(s *MetricsSnapshot) { s.Dropped++ })
			return
		}
		r, ok := w.index.Lookup(ev.Pos)
		if !ok {
			r = newRecord(ev.Pos)
		}
		w.request(r)
	case EventRemove:
		w.remove(ev.Pos)
	default:
		w.conf.Log.Warn("handle event: unknown event kind", "kind", ev.Kind, "X", ev.Pos[0], "Y", ev.Pos[1], "Z", ev.Pos[2])
	}
}

// request marks r as generating and places it in the backlog.
func (w *World) request(r *Record) {
	r.area = &GeneratingArea{Extent: r.pos.Extent()}
	w.generating[r.pos] = r
	w.backlog = append(w.backlog, r)
	w.conf.Metrics.update(func(s *MetricsSnapshot) { s.Requested++ })
}

// remove evicts the chunk at pos, whether it is live or being generated.
func (w *World) remove(pos ChunkPos) {
	if r, ok := w.generating[pos]; ok {
		r.removed = true
		delete(w.generating, pos)
	}
	r, ok := w.index.Remove(pos)
	if !ok {
		return
	}
	r.removed = true
	delete(w.dirty, pos)
	delete(w.meshing, pos)
	w.conf.Sink.RemoveMesh(pos)
	w.conf.Metrics.update(func(s *MetricsSnapshot) { s.Removed++ })
}

// dispatch starts generation for as many backlogged records as the rate
// limiter admits.
func (w *World) dispatch() {
	n := 0
	for ; n < len(w.backlog); n++ {
		r := w.backlog[n]
		if r.removed {
			continue
		}
		if !w.limiter.Allow() {
			break
		}
		w.startGeneration(r)
	}
	w.backlog = w.backlog[n:]
	if len(w.backlog) > 0 {
		w.warnBacklog()
	}
}

func (w *World) startGeneration(r *Record) {
	var (
		pos = r.pos
		gen = w.conf.Generator
		ctx = w.ctx
	)
	r.gen = submit(w.pool, func() (*chunk.Chunk, error) {
		c := chunk.New(pos)
		if err := gen.GenerateChunk(ctx, pos, c); err != nil {
			return nil, err
		}
		return c, nil
	})
}

// pollGeneration applies the result of every generation that finished.
func (w *World) pollGeneration() {
	for pos, r := range w.generating {
		if r.gen == nil {
			continue
		}
		c, done, err := r.gen.poll()
		if !done {
			continue
		}
		r.gen, r.area = nil, nil
		delete(w.generating, pos)

		if err != nil {
			w.conf.Log.Error("generate chunk: "+err.Error(), "X", pos[0], "Y", pos[1], "Z", pos[2])
			w.conf.Metrics.update(func(s *MetricsSnapshot) { s.Failed++ })
			continue
		}
		// A regenerated record is already live at pos.
		if !w.index.Contains(pos) {
			if err := w.index.Insert(r); err != nil {
				w.conf.Log.Error("insert chunk: "+err.Error(), "X", pos[0], "Y", pos[1], "Z", pos[2])
				continue
			}
		}
		r.chunk = c
		r.version++
		r.dirty = true
		w.dirty[pos] = r
		w.conf.Metrics.update(func(s *MetricsSnapshot) { s.Generated++ })
	}
}

// pollMeshing applies the result of every mesh build that finished. Meshes
// built from voxels that have since changed are discarded.
func (w *World) pollMeshing() {
	for pos, r := range w.meshing {
		b, done, err := r.meshing.poll()
		if !done {
			continue
		}
		r.meshing = nil
		delete(w.meshing, pos)

		switch {
		case err != nil:
			w.conf.Log.Error("build mesh: "+err.Error(), "X", pos[0], "Y", pos[1], "Z", pos[2])
			w.conf.Metrics.update(func(s *MetricsSnapshot) { s.MeshFailed++ })
		case r.removed || r.meshingAt != r.version:
			w.conf.Metrics.update(func(s *MetricsSnapshot) { s.MeshDiscarded++ })
		default:
			r.mesh, r.meshedVersion = b, r.meshingAt
			w.conf.Sink.UploadMesh(pos, b)
			w.conf.Metrics.update(func(s *MetricsSnapshot) { s.MeshBuilt++ })
		}
	}
}

// remesh starts a mesh build for every dirty chunk that has no build in
// flight. Chunks with a build in flight stay dirty until it finishes.
func (w *World) remesh() {
	for pos, r := range w.dirty {
		if r.meshing != nil {
			continue
		}
		delete(w.dirty, pos)
		r.dirty = false

		snapshot := r.chunk.Clone()
		r.meshingAt = r.version
		r.meshing = submit(w.pool, func() (*mesh.Buffers, error) {
			return mesh.Build(snapshot), nil
		})
		w.meshing[pos] = r
	}
}

// warnBacklog emits a throttled warning when generation requests pile up
// faster than the rate limit admits them.
func (w *World) warnBacklog() {
	now := time.Now()
	if !w.lastBacklogLog.IsZero() && now.Sub(w.lastBacklogLog) < time.Minute {
		return
	}
	w.lastBacklogLog = now
	w.conf.Log.Warn(
		"world generation backlog: chunk requests exceed the generation rate.",
		"backlog", len(w.backlog),
		"rate", w.conf.GenerationRate,
		"workers", w.conf.Workers,
	)
}

// Close stops the World. Work in flight is cancelled through the context
// passed to the Generator, and Close waits for all workers to stop. Close may
// be called from any goroutine, but not from the goroutine running Run.
func (w *World) Close() error {
	w.once.Do(func() {
		w.mu.Lock()
		w.closed = true
		queue := w.queue
		w.queue = nil
		w.mu.Unlock()

		close(w.closing)
		w.cancel()
		w.running.Wait()
		w.pool.StopAndWait()
		for _, t := range queue {
			close(t.done)
		}
	})
	return nil
}
