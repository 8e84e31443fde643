package world

import (
	"github.com/alitto/pond/v2"
	"github.com/dm-vev/voxelworld/engine/internal/guard"
)

// job is a unit of work running on the worker pool. The value it produces is
// only read by the orchestrator after the task is done, and at most once.
type job[T any] struct {
	task  pond.Task
	value T
	taken bool
}

// submit runs fn on the pool. A panic in fn is returned as an error.
func submit[T any](pool pond.Pool, fn func() (T, error)) *job[T] {
	j := &job[T]{}
	j.task = pool.SubmitErr(func() error {
		v, err := guard.Value(fn)
		j.value = v
		return err
	})
	return j
}

// poll checks if the job finished without blocking. If it did, its result is
// returned with done set to true. A job yields its result only once; later
// calls report it as not done.
func (j *job[T]) poll() (value T, done bool, err error) {
	if j.taken {
		return value, false, nil
	}
	select {
	case <-j.task.Done():
		j.taken = true
		err = j.task.Wait()
		return j.value, true, err
	default:
		return value, false, nil
	}
}
