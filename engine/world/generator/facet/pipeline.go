package facet

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var (
	// ErrDuplicateOutput is returned when two stages produce the same facet.
	ErrDuplicateOutput = errors.New("facet: facet produced by more than one stage")
	// ErrMissingInput is returned when a stage consumes a facet that no stage
	// produces.
	ErrMissingInput = errors.New("facet: no stage produces input")
	// ErrCycle is returned when stages depend on each other in a cycle.
	ErrCycle = errors.New("facet: dependency cycle between stages")
)

// Pipeline runs a set of stages over a region in dependency order. Stages are
// grouped into levels: every stage of a level only depends on stages of
// earlier levels, so that the stages of one level may run concurrently.
type Pipeline struct {
	levels [][]Stage
}

// NewPipeline orders the stages passed by their declared inputs and outputs.
// An error is returned if the stages do not form a directed acyclic graph in
// which every input is produced by exactly one stage.
func NewPipeline(stages ...Stage) (*Pipeline, error) {
	producers := make(map[Kind]int, len(stages))
	for i, s := range stages {
		if j, ok := producers[s.Output()]; ok {
			return nil, fmt.Errorf("%w: %v by %v and %v", ErrDuplicateOutput, s.Output(), stages[j].Name(), s.Name())
		}
		producers[s.Output()] = i
	}

	indegree := make([]int, len(stages))
	dependants := make([][]int, len(stages))
	for i, s := range stages {
		seen := make(map[Kind]struct{})
		for _, in := range s.Inputs() {
			if _, dup := seen[in]; dup {
				continue
			}
			seen[in] = struct{}{}
			p, ok := producers[in]
			if !ok {
				return nil, fmt.Errorf("%w: %v (needed by %v)", ErrMissingInput, in, s.Name())
			}
			indegree[i]++
			dependants[p] = append(dependants[p], i)
		}
	}

	var (
		p     = &Pipeline{}
		ready []int
		done  int
	)
	for i, d := range indegree {
		if d == 0 {
			ready = append(ready, i)
		}
	}
	for len(ready) > 0 {
		level := make([]Stage, 0, len(ready))
		var next []int
		for _, i := range ready {
			level = append(level, stages[i])
			for _, d := range dependants[i] {
				if indegree[d]--; indegree[d] == 0 {
					next = append(next, d)
				}
			}
		}
		done += len(ready)
		p.levels = append(p.levels, level)
		ready = next
	}
	if done != len(stages) {
		return nil, ErrCycle
	}
	return p, nil
}

// Levels returns the names of the stages per level, in execution order.
func (p *Pipeline) Levels() [][]string {
	names := make([][]string, len(p.levels))
	for i, level := range p.levels {
		for _, s := range level {
			names[i] = append(names[i], s.Name())
		}
	}
	return names
}

// Run executes every stage whose output is not yet present in the region. A
// stage only starts once all stages of earlier levels have finished. Stages
// within a level run concurrently. Run stops at the first failing stage.
func (p *Pipeline) Run(ctx context.Context, r *Region) error {
	for _, level := range p.levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		g, gctx := errgroup.WithContext(ctx)
		for _, s := range level {
			if r.Has(s.Output()) {
				continue
			}
			g.Go(func() error {
				if err := s.Run(gctx, r); err != nil {
					return fmt.Errorf("facet: stage %v: %w", s.Name(), err)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
