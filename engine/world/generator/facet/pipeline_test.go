package facet

import (
	"context"
	"errors"
	"slices"
	"sync/atomic"
	"testing"

	"github.com/dm-vev/voxelworld/engine/world/chunk"
	"github.com/dm-vev/voxelworld/engine/world/noise"
)

// fakeStage is a stage with configurable edges that counts its runs.
type fakeStage struct {
	name   string
	in     []Kind
	out    Kind
	runs   *atomic.Int32
	err    error
	output func(r *Region)
}

func (f fakeStage) Name() string   { return f.name }
func (f fakeStage) Inputs() []Kind { return f.in }
func (f fakeStage) Output() Kind   { return f.out }
func (f fakeStage) Run(_ context.Context, r *Region) error {
	if f.runs != nil {
		f.runs.Add(1)
	}
	if f.err != nil {
		return f.err
	}
	if f.output != nil {
		f.output(r)
	}
	return nil
}

func standardStages() []Stage {
	return []Stage{
		Refine{},
		Density{},
		Surface{},
		Roughness{DeviationScale: 16},
		FlatElevation{Height: 40},
		SeaLevel{Level: 32},
	}
}

func TestPipelineOrdersStagesIntoLevels(t *testing.T) {
	p, err := NewPipeline(standardStages()...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	levels := p.Levels()
	if len(levels) != 4 {
		t.Fatalf("expected 4 levels, got %v", levels)
	}
	if !slices.Equal(levels[0], []string{"sea_level"}) || !slices.Equal(levels[1], []string{"flat_elevation"}) {
		t.Fatalf("unexpected leading levels %v", levels)
	}
	third := slices.Clone(levels[2])
	slices.Sort(third)
	if !slices.Equal(third, []string{"density", "roughness", "surface"}) {
		t.Fatalf("roughness, surface and density must share a level: %v", levels[2])
	}
	if !slices.Equal(levels[3], []string{"refine"}) {
		t.Fatalf("refine must run last: %v", levels)
	}
}

func TestPipelineRejectsInvalidGraphs(t *testing.T) {
	_, err := NewPipeline(SeaLevel{}, FlatElevation{}, FlatElevation{})
	if !errors.Is(err, ErrDuplicateOutput) {
		t.Fatalf("expected ErrDuplicateOutput, got %v", err)
	}
	_, err = NewPipeline(SeaLevel{}, Density{})
	if !errors.Is(err, ErrMissingInput) {
		t.Fatalf("expected ErrMissingInput, got %v", err)
	}
	_, err = NewPipeline(
		fakeStage{name: "a", in: []Kind{KindDensity}, out: KindSurface},
		fakeStage{name: "b", in: []Kind{KindSurface}, out: KindDensity},
	)
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("expected ErrCycle, got %v", err)
	}
}

func TestPipelineSkipsPresentFacets(t *testing.T) {
	var seaRuns, elevRuns atomic.Int32
	p, err := NewPipeline(
		fakeStage{name: "sea", out: KindSeaLevel, runs: &seaRuns, output: func(r *Region) {
			l := 32.0
			r.SeaLevel = &l
		}},
		fakeStage{name: "elev", in: []Kind{KindSeaLevel}, out: KindElevation, runs: &elevRuns, output: func(r *Region) {
			r.Elevation = NewGrid2[int32](r.Extent)
		}},
	)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	r := NewRegion(chunk.Pos{})
	for i := 0; i < 3; i++ {
		if err := p.Run(context.Background(), r); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	if seaRuns.Load() != 1 || elevRuns.Load() != 1 {
		t.Fatalf("stages ran %d and %d times, want once each", seaRuns.Load(), elevRuns.Load())
	}
}

func TestPipelinePropagatesStageErrors(t *testing.T) {
	boom := errors.New("boom")
	var later atomic.Int32
	p, err := NewPipeline(
		fakeStage{name: "sea", out: KindSeaLevel, err: boom},
		fakeStage{name: "elev", in: []Kind{KindSeaLevel}, out: KindElevation, runs: &later},
	)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	if err := p.Run(context.Background(), NewRegion(chunk.Pos{})); !errors.Is(err, boom) {
		t.Fatalf("expected stage error, got %v", err)
	}
	if later.Load() != 0 {
		t.Fatalf("dependent stage ran after its input failed")
	}
}

func TestFlatElevationScenario(t *testing.T) {
	p, err := NewPipeline(standardStages()...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	r := NewRegion(chunk.Pos{3, 1, -2})
	if err := p.Run(context.Background(), r); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, h := range r.Elevation.Values {
		if h != 40 {
			t.Fatalf("elevation %d, want 40", h)
		}
	}
	v := r.Volume()
	for y := v.Min[1]; y < v.Max[1]; y++ {
		for z := v.Min[2]; z <= v.Max[2]; z += 7 {
			for x := v.Min[0]; x <= v.Max[0]; x += 5 {
				if got, want := r.Refined.Surface.At(x, y, z), y == 40; got != want {
					t.Fatalf("refined surface at y=%d is %v, want %v", y, got, want)
				}
				if got, want := r.Density.At(x, y, z), float64(40-y); got != want {
					t.Fatalf("density at y=%d is %v, want %v", y, got, want)
				}
			}
		}
	}
}

func TestRefineRecomputesSurfaceFromDensity(t *testing.T) {
	src := noise.NewSource(5, noise.DefaultFractal())
	stages := standardStages()
	stages[0] = Refine{
		Small:          noise.NewSampler(src, [3]float64{0.1, 0.1, 0.1}, 4),
		Large:          noise.NewSampler(src, [3]float64{0.01, 0.01, 0.01}, 8),
		SmallAmplitude: 6,
		LargeAmplitude: 2,
	}
	p, err := NewPipeline(stages...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	r := NewRegion(chunk.Pos{0, 1, 0})
	if err := p.Run(context.Background(), r); err != nil {
		t.Fatalf("run: %v", err)
	}
	d, s := r.Refined.Density, r.Refined.Surface
	v := r.Volume()
	for y := v.Min[1]; y < v.Max[1]; y++ {
		for z := v.Min[2]; z <= v.Max[2]; z++ {
			for x := v.Min[0]; x <= v.Max[0]; x++ {
				want := Solid(d.At(x, y, z)) && !Solid(d.At(x, y+1, z))
				if s.At(x, y, z) != want {
					t.Fatalf("surface at (%d, %d, %d) = %v, want %v", x, y, z, s.At(x, y, z), want)
				}
			}
		}
	}
	if r.Refined.Density == r.Density {
		t.Fatalf("perturbed density must not alias the coarse density")
	}
}

func TestNoiseElevationCentresOnSeaLevelMultiple(t *testing.T) {
	src := noise.NewSource(11, noise.DefaultFractal())
	p, err := NewPipeline(SeaLevel{Level: 20}, NoiseElevation{
		Sampler:   noise.NewSampler(src, [3]float64{0.02, 0, 0.02}, 4),
		Multiple:  2,
		Amplitude: 10,
	})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	r := NewRegion(chunk.Pos{-4, 0, 9})
	if err := p.Run(context.Background(), r); err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, h := range r.Elevation.Values {
		if h < 30 || h > 50 {
			t.Fatalf("elevation %d outside 40±10", h)
		}
	}
}

func TestPipelineHonoursCancellation(t *testing.T) {
	p, err := NewPipeline(standardStages()...)
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Run(ctx, NewRegion(chunk.Pos{})); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
