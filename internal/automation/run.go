package automation

import (
	"context"
	"fmt"
	"time"

	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/metrics"
	"github.com/san-kum/tiltfluid/internal/scene"
	"github.com/san-kum/tiltfluid/internal/sim"
	"github.com/san-kum/tiltfluid/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options tune a scripted run. The zero value is usable.
type Options struct {
	Logger      *zap.Logger
	RecordEvery uint64
	// Observer, if set, sees every frame after the recorder.
	Observer sim.Observer
}

type Result struct {
	Script      string
	Seed        int64
	Ticks       uint64
	Elapsed     time.Duration
	Fingerprint uint64
	Metrics     map[string]float64
	Frames      []storage.FrameRow
	// Err is the error that ended the session early, if any.
	Err error
}

const checkEvery = 64

// Run drives a fresh session through the script on a manual clock. base is
// copied; the script's seed, when present, overrides it. Events may be in
// any order; the script itself is never modified.
func Run(ctx context.Context, script *Script, base *config.Config, opts Options) (*Result, error) {
	if err := script.Validate(); err != nil {
		return nil, err
	}
	events := script.ordered()
	cfg := *base
	if script.Seed != nil {
		cfg.Seed = *script.Seed
	}
	dt := script.Dt
	if dt == 0 {
		dt = cfg.FrameInterval
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	cam := scene.FitCamera(cfg.Container.Width, cfg.Container.Height, 1)
	sched := sim.NewManualScheduler(time.Unix(0, 0))
	loop := sim.New(cfg, sched, sim.WithLogger(log), sim.WithProjector(cam))

	mass := cfg.ParticleMass()
	rec := storage.NewRecorder(mass, opts.RecordEvery)
	ms := metrics.Standard(mass, cfg.Container.Width, cfg.Container.Height)
	loop.AddObserver(rec)
	loop.AddObserver(metrics.Observer(ms...))
	if opts.Observer != nil {
		loop.AddObserver(opts.Observer)
	}

	if err := loop.Start(); err != nil {
		return nil, err
	}
	defer loop.Dispose()

	log.Info("script started",
		zap.String("script", script.Name),
		zap.Int64("seed", cfg.Seed),
		zap.Int("ticks", script.Ticks))

	next := 0
	for tick := 0; tick < script.Ticks; tick++ {
		if tick%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		for next < len(events) && events[next].Tick == tick {
			if err := apply(loop, cam, events[next]); err != nil {
				return nil, fmt.Errorf("script %q tick %d: %w", script.Name, tick, err)
			}
			next++
		}
		if loop.Phase() == sim.Disposed {
			break
		}
		sched.Advance(dt)
	}

	res := &Result{
		Script:      script.Name,
		Seed:        cfg.Seed,
		Ticks:       loop.Tick(),
		Elapsed:     loop.Elapsed(),
		Fingerprint: loop.Fingerprint(),
		Metrics:     make(map[string]float64, len(ms)),
		Frames:      rec.Rows(),
		Err:         loop.Err(),
	}
	for _, m := range ms {
		res.Metrics[m.Name()] = m.Value()
	}
	if res.Err != nil {
		log.Warn("script ended early", zap.String("script", script.Name), zap.Error(res.Err))
	}
	return res, nil
}

func apply(loop *sim.Loop, cam *scene.Camera, e Event) error {
	if e.Motion != nil {
		loop.OnMotion(*e.Motion)
	}
	if e.Orientation != nil {
		loop.OnOrientation(*e.Orientation)
		cam.SetOrientation(*e.Orientation)
	}
	if e.Touch != nil {
		if _, err := loop.OnTouch(e.Touch.X, e.Touch.Y); err != nil {
			return err
		}
	}
	switch e.Action {
	case ActionPause:
		loop.Pause()
	case ActionResume:
		loop.Resume()
	case ActionDispose:
		loop.Dispose()
	}
	return nil
}

// RunEnsemble runs the script once per seed, at most workers at a time.
// Results are in seed order.
func RunEnsemble(ctx context.Context, script *Script, base *config.Config, seeds []int64, workers int, opts Options) ([]*Result, error) {
	results := make([]*Result, len(seeds))

	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			s := *script
			s.Seed = &seed
			runOpts := opts
			runOpts.Observer = nil
			res, err := Run(ctx, &s, base, runOpts)
			if err != nil {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Seeds returns n consecutive seeds starting at start.
func Seeds(start int64, n int) []int64 {
	out := make([]int64, n)
	for i := range out {
		out[i] = start + int64(i)
	}
	return out
}
