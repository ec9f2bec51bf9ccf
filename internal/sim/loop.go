package sim

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/dynamo"
	"github.com/san-kum/tiltfluid/internal/engine"
	"github.com/san-kum/tiltfluid/internal/physics"
	"github.com/san-kum/tiltfluid/internal/sensor"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

// Loop drives one session through Idle -> Running <-> Paused -> Disposed.
// Ticks, sensor events and touches must all be delivered on the scheduler's
// goroutine; Loop does no locking.
type Loop struct {
	cfg       config.Config
	sched     Scheduler
	newEngine func() engine.Engine
	projector physics.Projector
	log       *zap.Logger

	observers []Observer
	onFatal   []func(error)
	detachers []func()

	phase   Phase
	state   *physics.State
	fusion  *sensor.Fusion
	pending bool
	last    time.Time
	tick    uint64
	elapsed time.Duration
	frame   Frame
	err     error
}

type Option func(*Loop)

func WithLogger(log *zap.Logger) Option {
	return func(l *Loop) { l.log = log }
}

// WithEngine overrides the rigid-body backend created at Start.
func WithEngine(factory func() engine.Engine) Option {
	return func(l *Loop) { l.newEngine = factory }
}

// WithProjector supplies the ray projection used by OnTouch.
func WithProjector(p physics.Projector) Option {
	return func(l *Loop) { l.projector = p }
}

// New copies cfg; later changes to the caller's value are not seen.
func New(cfg config.Config, sched Scheduler, opts ...Option) *Loop {
	l := &Loop{
		cfg:       cfg,
		sched:     sched,
		newEngine: func() engine.Engine { return engine.NewWorld() },
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Loop) AddObserver(o Observer) { l.observers = append(l.observers, o) }

// OnFatal registers a handler for the error that ends a session.
func (l *Loop) OnFatal(fn func(error)) { l.onFatal = append(l.onFatal, fn) }

// AddDetacher registers a function that unhooks an event source. Dispose
// calls them in reverse order.
func (l *Loop) AddDetacher(fn func()) { l.detachers = append(l.detachers, fn) }

// Start builds the engine and particles and schedules the first tick.
func (l *Loop) Start() error {
	switch l.phase {
	case Idle:
	case Disposed:
		return dynamo.ErrDisposed
	default:
		return dynamo.ErrNotIdle
	}
	if err := l.cfg.Validate(); err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(l.cfg.Seed))
	l.state = physics.NewState(&l.cfg, l.newEngine(), rng)
	l.fusion = sensor.NewFusion(l.cfg.GravityScale, l.cfg.KalmanParams())
	l.tick, l.elapsed, l.last = 0, 0, time.Time{}
	l.phase = Running

	l.log.Debug("session started",
		zap.Int("particles", len(l.state.Particles)),
		zap.Int64("seed", l.cfg.Seed))

	l.schedule()
	return nil
}

// Pause stops scheduling ticks. It is a no-op unless Running.
func (l *Loop) Pause() {
	if l.phase != Running {
		return
	}
	l.phase = Paused
	l.log.Debug("session paused", zap.Uint64("tick", l.tick))
}

// Resume restarts a paused session. If the previous tick callback has not
// fired yet it is reused, so there is never more than one tick chain.
func (l *Loop) Resume() {
	if l.phase != Paused {
		return
	}
	l.phase = Running
	l.last = time.Time{}
	l.log.Debug("session resumed", zap.Uint64("tick", l.tick))
	l.schedule()
}

// Dispose detaches every event source and releases the engine and the
// particles. Further calls are no-ops.
func (l *Loop) Dispose() {
	if l.phase == Disposed {
		return
	}
	l.phase = Disposed
	for i := len(l.detachers) - 1; i >= 0; i-- {
		l.detachers[i]()
	}
	l.detachers = nil
	if l.state != nil {
		l.state.Release()
		l.state = nil
	}
	l.frame = Frame{}
	l.log.Debug("session disposed", zap.Uint64("tick", l.tick))
}

func (l *Loop) schedule() {
	if l.pending {
		return
	}
	l.pending = true
	l.sched.RequestFrame(l.onFrame)
}

func (l *Loop) onFrame(now time.Time) {
	l.pending = false
	if l.phase != Running {
		return
	}

	dt := l.cfg.FrameInterval
	if !l.last.IsZero() {
		if d := now.Sub(l.last); d > 0 {
			dt = d
		}
	}
	if dt > l.cfg.MaxFrameDelta {
		dt = l.cfg.MaxFrameDelta
	}
	l.last = now

	if err := l.step(dt); err != nil {
		l.fail(err)
		return
	}
	if l.phase == Running {
		l.schedule()
	}
}

func (l *Loop) step(dt time.Duration) error {
	if err := physics.Step(l.state, &l.cfg, l.fusion.Gravity(), dt.Seconds()); err != nil {
		return err
	}
	l.tick++
	l.elapsed += dt

	f := &l.frame
	f.Tick = l.tick
	f.Elapsed = l.elapsed
	f.Dt = dt
	f.Positions = l.state.Positions(f.Positions)
	f.Velocities = l.state.Velocities(f.Velocities)
	f.Gravity = l.fusion.Gravity()
	f.Tilt = l.fusion.Tilt()
	for _, o := range l.observers {
		o.OnFrame(f)
	}
	return nil
}

func (l *Loop) fail(err error) {
	l.err = &dynamo.TickError{Tick: l.tick + 1, Elapsed: l.elapsed, Wrapped: err}
	l.log.Error("tick aborted, disposing session", zap.Error(l.err))
	for _, fn := range l.onFatal {
		fn(l.err)
	}
	l.Dispose()
}

// OnMotion folds an accelerometer sample into gravity. Samples outside an
// active session are dropped.
func (l *Loop) OnMotion(m sensor.Motion) {
	if l.phase == Running || l.phase == Paused {
		l.fusion.OnMotion(m)
	}
}

func (l *Loop) OnOrientation(o sensor.Orientation) {
	if l.phase == Running || l.phase == Paused {
		l.fusion.OnOrientation(o)
	}
}

// OnTouch projects a touch in normalized device coordinates and queues its
// impulses for the next tick. Touches are ignored unless Running.
func (l *Loop) OnTouch(ndcX, ndcY float64) (int, error) {
	if l.projector == nil {
		return 0, fmt.Errorf("touch at (%.3f, %.3f): no projector configured", ndcX, ndcY)
	}
	return l.OnTouchRay(l.projector.Ray(ndcX, ndcY)), nil
}

// OnTouchRay applies a touch whose ray the host already built.
func (l *Loop) OnTouchRay(ray physics.Ray) int {
	if l.phase != Running {
		return 0
	}
	return physics.ApplyTouch(l.state, &l.cfg, ray)
}

func (l *Loop) Phase() Phase { return l.phase }

// Err is the error that ended the session, if any.
func (l *Loop) Err() error { return l.err }

func (l *Loop) Tick() uint64 { return l.tick }

func (l *Loop) Elapsed() time.Duration { return l.elapsed }

func (l *Loop) Config() config.Config { return l.cfg }

// Gravity is (0,0) until the first motion sample and after Dispose.
func (l *Loop) Gravity() r2.Vec {
	if l.fusion == nil {
		return r2.Vec{}
	}
	return l.fusion.Gravity()
}

func (l *Loop) Tilt() sensor.Tilt {
	if l.fusion == nil {
		return sensor.Tilt{}
	}
	return l.fusion.Tilt()
}

// Positions copies the current particle positions into dst.
func (l *Loop) Positions(dst []r2.Vec) []r2.Vec {
	if l.state == nil {
		return dst[:0]
	}
	return l.state.Positions(dst)
}

func (l *Loop) Velocities(dst []r2.Vec) []r2.Vec {
	if l.state == nil {
		return dst[:0]
	}
	return l.state.Velocities(dst)
}
