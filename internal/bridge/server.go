package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/scene"
	"github.com/san-kum/tiltfluid/internal/sim"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var ErrStopped = errors.New("bridge: scheduler stopped")

type Options struct {
	Logger *zap.Logger
	// BroadcastEvery sends one frame per this many ticks.
	BroadcastEvery uint64
}

// Server owns one session. Every loop call happens on the scheduler
// goroutine; websocket readers post into it.
type Server struct {
	sched    *sim.RealtimeScheduler
	loop     *sim.Loop
	camera   *scene.Camera
	hub      *hub
	log      *zap.Logger
	every    uint64
	upgrader websocket.Upgrader
}

func New(cfg config.Config, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	every := opts.BroadcastEvery
	if every == 0 {
		every = 1
	}
	s := &Server{
		sched:  sim.NewRealtimeScheduler(cfg.FrameInterval),
		camera: scene.FitCamera(cfg.Container.Width, cfg.Container.Height, 1),
		hub:    newHub(),
		log:    log,
		every:  every,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	s.loop = sim.New(cfg, s.sched, sim.WithLogger(log), sim.WithProjector(s.camera))
	s.loop.AddObserver(sim.ObserverFunc(s.onFrame))
	s.loop.OnFatal(s.onFatal)
	return s
}

func (s *Server) onFrame(f *sim.Frame) {
	if f.Tick%s.every != 0 || s.hub.count() == 0 {
		return
	}
	b, err := encodeFrame(f)
	if err != nil {
		s.log.Error("encode frame", zap.Error(err))
		return
	}
	s.hub.broadcast(b)
}

func (s *Server) onFatal(err error) {
	b, _ := json.Marshal(ErrorMessage{Type: "error", Error: err.Error()})
	s.hub.broadcast(b)
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// Serve starts the session and runs the scheduler until ctx ends.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var startErr error
	s.sched.Post(func() {
		if startErr = s.loop.Start(); startErr != nil {
			cancel()
		}
	})
	err := s.sched.Run(ctx)
	s.loop.Dispose()
	if startErr != nil {
		return startErr
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Run serves HTTP on addr alongside the session until ctx ends.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.Serve(ctx) })
	g.Go(func() error {
		s.log.Info("bridge listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		s.hub.closeAll()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdown)
	})
	return g.Wait()
}

// call runs fn on the scheduler goroutine and waits for it.
func (s *Server) call(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if !s.sched.Post(func() { fn(); close(done) }) {
		return ErrStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type Health struct {
	Phase   string  `json:"phase"`
	Tick    uint64  `json:"tick"`
	Elapsed float64 `json:"elapsed"`
	Clients int     `json:"clients"`
	Error   string  `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	var h Health
	err := s.call(r.Context(), func() {
		h = Health{Phase: s.loop.Phase().String(), Tick: s.loop.Tick(), Elapsed: s.loop.Elapsed().Seconds()}
		if err := s.loop.Err(); err != nil {
			h.Error = err.Error()
		}
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	h.Clients = s.hub.count()
	w.Header().Set("Content-Type", "application/json")
	if h.Error != "" {
		w.WriteHeader(http.StatusInternalServerError)
	}
	_ = json.NewEncoder(w).Encode(h)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade", zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, 16)}
	s.hub.add(c)
	s.log.Debug("client connected", zap.String("remote", conn.RemoteAddr().String()))

	go func() {
		for b := range c.send {
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		}
	}()

	defer func() {
		s.hub.remove(c)
		conn.Close()
		s.log.Debug("client disconnected", zap.String("remote", conn.RemoteAddr().String()))
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			s.log.Debug("bad message", zap.Error(err))
			continue
		}
		if !s.sched.Post(func() { s.apply(msg) }) {
			return
		}
	}
}

func (s *Server) apply(msg Message) {
	switch msg.Type {
	case TypeMotion:
		s.loop.OnMotion(msg.Motion())
	case TypeOrientation:
		s.loop.OnOrientation(msg.Orientation())
		s.camera.SetOrientation(msg.Orientation())
	case TypeTouch:
		if _, err := s.loop.OnTouch(msg.X, msg.Y); err != nil {
			s.log.Warn("touch dropped", zap.Error(err))
		}
	case TypePause:
		s.loop.Pause()
	case TypeResume:
		s.loop.Resume()
	}
}
