package viz

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/metrics"
	"github.com/san-kum/tiltfluid/internal/physics"
	"github.com/san-kum/tiltfluid/internal/sensor"
	"github.com/san-kum/tiltfluid/internal/sim"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	defaultCols     = 80
	defaultRows     = 24
	panelWidth      = 47
	historyCapacity = 300
	accelStep       = 1.0
	maxAccel        = 2 * 9.8
	angleStep       = 5.0
)

// Options configures the live view.
type Options struct {
	Config  config.Config
	Preset  string
	Theme   string
	GIFPath string
	Logger  *zap.Logger
}

type frameMsg time.Time

// frameScheduler hands the loop's frame requests to the bubbletea event
// loop, which also delivers keys and mouse events, so the session only
// ever sees one goroutine.
type frameScheduler struct {
	queue []sim.FrameFunc
}

func (s *frameScheduler) RequestFrame(fn sim.FrameFunc) { s.queue = append(s.queue, fn) }

func (s *frameScheduler) fire(now time.Time) {
	due := s.queue
	s.queue = nil
	for _, fn := range due {
		fn(now)
	}
}

type liveState struct {
	opts     Options
	log      *zap.Logger
	sched    *frameScheduler
	loop     *sim.Loop
	canvas   *Canvas
	renderer *Renderer
	theme    Theme
	st       styles

	motion sensor.Motion
	orient sensor.Orientation

	mass      float64
	energy    []float64
	spread    *metrics.Spread
	positions []r2.Vec
	fatal     error

	gif       *GIFRecorder
	recording bool
	showHelp  bool
	notice    string
}

// Model is the bubbletea model hosting one session at a time.
type Model struct {
	s *liveState
}

func NewModel(opts Options) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	theme := GetTheme(opts.Theme)
	canvas := NewCanvas(defaultCols-panelWidth, defaultRows-3)
	s := &liveState{
		opts:     opts,
		log:      opts.Logger,
		canvas:   canvas,
		renderer: NewRenderer(opts.Config.Container.Width, opts.Config.Container.Height, canvas),
		theme:    theme,
		st:       newStyles(theme),
		mass:     opts.Config.ParticleMass(),
		gif:      NewGIFRecorder(),
	}
	if err := s.start(); err != nil {
		return Model{}, err
	}
	return Model{s: s}, nil
}

// start builds a fresh session with the device held upright.
func (s *liveState) start() error {
	s.sched = &frameScheduler{}
	s.loop = sim.New(s.opts.Config, s.sched,
		sim.WithLogger(s.log),
		sim.WithProjector(s.renderer.Camera))
	s.spread = metrics.NewSpread()
	s.energy = s.energy[:0]
	s.fatal = nil
	s.loop.AddObserver(metrics.Observer(s.spread))
	s.loop.AddObserver(sim.ObserverFunc(s.observe))
	s.loop.OnFatal(func(err error) { s.fatal = err })
	if err := s.loop.Start(); err != nil {
		return err
	}
	s.motion = sensor.Motion{AY: 9.8}
	s.orient = sensor.Orientation{}
	s.renderer.Camera.SetOrientation(s.orient)
	s.loop.OnMotion(s.motion)
	return nil
}

func (s *liveState) observe(f *sim.Frame) {
	s.energy = append(s.energy, metrics.Kinetic(f.Velocities, s.mass))
	if len(s.energy) > historyCapacity {
		s.energy = s.energy[len(s.energy)-historyCapacity:]
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.s.opts.Config.FrameInterval, func(t time.Time) tea.Msg { return frameMsg(t) })
}

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := m.s
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.canvas.Resize(max(msg.Width-panelWidth-4, 20), max(msg.Height-3, 8))
		s.renderer.Fit(s.canvas)
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.touch(msg.X, msg.Y)
		}
	case frameMsg:
		s.sched.fire(time.Time(msg))
		s.draw()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	s := m.s
	switch msg.String() {
	case "q", "ctrl+c":
		if s.recording {
			s.saveGIF()
		}
		s.loop.Dispose()
		return tea.Quit
	case " ":
		if s.loop.Phase() == sim.Running {
			s.loop.Pause()
		} else {
			s.loop.Resume()
		}
	case "left", "a":
		s.tilt(-accelStep, 0)
	case "right", "d":
		s.tilt(accelStep, 0)
	case "up", "w":
		s.tilt(0, -accelStep)
	case "down", "s":
		s.tilt(0, accelStep)
	case "0":
		s.motion = sensor.Motion{AY: 9.8}
		s.loop.OnMotion(s.motion)
	case "[":
		s.rotate(0, -angleStep)
	case "]":
		s.rotate(0, angleStep)
	case "{":
		s.rotate(-angleStep, 0)
	case "}":
		s.rotate(angleStep, 0)
	case "+", "=":
		s.renderer.Camera.ZoomIn()
	case "-", "_":
		s.renderer.Camera.ZoomOut()
	case "r":
		s.loop.Dispose()
		if err := s.start(); err != nil {
			s.fatal = err
		}
	case "t":
		s.theme = s.theme.Next()
		s.st = newStyles(s.theme)
	case "g":
		if s.recording {
			s.saveGIF()
		}
		s.recording = !s.recording
	case "?":
		s.showHelp = !s.showHelp
	}
	return nil
}

func (s *liveState) tilt(dx, dy float64) {
	s.motion.AX = math.Max(-maxAccel, math.Min(maxAccel, s.motion.AX+dx))
	s.motion.AY = math.Max(-maxAccel, math.Min(maxAccel, s.motion.AY+dy))
	s.loop.OnMotion(s.motion)
}

func (s *liveState) rotate(dBeta, dGamma float64) {
	s.orient.Beta = math.Max(-90, math.Min(90, s.orient.Beta+dBeta))
	s.orient.Gamma = math.Max(-90, math.Min(90, s.orient.Gamma+dGamma))
	s.loop.OnOrientation(s.orient)
	s.renderer.Camera.SetOrientation(s.orient)
}

// touch maps a terminal cell to the canvas, accounting for its padding.
func (m Model) touch(x, y int) {
	s := m.s
	col, row := x-2, y-1
	if col < 0 || row < 0 || col >= s.canvas.Width || row >= s.canvas.Height {
		return
	}
	vp := physics.Viewport{Width: float64(s.canvas.Width), Height: float64(s.canvas.Height)}
	ndcX, ndcY := vp.NDC(float64(col)+0.5, float64(row)+0.5)
	hit, err := s.loop.OnTouch(ndcX, ndcY)
	if err != nil {
		s.log.Warn("touch dropped", zap.Error(err))
		return
	}
	s.notice = fmt.Sprintf("touch pushed %d", hit)
}

func (s *liveState) draw() {
	s.positions = s.loop.Positions(s.positions)
	s.renderer.Draw(s.canvas, s.positions)
	if s.recording {
		s.gif.Capture(s.canvas)
	}
}

func (s *liveState) saveGIF() {
	path := s.opts.GIFPath
	if path == "" {
		path = "tiltfluid.gif"
	}
	f, err := os.Create(path)
	if err != nil {
		s.notice = err.Error()
		return
	}
	defer f.Close()
	if err := s.gif.Encode(f); err != nil {
		s.notice = err.Error()
		return
	}
	s.notice = "saved " + path
	s.log.Info("recording saved", zap.String("path", path))
}

func (m Model) View() string {
	s := m.s
	st := s.st
	var b strings.Builder

	title := "TILTFLUID"
	if s.opts.Preset != "" {
		title += " · " + strings.ToUpper(s.opts.Preset)
	}
	b.WriteString(st.header.Render(title) + "\n")
	b.WriteString(m.status() + "\n\n")

	if len(s.energy) > 1 {
		chart := asciigraph.Plot(s.energy, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("kinetic energy"))
		b.WriteString(st.graph.Render(chart) + "\n\n")
	}

	g := s.loop.Gravity()
	tilt := s.loop.Tilt()
	row := func(label, value string) {
		b.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", s.loop.Tick()))
	row("Time", fmt.Sprintf("%.2fs", s.loop.Elapsed().Seconds()))
	row("Particles", fmt.Sprintf("%d", len(s.positions)))
	row("Gravity", fmt.Sprintf("(%+.1f, %+.1f)", g.X, g.Y))
	row("", Meter(math.Hypot(g.X, g.Y), maxAccel, 20))
	row("Tilt", fmt.Sprintf("β %+.0f° γ %+.0f°", tilt.X*180/math.Pi, tilt.Y*180/math.Pi))
	if len(s.energy) > 0 {
		row("Energy", fmt.Sprintf("%.3f", s.energy[len(s.energy)-1]))
	}
	row("Spread", fmt.Sprintf("%.2f", s.spread.Value()))
	if s.recording {
		row("Recording", fmt.Sprintf("%d frames", s.gif.Frames()))
	}
	if s.notice != "" {
		b.WriteString("\n" + st.label.Render(s.notice) + "\n")
	}

	b.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Restart Q:Quit\n←↑↓→:Tilt [ ]:Turn ?:Help"))

	main := lipgloss.JoinHorizontal(lipgloss.Top,
		st.canvas.Render(s.canvas.String()),
		st.panel.Render(b.String()))
	if s.showHelp {
		return helpText + "\n" + main
	}
	return main
}

func (m Model) status() string {
	s := m.s
	if s.fatal != nil {
		return s.st.failed.Render("STOPPED: " + s.fatal.Error())
	}
	switch s.loop.Phase() {
	case sim.Running:
		return s.st.running.Render("RUNNING")
	case sim.Paused:
		return s.st.paused.Render("PAUSED")
	default:
		return s.st.failed.Render(strings.ToUpper(s.loop.Phase().String()))
	}
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Arrows/WASD - Tilt the device       ║
║  0           - Hold level            ║
║  [ ]         - Turn (gamma)          ║
║  { }         - Pitch (beta)          ║
║  Click       - Push the fluid        ║
║  Space       - Pause/Resume          ║
║  R           - Restart               ║
║  + -         - Zoom                  ║
║  T           - Cycle themes          ║
║  G           - Toggle GIF recording  ║
║  ?           - Toggle this help      ║
║  Q           - Quit                  ║
╚══════════════════════════════════════╝`

// Run starts the live view and blocks until the user quits.
func Run(opts Options) error {
	m, err := NewModel(opts)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
