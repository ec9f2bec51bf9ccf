package viz

import (
	"bytes"
	"image/gif"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/tiltfluid/internal/config"
	"github.com/san-kum/tiltfluid/internal/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestCanvas(t *testing.T) {
	c := NewCanvas(4, 2)
	w, h := c.Dots()
	assert.Equal(t, 8, w)
	assert.Equal(t, 8, h)

	c.Set(0, 0)
	c.Set(1, 3)
	assert.True(t, c.Get(0, 0))
	assert.Equal(t, rune(blank|0x1|0x80), c.Grid[0][0])

	c.Unset(0, 0)
	assert.False(t, c.Get(0, 0))
	assert.Equal(t, rune(blank|0x80), c.Grid[0][0])

	c.Set(-1, 0)
	c.Set(100, 100)
	assert.False(t, c.Get(100, 100))

	c.Clear()
	assert.Equal(t, strings.Repeat(string(rune(blank)), 4)+"\n", strings.SplitAfter(c.String(), "\n")[0])
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(5, 2)
	c.DrawLine(0, 0, 9, 0)
	for x := 0; x < 10; x++ {
		assert.True(t, c.Get(x, 0), "x=%d", x)
	}
	assert.False(t, c.Get(0, 1))
}

func TestCanvas_Resize(t *testing.T) {
	c := NewCanvas(2, 2)
	c.Set(0, 0)
	c.Resize(2, 2)
	assert.False(t, c.Get(0, 0), "resize clears")

	c.Resize(0, -3)
	assert.Equal(t, 1, c.Width)
	assert.Equal(t, 1, c.Height)
}

func TestRenderer_Draw(t *testing.T) {
	c := NewCanvas(60, 20)
	r := NewRenderer(20, 14, c)

	shown := r.Draw(c, []r2.Vec{{}, {X: 9, Y: 6}, {X: 500}})

	assert.Equal(t, 2, shown)
	w, h := c.Dots()
	assert.True(t, c.Get(w/2, h/2), "origin lands in the middle")
}

func TestSparklineAndMeter(t *testing.T) {
	assert.Equal(t, "▁▄█", Sparkline([]float64{0, 0.5, 1}, 10))
	assert.Equal(t, "▁█", Sparkline([]float64{5, 0, 1}, 2))
	assert.Equal(t, "───", Sparkline(nil, 3))

	assert.Equal(t, "██░░", Meter(5, 10, 4))
	assert.Equal(t, "████", Meter(50, 10, 4))
	assert.Equal(t, "░░░░", Meter(1, 0, 4))
}

func TestThemes(t *testing.T) {
	assert.Equal(t, "lava", GetTheme("lava").Name)
	assert.Equal(t, Themes[0].Name, GetTheme("nope").Name)
	assert.Equal(t, Themes[0].Name, Themes[len(Themes)-1].Next().Name)
	assert.Len(t, ThemeNames(), len(Themes))
}

func TestCanvasToSVG(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(1, 2)
	svg := CanvasToSVG(c, 10, "#00c8ff")

	assert.Contains(t, svg, `width="40" height="40"`)
	assert.Equal(t, 1, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `cx="15.0" cy="25.0"`)
	assert.Empty(t, CanvasToSVG(nil, 1, ""))
}

func TestGIFRecorder(t *testing.T) {
	g := NewGIFRecorder()
	var buf bytes.Buffer
	assert.ErrorIs(t, g.Encode(&buf), ErrNoFrames)

	c := NewCanvas(3, 2)
	c.Set(0, 0)
	g.Capture(c)
	c.Set(5, 7)
	g.Capture(c)
	require.Equal(t, 2, g.Frames())

	require.NoError(t, g.Encode(&buf))
	anim, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, anim.Image, 2)
	assert.Equal(t, 24, anim.Image[0].Bounds().Dx())
	assert.Zero(t, g.Frames())
}

func liveConfig() config.Config {
	cfg := *config.DefaultConfig()
	cfg.ParticleCount = 30
	cfg.Container = config.ContainerConfig{Width: 8, Height: 6}
	return cfg
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel_FramesAdvanceLoop(t *testing.T) {
	m, err := NewModel(Options{Config: liveConfig()})
	require.NoError(t, err)

	now := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		now = now.Add(16 * time.Millisecond)
		_, cmd := m.Update(frameMsg(now))
		assert.NotNil(t, cmd)
	}

	assert.Equal(t, uint64(5), m.s.loop.Tick())
	assert.Len(t, m.s.positions, 30)
	assert.Len(t, m.s.energy, 5)
	assert.Contains(t, m.View(), "RUNNING")
}

func TestModel_Keys(t *testing.T) {
	m, err := NewModel(Options{Config: liveConfig()})
	require.NoError(t, err)
	assert.Equal(t, r2.Vec{Y: -9.8}, m.s.loop.Gravity())

	m.Update(key("left"))
	assert.Less(t, m.s.loop.Gravity().X, 0.0)

	m.Update(key(" "))
	assert.Equal(t, sim.Paused, m.s.loop.Phase())
	assert.Contains(t, m.View(), "PAUSED")
	m.Update(key(" "))
	assert.Equal(t, sim.Running, m.s.loop.Phase())

	m.Update(key("]"))
	assert.Greater(t, m.s.renderer.Camera.Rotation.Y, 0.0)

	before := m.s.theme.Name
	m.Update(key("t"))
	assert.NotEqual(t, before, m.s.theme.Name)

	old := m.s.loop
	m.Update(key("r"))
	assert.Equal(t, sim.Disposed, old.Phase())
	assert.Equal(t, sim.Running, m.s.loop.Phase())

	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, sim.Disposed, m.s.loop.Phase())
}

func TestModel_Touch(t *testing.T) {
	m, err := NewModel(Options{Config: liveConfig()})
	require.NoError(t, err)

	// centre of the canvas, shifted by its padding
	m.Update(tea.MouseMsg{
		X:      2 + m.s.canvas.Width/2,
		Y:      1 + m.s.canvas.Height/2,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	assert.Contains(t, m.s.notice, "touch pushed")

	m.s.notice = ""
	m.Update(tea.MouseMsg{X: 0, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Empty(t, m.s.notice, "clicks on the padding are ignored")
}

func TestMenu(t *testing.T) {
	menu := NewMenu(Options{})
	require.NotEmpty(t, menu.presets)

	next, _ := menu.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	next, _ = next.(Menu).Update(key("j"))
	assert.Equal(t, 1, next.(Menu).cursor)

	launched, cmd := next.(Menu).Update(tea.KeyMsg{Type: tea.KeyEnter})
	live, ok := launched.(Model)
	require.True(t, ok)
	assert.NotNil(t, cmd)
	assert.Equal(t, menu.presets[1], live.s.opts.Preset)
	assert.Equal(t, 120-panelWidth-4, live.s.canvas.Width, "size is forwarded to the live view")
	live.s.loop.Dispose()

	assert.Contains(t, menu.View(), menu.presets[0])
}
