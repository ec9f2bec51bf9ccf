package storage

import (
	"fmt"

	"github.com/san-kum/tiltfluid/internal/metrics"
	"github.com/san-kum/tiltfluid/internal/sim"
)

// FrameRow is one line of frames.csv.
type FrameRow struct {
	Tick      uint64  `csv:"tick"`
	Elapsed   float64 `csv:"elapsed"`
	Dt        float64 `csv:"dt"`
	GravityX  float64 `csv:"gx"`
	GravityY  float64 `csv:"gy"`
	Kinetic   float64 `csv:"kinetic_energy"`
	MaxSpeed  float64 `csv:"max_speed"`
	CentroidX float64 `csv:"centroid_x"`
	CentroidY float64 `csv:"centroid_y"`
}

// Recorder summarizes every Every-th frame into a row. Frames are not
// retained; only the reduced values are.
type Recorder struct {
	Mass  float64
	Every uint64
	rows  []FrameRow
}

func NewRecorder(mass float64, every uint64) *Recorder {
	if every == 0 {
		every = 1
	}
	return &Recorder{Mass: mass, Every: every}
}

func (r *Recorder) OnFrame(f *sim.Frame) {
	if f.Tick%r.Every != 0 {
		return
	}
	c := metrics.Centroid(f.Positions)
	r.rows = append(r.rows, FrameRow{
		Tick:      f.Tick,
		Elapsed:   f.Elapsed.Seconds(),
		Dt:        f.Dt.Seconds(),
		GravityX:  f.Gravity.X,
		GravityY:  f.Gravity.Y,
		Kinetic:   metrics.Kinetic(f.Velocities, r.Mass),
		MaxSpeed:  metrics.Fastest(f.Velocities),
		CentroidX: c.X,
		CentroidY: c.Y,
	})
}

func (r *Recorder) Rows() []FrameRow { return r.rows }

func (r *Recorder) Reset() { r.rows = r.rows[:0] }

// Column extracts a named series from rows for plotting.
func Column(rows []FrameRow, name string) ([]float64, error) {
	var get func(FrameRow) float64
	switch name {
	case "kinetic_energy", "energy":
		get = func(r FrameRow) float64 { return r.Kinetic }
	case "max_speed", "speed":
		get = func(r FrameRow) float64 { return r.MaxSpeed }
	case "gx":
		get = func(r FrameRow) float64 { return r.GravityX }
	case "gy":
		get = func(r FrameRow) float64 { return r.GravityY }
	case "centroid_x":
		get = func(r FrameRow) float64 { return r.CentroidX }
	case "centroid_y":
		get = func(r FrameRow) float64 { return r.CentroidY }
	case "dt":
		get = func(r FrameRow) float64 { return r.Dt }
	default:
		return nil, fmt.Errorf("unknown column %q", name)
	}
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = get(r)
	}
	return out, nil
}

// Columns lists the names Column accepts.
func Columns() []string {
	return []string{"kinetic_energy", "max_speed", "gx", "gy", "centroid_x", "centroid_y", "dt"}
}
