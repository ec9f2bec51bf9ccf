// Package bridge exposes a session over a websocket so a phone or browser
// can stream real sensor events into it and watch the particles.
package bridge

import (
	"encoding/json"
	"fmt"

	"github.com/san-kum/tiltfluid/internal/sensor"
	"github.com/san-kum/tiltfluid/internal/sim"
)

// Inbound message types.
const (
	TypeMotion      = "motion"
	TypeOrientation = "orientation"
	TypeTouch       = "touch"
	TypePause       = "pause"
	TypeResume      = "resume"
)

// Message is what clients send. Fields not used by Type are ignored; touch
// coordinates are normalized device coordinates.
type Message struct {
	Type  string  `json:"type"`
	AX    float64 `json:"ax,omitempty"`
	AY    float64 `json:"ay,omitempty"`
	AZ    float64 `json:"az,omitempty"`
	Alpha float64 `json:"alpha,omitempty"`
	Beta  float64 `json:"beta,omitempty"`
	Gamma float64 `json:"gamma,omitempty"`
	X     float64 `json:"x,omitempty"`
	Y     float64 `json:"y,omitempty"`
}

func (m Message) Motion() sensor.Motion { return sensor.Motion{AX: m.AX, AY: m.AY, AZ: m.AZ} }

func (m Message) Orientation() sensor.Orientation {
	return sensor.Orientation{Alpha: m.Alpha, Beta: m.Beta, Gamma: m.Gamma}
}

func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode message: %w", err)
	}
	switch m.Type {
	case TypeMotion, TypeOrientation, TypeTouch, TypePause, TypeResume:
		return m, nil
	default:
		return m, fmt.Errorf("unknown message type %q", m.Type)
	}
}

// FrameMessage is broadcast to every client after a tick.
type FrameMessage struct {
	Type      string       `json:"type"`
	Tick      uint64       `json:"tick"`
	Elapsed   float64      `json:"elapsed"`
	Gravity   [2]float64   `json:"gravity"`
	Positions [][2]float32 `json:"positions"`
}

// ErrorMessage tells clients the session ended.
type ErrorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

func encodeFrame(f *sim.Frame) ([]byte, error) {
	msg := FrameMessage{
		Type:      "frame",
		Tick:      f.Tick,
		Elapsed:   f.Elapsed.Seconds(),
		Gravity:   [2]float64{f.Gravity.X, f.Gravity.Y},
		Positions: make([][2]float32, len(f.Positions)),
	}
	for i, p := range f.Positions {
		msg.Positions[i] = [2]float32{float32(p.X), float32(p.Y)}
	}
	return json.Marshal(msg)
}
