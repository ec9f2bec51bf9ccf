// Package automation replays scripted sensor and touch input against a
// headless session.
package automation

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/san-kum/tiltfluid/internal/sensor"
	"gopkg.in/yaml.v3"
)

// Script is a deterministic input sequence keyed by tick number.
type Script struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Preset      string        `yaml:"preset"`
	Seed        *int64        `yaml:"seed"`
	Ticks       int           `yaml:"ticks"`
	Dt          time.Duration `yaml:"dt"`
	Events      []Event       `yaml:"events"`
}

// Event fires before the tick it names. Exactly one field is expected to
// be set; several are applied in the order listed here.
type Event struct {
	Tick        int                 `yaml:"tick"`
	Motion      *sensor.Motion      `yaml:"motion,omitempty"`
	Orientation *sensor.Orientation `yaml:"orientation,omitempty"`
	Touch       *Touch              `yaml:"touch,omitempty"`
	Action      string              `yaml:"action,omitempty"`
}

// Touch is in normalized device coordinates.
type Touch struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

const (
	ActionPause   = "pause"
	ActionResume  = "resume"
	ActionDispose = "dispose"
)

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	s.Events = s.ordered()
	return &s, nil
}

// ordered returns the events sorted by tick, keeping the written order of
// events that share a tick. s.Events is not modified.
func (s *Script) ordered() []Event {
	events := append([]Event(nil), s.Events...)
	sort.SliceStable(events, func(i, j int) bool { return events[i].Tick < events[j].Tick })
	return events
}

func (s *Script) Validate() error {
	if s.Ticks <= 0 {
		return fmt.Errorf("script %q: ticks must be positive", s.Name)
	}
	if s.Dt < 0 {
		return fmt.Errorf("script %q: dt must not be negative", s.Name)
	}
	for i, e := range s.Events {
		if e.Tick < 0 || e.Tick >= s.Ticks {
			return fmt.Errorf("script %q: event %d at tick %d outside [0, %d)", s.Name, i, e.Tick, s.Ticks)
		}
		switch e.Action {
		case "", ActionPause, ActionResume, ActionDispose:
		default:
			return fmt.Errorf("script %q: event %d: unknown action %q", s.Name, i, e.Action)
		}
	}
	return nil
}

// Idle is a script with no input: the fluid settles under zero gravity.
func Idle(ticks int) *Script {
	return &Script{Name: "idle", Ticks: ticks}
}
