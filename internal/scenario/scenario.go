// Package scenario scripts operator input for simulated runs: a list of remote
// key presses at fixed offsets from the start of the run.
package scenario

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/romibot/internal/hw"
)

// Scenario defines a scripted run.
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Preset      string        `yaml:"preset"`
	Duration    time.Duration `yaml:"duration"`
	Presses     []Press       `yaml:"presses"`
}

// Press is one key press at an offset from the start of the run.
type Press struct {
	At   time.Duration `yaml:"at"`
	Key  string        `yaml:"key"`
	Note string        `yaml:"note,omitempty"`
}

// Load reads a scenario from a YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks every key name and offset.
func (s *Scenario) Validate() error {
	for i, p := range s.Presses {
		if _, err := hw.ParseKey(p.Key); err != nil {
			return fmt.Errorf("press %d: %w", i+1, err)
		}
		if p.At < 0 {
			return fmt.Errorf("press %d: negative offset %v", i+1, p.At)
		}
	}
	return nil
}

// Remote returns a remote that replays the presses against clock, starting
// now.
func (s *Scenario) Remote(clock hw.Clock) (*Remote, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	evs := make([]event, len(s.Presses))
	for i, p := range s.Presses {
		k, _ := hw.ParseKey(p.Key)
		evs[i] = event{at: p.At, key: k}
	}
	sort.SliceStable(evs, func(i, j int) bool { return evs[i].at < evs[j].at })
	return &Remote{clock: clock, start: clock.Now(), events: evs}, nil
}

type event struct {
	at  time.Duration
	key hw.KeyCode
}

// Remote yields each scripted key once its offset has elapsed, at most one
// per call.
type Remote struct {
	clock  hw.Clock
	start  time.Time
	events []event
	next   int
}

func (r *Remote) KeyCode() (hw.KeyCode, bool) {
	if r.next >= len(r.events) {
		return 0, false
	}
	ev := r.events[r.next]
	if r.clock.Now().Sub(r.start) < ev.at {
		return 0, false
	}
	r.next++
	return ev.key, true
}

// Remaining returns how many presses have not been delivered.
func (r *Remote) Remaining() int { return len(r.events) - r.next }

// Builtin scenarios, by name.
var Builtin = map[string]*Scenario{
	"unattended": {
		Name:        "unattended",
		Description: "no operator input; confirmation gates time out",
		Preset:      "roof25",
		Duration:    3 * time.Minute,
	},
	"estop": {
		Name:        "estop",
		Description: "pause while backing away from the roof, then resume",
		Preset:      "roof25",
		Duration:    3 * time.Minute,
		Presses: []Press{
			{At: 20 * time.Second, Key: "play_pause", Note: "stop"},
			{At: 23 * time.Second, Key: "play_pause", Note: "resume"},
		},
	},
	"roof45": {
		Name:        "roof45",
		Description: "select the 45 degree routine from the remote",
		Preset:      "roof45",
		Duration:    3 * time.Minute,
		Presses:     []Press{{At: 0, Key: "7"}},
	},
	"abort": {
		Name:        "abort",
		Description: "stop the sequence and restart it",
		Preset:      "roof25",
		Duration:    3 * time.Minute,
		Presses: []Press{
			{At: 12 * time.Second, Key: "stop_mode"},
			{At: 14 * time.Second, Key: "back"},
			{At: 15 * time.Second, Key: "play_pause"},
		},
	},
}

// Names lists the builtin scenarios in sorted order.
func Names() []string {
	names := make([]string, 0, len(Builtin))
	for n := range Builtin {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
