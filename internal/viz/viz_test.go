package viz

import (
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/task"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if c.Grid[0][0] != 0x2801 {
		t.Errorf("cell 0 = %U", c.Grid[0][0])
	}
	if c.Grid[0][1] != 0x2880 {
		t.Errorf("cell 1 = %U", c.Grid[0][1])
	}
	if !c.IsSet(3, 3) || c.IsSet(1, 1) {
		t.Error("IsSet disagrees with Set")
	}
	c.Clear()
	if c.String() != "\u2800\u2800\n" {
		t.Errorf("cleared canvas = %q", c.String())
	}
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 3)
	if !c.IsSet(0, 0) || !c.IsSet(7, 3) {
		t.Error("line endpoints not drawn")
	}
}

func TestViewport(t *testing.T) {
	c := NewCanvas(10, 5) // 20 x 20 sub-pixels
	v := Fit(c, -10, -10, 10, 10)
	if v.Scale != 1 {
		t.Fatalf("scale = %f", v.Scale)
	}
	if x, y := v.Project(-10, -10); x != 0 || y != 19 {
		t.Errorf("bottom left = (%d, %d)", x, y)
	}
	if x, y := v.Project(0, 9); x != 10 || y != 0 {
		t.Errorf("top = (%d, %d)", x, y)
	}
}

func TestKeyRemote(t *testing.T) {
	r := NewKeyRemote(2)
	if _, ok := r.KeyCode(); ok {
		t.Error("empty remote returned a key")
	}
	r.Press(hw.KeyPlayPause)
	r.Press(hw.Key7)
	if r.Press(hw.KeyBack) {
		t.Error("press beyond the buffer should be dropped")
	}
	if k, _ := r.KeyCode(); k != hw.KeyPlayPause {
		t.Errorf("first key = %s", k)
	}
	if k, _ := r.KeyCode(); k != hw.Key7 {
		t.Errorf("second key = %s", k)
	}
}

func TestRemoteKey(t *testing.T) {
	tests := []struct {
		name string
		want hw.KeyCode
	}{
		{" ", hw.KeyPlayPause},
		{"s", hw.KeySetup},
		{"x", hw.KeyStopMode},
		{"backspace", hw.KeyBack},
		{"7", hw.Key7},
	}
	for _, tt := range tests {
		if got, ok := RemoteKey(tt.name); !ok || got != tt.want {
			t.Errorf("RemoteKey(%q) = %s, %v", tt.name, got, ok)
		}
	}
	if _, ok := RemoteKey("q"); ok {
		t.Error("q is not a remote key")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	cfg := config.DefaultConfig()
	remote := NewKeyRemote(8)
	rec := diag.NewRecorder(50)
	b, err := sim.Build(cfg, func(hw.Clock) (hw.Remote, error) { return remote, nil }, rec)
	if err != nil {
		t.Fatal(err)
	}
	return NewModel(b, remote, rec, "test")
}

func TestModelForwardsKeys(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)

	if !m.bench.Supervisor.Context().Mode.Paused {
		t.Error("space should pause the robot")
	}
	if m.bench.Rig.Elapsed() == 0 {
		t.Error("tick should advance the simulation")
	}
}

func TestModelFreeze(t *testing.T) {
	m := newTestModel(t)
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
	m = next.(Model)
	next, _ = m.Update(TickMsg(time.Now()))
	m = next.(Model)
	if m.bench.Rig.Elapsed() != 0 {
		t.Error("frozen simulation advanced")
	}
}

func TestModelScalesGains(t *testing.T) {
	m := newTestModel(t)
	kp := m.bench.Chassis.RangePID().Params()["Kp"]
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'K'}})
	m = next.(Model)
	if got := m.bench.Chassis.RangePID().Params()["Kp"]; math.Abs(got-kp*gainStep) > 1e-9 {
		t.Errorf("range kp = %f, want %f", got, kp*gainStep)
	}

	lkp := m.bench.Chassis.LinePID().Params()["Kp"]
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	m = next.(Model)
	if got := m.bench.Chassis.LinePID().Params()["Kp"]; math.Abs(got-lkp/gainStep) > 1e-9 {
		t.Errorf("line kp = %f, want %f", got, lkp/gainStep)
	}
	if m.log.Count("line Kp = 0.080") != 1 {
		t.Errorf("gain change not logged: %v", m.log.Lines())
	}
	if m.bench.Supervisor.Context().Mode.Paused {
		t.Error("gain keys should not reach the remote")
	}
}

func TestModelView(t *testing.T) {
	m := newTestModel(t)
	m.advance(10)
	out := m.View()
	for _, want := range []string{"SETUP_RAISE", "roof25", "RUNNING"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestProgress(t *testing.T) {
	if progress(task.SetupRaise) != 0 || progress(task.Idle) != 1 || progress(task.Stopped) != 0 {
		t.Error("progress endpoints wrong")
	}
}

func TestGIFRecorder(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawLine(0, 0, 7, 7)
	r := NewGIFRecorder(4, 2)
	r.Capture(c)
	r.Capture(c)
	if r.Frames() != 2 {
		t.Fatalf("frames = %d", r.Frames())
	}
	if err := r.Save(filepath.Join(t.TempDir(), "out.gif")); err != nil {
		t.Fatal(err)
	}
}
