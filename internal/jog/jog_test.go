package jog

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/task"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    Step
		wantErr bool
	}{
		{"drive=-6", Step{Drive, -6}, false},
		{"Turn = 87", Step{Turn, 87}, false},
		{"lift=-115", Step{Lift, -115}, false},
		{"range=10.45", Step{Range, 10.45}, false},
		{"range=0", Step{}, true},
		{"spin=90", Step{}, true},
		{"drive", Step{}, true},
		{"drive=far", Step{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func simDevices(t *testing.T) (*sim.Bench, Devices) {
	t.Helper()
	cfg, err := config.GetPreset("roof25")
	if err != nil {
		t.Fatal(err)
	}
	b, err := sim.Build(cfg, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	clock := hw.PollingClock{Clock: b.Rig, Sensor: b.Rig}
	b.Rig.Poll()
	return b, Devices{
		Chassis: b.Chassis,
		Lift:    b.Lift,
		Range:   b.Rig,
		Clock:   clock,
		Period:  cfg.Supervisor.Period,
	}
}

func run(t *testing.T, dev Devices, steps ...Step) *diag.Recorder {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	rec := diag.NewRecorder(20)
	if err := Run(ctx, dev, steps, rec); err != nil {
		t.Fatal(err)
	}
	return rec
}

func TestRunDrive(t *testing.T) {
	b, dev := simDevices(t)
	_, y0, _ := b.Rig.Pose()
	rec := run(t, dev, Step{Drive, -6})
	_, y, _ := b.Rig.Pose()
	if dy := y - y0; dy > -5.9 || dy < -6.8 {
		t.Errorf("moved %f, want about -6", dy)
	}
	if l, r, _ := b.Rig.Efforts(); l != 0 || r != 0 {
		t.Errorf("left running at %f %f", l, r)
	}
	if rec.Count("Jog drive=-6") != 1 {
		t.Errorf("log = %v", rec.Lines())
	}
}

func TestRunTurn(t *testing.T) {
	b, dev := simDevices(t)
	run(t, dev, Step{Turn, -45})
	if _, _, h := b.Rig.Pose(); math.Abs(h-135) > 8 {
		t.Errorf("heading %f, want about 135", h)
	}
}

func TestRunLift(t *testing.T) {
	b, dev := simDevices(t)
	run(t, dev, Step{Lift, task.Lifter25Roof})
	want := b.Lift.Counts(task.Lifter25Roof)
	if got := float64(b.Rig.Position()); math.Abs(got-want) > 100 {
		t.Errorf("lift at %f, want about %f", got, want)
	}
	if b.Lift.Effort() != 0 {
		t.Error("lift should be stopped")
	}
}

func TestRunRange(t *testing.T) {
	b, dev := simDevices(t)
	run(t, dev, Step{Range, task.DistRoof})
	if d := b.Rig.Distance(); math.Abs(d-task.DistRoof) > 0.6 {
		t.Errorf("range %f, want about %f", d, task.DistRoof)
	}
	if l, r, _ := b.Rig.Efforts(); l != 0 || r != 0 {
		t.Errorf("left running at %f %f", l, r)
	}
}

type failingChassis struct{ Chassis }

func (failingChassis) DriveDistance(context.Context, float64) error { return context.Canceled }

func TestRunStopsAtFirstFailure(t *testing.T) {
	_, dev := simDevices(t)
	dev.Chassis = failingChassis{}
	rec := diag.NewRecorder(20)
	err := Run(context.Background(), dev, []Step{{Drive, 6}, {Turn, 90}}, rec)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
	if len(rec.Lines()) != 1 {
		t.Errorf("ran past the failure: %v", rec.Lines())
	}
}
