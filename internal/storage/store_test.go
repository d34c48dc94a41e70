package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/task"
)

func testResult() *sim.Result {
	return &sim.Result{
		Samples: []sim.Sample{
			{Time: 0.01, State: task.SetupRaise, X: 0, Y: -7.14, Heading: 90, Range: 4.14, Lift: -400, LiftPos: -12, Gripper: 1700},
			{Time: 0.02, State: task.ConfirmSetup, Paused: true, Variant: 1, Y: -7.14, Heading: 90, Range: 4.14, LiftPos: -3510, Gripper: 1700},
		},
		Transitions: []sim.Transition{
			{Time: 0.02, From: task.SetupRaise, To: task.ConfirmSetup},
		},
		Metrics:   map[string]float64{"travel": 1.5},
		Final:     task.ConfirmSetup,
		Elapsed:   20 * time.Millisecond,
		Ticks:     2,
		Completed: false,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(RunMetadata{Preset: "roof25", Field: "roof25", Seed: 42, Integrator: "rk4"}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Preset != "roof25" || meta.Seed != 42 {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.Final != "CONFIRM_SETUP" || meta.Ticks != 2 {
		t.Errorf("final %s after %d ticks", meta.Final, meta.Ticks)
	}
	if meta.Metrics["travel"] != 1.5 {
		t.Errorf("expected travel 1.5, got %f", meta.Metrics["travel"])
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	want := testResult().Samples[1]
	if samples[1] != want {
		t.Errorf("sample = %+v, want %+v", samples[1], want)
	}

	trs, err := st.LoadTransitions(runID)
	if err != nil {
		t.Fatalf("load transitions failed: %v", err)
	}
	if len(trs) != 1 || trs[0].To != task.ConfirmSetup {
		t.Errorf("transitions = %+v", trs)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, p := range []string{"roof25", "roof45"} {
		if _, err := st.Save(RunMetadata{Preset: p}, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.MkdirAll(filepath.Join(st.baseDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Preset != "roof25" {
		t.Errorf("runs should be oldest first, got %s", runs[0].Preset)
	}
}

func TestListMissingDir(t *testing.T) {
	runs, err := New(filepath.Join(t.TempDir(), "absent")).List()
	if err != nil || len(runs) != 0 {
		t.Errorf("got %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{}, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	for _, name := range []string{"metadata.json", "samples.csv", "transitions.csv"} {
		if _, err := os.Stat(filepath.Join(st.baseDir, runID, name)); err != nil {
			t.Errorf("missing %s: %v", name, err)
		}
	}
}

func TestLoadSamplesRejectsBadState(t *testing.T) {
	st := New(t.TempDir())
	dir := filepath.Join(st.baseDir, "bad")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data := "time,state,paused,variant,x,y,heading,range,left,right,lift,lift_pos,gripper\n" +
		"0.01,FLYING,false,0,0,0,0,0,0,0,0,0,0\n"
	if err := os.WriteFile(filepath.Join(dir, "samples.csv"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadSamples("bad"); err == nil {
		t.Error("expected error")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save(RunMetadata{Preset: "roof25"}, testResult())
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := st.ExportJSON(&buf, runID); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var got ExportData
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Samples) != 2 || got.Samples[1].State != task.ConfirmSetup {
		t.Errorf("samples = %+v", got.Samples)
	}
	if d := got.Dwell["SETUP_RAISE"]; d < 0.0199 || d > 0.0201 {
		t.Errorf("SETUP_RAISE dwell = %f", d)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"CONFIRM_SETUP"`)) {
		t.Error("states should be exported by name")
	}
}

func TestEncodeSamplesCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := EncodeSamplesCSV(&buf, testResult().Samples); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != strings.Join(sampleHeader, ",") {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != len(testResult().Samples)+1 {
		t.Errorf("got %d lines", len(lines))
	}
}
