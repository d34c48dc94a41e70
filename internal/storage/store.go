// Package storage keeps simulated runs on disk, one directory per run:
// metadata.json for the run summary, samples.csv for the sampled trace and
// transitions.csv for the sequencer's state changes.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/task"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID         string             `json:"id"`
	Preset     string             `json:"preset"`
	Scenario   string             `json:"scenario,omitempty"`
	Field      string             `json:"field"`
	Variant    int                `json:"variant"`
	Integrator string             `json:"integrator"`
	Seed       uint64             `json:"seed"`
	Timestamp  time.Time          `json:"timestamp"`
	Elapsed    float64            `json:"elapsed"`
	Ticks      int                `json:"ticks"`
	Completed  bool               `json:"completed"`
	Final      string             `json:"final_state"`
	Metrics    map[string]float64 `json:"metrics"`
}

var sampleHeader = []string{
	"time", "state", "paused", "variant",
	"x", "y", "heading", "range",
	"left", "right", "lift", "lift_pos", "gripper",
}

// Save writes a run and returns its ID. meta.ID, Timestamp and the result
// fields are filled in here.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	name := meta.Preset
	if name == "" {
		name = "run"
	}
	meta.Timestamp = time.Now()
	meta.ID = fmt.Sprintf("%s_%d", name, meta.Timestamp.UnixNano())
	meta.Elapsed = result.Elapsed.Seconds()
	meta.Ticks = result.Ticks
	meta.Completed = result.Completed
	meta.Final = result.Final.String()
	meta.Metrics = result.Metrics

	runDir := filepath.Join(s.baseDir, meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeSamples(filepath.Join(runDir, "samples.csv"), result.Samples); err != nil {
		return "", err
	}
	if err := writeTransitions(filepath.Join(runDir, "transitions.csv"), result.Transitions); err != nil {
		return "", err
	}
	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func ff(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }

func writeSamples(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return EncodeSamplesCSV(f, samples)
}

// EncodeSamplesCSV writes samples with a header row.
func EncodeSamplesCSV(out io.Writer, samples []sim.Sample) error {
	w := csv.NewWriter(out)
	if err := w.Write(sampleHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			ff(smp.Time),
			smp.State.String(),
			strconv.FormatBool(smp.Paused),
			strconv.Itoa(smp.Variant),
			ff(smp.X), ff(smp.Y), ff(smp.Heading), ff(smp.Range),
			ff(smp.Left), ff(smp.Right), ff(smp.Lift),
			ff(smp.LiftPos),
			strconv.Itoa(smp.Gripper),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeTransitions(path string, trs []sim.Transition) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"time", "from", "to"}); err != nil {
		return err
	}
	for _, tr := range trs {
		if err := w.Write([]string{ff(tr.Time), tr.From.String(), tr.To.String()}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, "metadata.json"))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// LoadSamples reads a run's sampled trace back.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "samples.csv"))
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	out := make([]sim.Sample, 0, len(records)-1)
	for i, rec := range records[1:] {
		smp, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("samples.csv line %d: %w", i+2, err)
		}
		out = append(out, smp)
	}
	return out, nil
}

func parseSample(rec []string) (sim.Sample, error) {
	var smp sim.Sample
	if len(rec) != len(sampleHeader) {
		return smp, fmt.Errorf("expected %d fields, got %d", len(sampleHeader), len(rec))
	}
	state, err := task.ParseState(rec[1])
	if err != nil {
		return smp, err
	}
	smp.State = state
	if smp.Paused, err = strconv.ParseBool(rec[2]); err != nil {
		return smp, err
	}
	if smp.Variant, err = strconv.Atoi(rec[3]); err != nil {
		return smp, err
	}
	if smp.Gripper, err = strconv.Atoi(rec[12]); err != nil {
		return smp, err
	}

	floats := []*float64{&smp.Time, nil, nil, nil,
		&smp.X, &smp.Y, &smp.Heading, &smp.Range,
		&smp.Left, &smp.Right, &smp.Lift, &smp.LiftPos}
	for i, dst := range floats {
		if dst == nil {
			continue
		}
		if *dst, err = strconv.ParseFloat(rec[i], 64); err != nil {
			return smp, fmt.Errorf("%s: %w", sampleHeader[i], err)
		}
	}
	return smp, nil
}

// LoadTransitions reads a run's state changes back.
func (s *Store) LoadTransitions(runID string) ([]sim.Transition, error) {
	records, err := readCSV(filepath.Join(s.baseDir, runID, "transitions.csv"))
	if err != nil {
		return nil, err
	}

	out := make([]sim.Transition, 0, len(records))
	for i, rec := range records {
		if i == 0 {
			continue
		}
		if len(rec) != 3 {
			return nil, fmt.Errorf("transitions.csv line %d: expected 3 fields", i+1)
		}
		t, err := strconv.ParseFloat(rec[0], 64)
		if err != nil {
			return nil, err
		}
		from, err := task.ParseState(rec[1])
		if err != nil {
			return nil, err
		}
		to, err := task.ParseState(rec[2])
		if err != nil {
			return nil, err
		}
		out = append(out, sim.Transition{Time: t, From: from, To: to})
	}
	return out, nil
}
