package storage

import (
	"encoding/json"
	"io"
	"time"

	"github.com/san-kum/romibot/internal/sim"
)

// ExportData is a run as a single JSON document.
type ExportData struct {
	Meta        RunMetadata        `json:"meta"`
	Samples     []sim.Sample       `json:"samples"`
	Transitions []sim.Transition   `json:"transitions"`
	Dwell       map[string]float64 `json:"dwell"`
}

// ExportJSON writes a stored run to w.
func (s *Store) ExportJSON(w io.Writer, runID string) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	samples, err := s.LoadSamples(runID)
	if err != nil {
		return err
	}
	trs, err := s.LoadTransitions(runID)
	if err != nil {
		return err
	}

	res := sim.Result{Transitions: trs}
	if n := len(samples); n > 0 {
		res.Final = samples[n-1].State
	}
	res.Elapsed = time.Duration(meta.Elapsed * float64(time.Second))
	dwell := make(map[string]float64)
	for st, d := range res.Dwell() {
		dwell[st.String()] = d
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(ExportData{Meta: *meta, Samples: samples, Transitions: trs, Dwell: dwell})
}
