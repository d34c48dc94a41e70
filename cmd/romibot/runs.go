package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/export"
	"github.com/san-kum/romibot/internal/plant"
	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/storage"
	"github.com/san-kum/romibot/internal/tune"
	"github.com/san-kum/romibot/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tSCENARIO\tTIME\tELAPSED\tINTEG\tFINAL\tDONE")

	for _, run := range runs {
		sc := run.Scenario
		if sc == "" {
			sc = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.1fs\t%s\t%s\t%v\n",
			run.ID,
			run.Preset,
			sc,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Elapsed,
			run.Integrator,
			run.Final,
			run.Completed,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}

	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("preset: %s (%s)\n", meta.Preset, meta.Field)
	fmt.Printf("samples: %d\n\n", len(samples))

	series := []struct {
		caption string
		value   func(sim.Sample) float64
	}{
		{"range (in)", func(s sim.Sample) float64 { return s.Range }},
		{"lift position (counts)", func(s sim.Sample) float64 { return s.LiftPos }},
		{"wheel effort, left", func(s sim.Sample) float64 { return s.Left }},
		{"sequence progress (state)", func(s sim.Sample) float64 { return float64(s.State) }},
	}

	for _, sr := range series {
		data := make([]float64, len(samples))
		for i, s := range samples {
			data[i] = sr.value(s)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(sr.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	trs, err := st.LoadTransitions(runID)
	if err != nil {
		return err
	}
	fmt.Println("transitions:")
	for _, tr := range trs {
		fmt.Printf("  %7.2fs  %-20s -> %s\n", tr.Time, tr.From, tr.To)
	}
	return nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	samples, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to export")
	}
	return storage.EncodeSamplesCSV(os.Stdout, samples)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return storage.New(dataDir).ExportJSON(os.Stdout, args[0])
}

// fieldFor rebuilds the field a stored run was simulated on.
func fieldFor(meta *storage.RunMetadata) (plant.Field, error) {
	cfg, err := config.GetPreset(meta.Preset)
	if err != nil {
		cfg = config.DefaultConfig()
	}
	return plant.FieldByName(meta.Field, cfg.Sim.Plant)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	field, err := fieldFor(meta)
	if err != nil {
		return err
	}

	var svg string
	if braille, _ := cmd.Flags().GetBool("braille"); braille {
		c := viz.NewCanvas(120, 60)
		v := viz.FieldView(c, field)
		viz.DrawField(c, v, field)
		pts := make([]plant.Point, len(samples))
		for i, s := range samples {
			pts[i] = plant.Point{X: s.X, Y: s.Y}
		}
		viz.DrawTrail(c, v, pts)
		svg = export.CanvasToSVG(c, 4)
	} else {
		svg = export.FieldToSVG(field, samples, 640, 480, "#1f77b4")
	}

	if len(args) < 2 {
		_, err = fmt.Print(svg)
		return err
	}
	if err := os.WriteFile(args[1], []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", args[1])
	return nil
}

func compareIntegrators(cmd *cobra.Command, args []string) error {
	fmt.Printf("comparing integrators on %s\n\n", preset)
	fmt.Printf("%-12s  %-8s  %-20s  %-10s  %-12s\n", "integrator", "done", "final", "sim_s", "time_ms")
	fmt.Println(strings.Repeat("-", 70))

	for _, name := range args {
		cfg, err := config.GetPreset(preset)
		if err != nil {
			return err
		}
		cfg.Sim.Integrator = name

		bench, err := sim.Build(cfg, nil, nil)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		start := time.Now()
		result, err := bench.Sim.Run(context.Background(), sim.RunConfig(cfg))
		elapsed := time.Since(start)
		if err != nil {
			fmt.Printf("%-12s  error: %v\n", name, err)
			continue
		}

		fmt.Printf("%-12s  %-8v  %-20s  %10.2f  %12.2f\n", name, result.Completed, result.Final,
			result.Elapsed.Seconds(), float64(elapsed.Microseconds())/1000)
	}
	return nil
}

func tuneGains(cmd *cobra.Command, args []string) error {
	if len(tuneParams) == 0 {
		return fmt.Errorf("no params to search (available: %v)", tune.Names())
	}
	params := make([]tune.Param, len(tuneParams))
	for i, s := range tuneParams {
		p, err := tune.ParseParam(s)
		if err != nil {
			return err
		}
		params[i] = p
	}

	cfg, err := config.GetPreset(preset)
	if err != nil {
		return err
	}
	var score tune.Objective
	switch objective {
	case "time":
		score = tune.TimeToComplete
	case "range_error":
		score = tune.Settling
	default:
		score = tune.Metric(objective)
	}

	fmt.Printf("searching %d params on %s, minimizing %s\n\n", len(params), preset, objective)
	best, trials, err := tune.NewGridSearch(params).Search(context.Background(), cfg, score)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAMS\tDONE\tSCORE")
	for _, t := range trials {
		if t.Err != nil {
			fmt.Fprintf(w, "%s\terror\t%v\n", formatParams(t.Params), t.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%v\t%.4f\n", formatParams(t.Params), t.Completed, t.Score)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\nbest: %s (%.4f)\n", formatParams(best.Params), best.Score)
	return nil
}

func formatParams(p map[string]float64) string {
	names := make([]string, 0, len(p))
	for n := range p {
		names = append(names, n)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = fmt.Sprintf("%s=%g", n, p[n])
	}
	return strings.Join(parts, " ")
}
