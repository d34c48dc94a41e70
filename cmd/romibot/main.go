package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/romibot/internal/bridge"
	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/diag"
	"github.com/san-kum/romibot/internal/hw"
	"github.com/san-kum/romibot/internal/integrators"
	"github.com/san-kum/romibot/internal/metrics"
	"github.com/san-kum/romibot/internal/scenario"
	"github.com/san-kum/romibot/internal/sim"
	"github.com/san-kum/romibot/internal/storage"
	"github.com/san-kum/romibot/internal/tune"
	"github.com/san-kum/romibot/internal/viz"
)

var (
	dataDir      string
	preset       string
	configFile   string
	scenarioName string
	integrator   string
	duration     time.Duration
	seed         uint64
	clearance    float64
	quiet        bool
	port         string
	unattended   bool
	tuneParams   []string
	objective    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "romibot",
		Short: "roof panel robot: simulator, bench tools and hardware driver",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(config.ListPresets(), launch)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultOutputDir, "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "simulate a run and save it",
		RunE:  runSimulation,
	}
	runCmd.Flags().StringVar(&preset, "preset", config.DefaultPreset, "preset configuration")
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml), overrides the preset")
	runCmd.Flags().StringVar(&scenarioName, "scenario", "", "builtin scenario name or scenario file")
	runCmd.Flags().StringVar(&integrator, "integrator", "", "integrator ("+strings.Join(integrators.Names(), ", ")+")")
	runCmd.Flags().DurationVar(&duration, "time", 0, "maximum simulated time")
	runCmd.Flags().Uint64Var(&seed, "seed", 0, "range noise seed")
	runCmd.Flags().Float64Var(&clearance, "clearance", 2.0, "range below which the robot counts as crowding a wall")
	runCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress the robot's log")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := config.DefaultPreset
			if len(args) > 0 {
				name = args[0]
			}
			m, err := launch(name)
			if err != nil {
				return err
			}
			return viz.Run(m)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [file]",
		Short: "draw the field and the robot's path to SVG",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().Bool("braille", false, "render the terminal canvas instead of vector paths")

	compareCmd := &cobra.Command{
		Use:   "compare [integrator1] [integrator2] ...",
		Short: "compare integrators on the same preset",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	compareCmd.Flags().StringVar(&preset, "preset", config.DefaultPreset, "preset configuration")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search controller gains on a preset",
		RunE:  tuneGains,
	}
	tuneCmd.Flags().StringVar(&preset, "preset", config.DefaultPreset, "preset configuration")
	tuneCmd.Flags().StringArrayVarP(&tuneParams, "param", "p", nil, "gain to search, name=v1,v2 ("+strings.Join(tune.Names(), ", ")+")")
	tuneCmd.Flags().StringVar(&objective, "objective", "time", "time, range_error for a range-test hold, or the name of a metric to minimize")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.ListPresets() {
				fmt.Printf("  %s\n", p)
			}
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list builtin scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tPRESET\tPRESSES\tDESCRIPTION")
			for _, n := range scenario.Names() {
				s := scenario.Builtin[n]
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.Name, s.Preset, len(s.Presses), s.Description)
			}
			w.Flush()
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [preset]",
		Short: "print a configuration as YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if len(args) > 0 {
				var err error
				if cfg, err = config.GetPreset(args[0]); err != nil {
					return err
				}
			}
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(cfg)
		},
	}

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "list serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := bridge.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("no serial ports found")
			}
			for _, p := range ports {
				fmt.Println(p)
			}
			return nil
		},
	}

	driveCmd := &cobra.Command{
		Use:   "drive",
		Short: "run the robot over the serial link to its motor board",
		RunE:  driveRobot,
	}
	driveCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	driveCmd.Flags().StringVar(&port, "port", "", "serial port, overrides the config")
	driveCmd.Flags().BoolVar(&unattended, "unattended", false, "resume confirmation stops on their own")

	jogCmd := &cobra.Command{
		Use:   "jog move=value...",
		Short: "run blocking lift, drive, turn or range moves on the bench",
		Long: "Runs each move in order and stops: lift=<units>, drive=<inches>, turn=<degrees, clockwise>,\n" +
			"range=<inches from the obstacle ahead>. Uses the simulated rig unless --port is given.",
		Args: cobra.MinimumNArgs(1),
		RunE: jogRobot,
	}
	jogCmd.Flags().StringVar(&preset, "preset", config.DefaultPreset, "preset for the simulated rig")
	jogCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	jogCmd.Flags().StringVar(&port, "port", "", "serial port of the motor board")

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, plotCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		compareCmd, tuneCmd, presetsCmd, scenariosCmd, configCmd, portsCmd, driveCmd, jogCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig resolves the preset, then the config file on top of it.
func loadConfig(name string) (*config.Config, error) {
	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}
	cfg, err := config.GetPreset(name)
	if err != nil {
		return nil, fmt.Errorf("%w (available: %v)", err, config.ListPresets())
	}
	return cfg, nil
}

func resolveScenario(name string) (*scenario.Scenario, error) {
	if s, ok := scenario.Builtin[name]; ok {
		return s, nil
	}
	if _, err := os.Stat(name); err == nil {
		return scenario.Load(name)
	}
	return nil, fmt.Errorf("unknown scenario: %s (available: %v)", name, scenario.Names())
}

func runSimulation(cmd *cobra.Command, args []string) error {
	var sc *scenario.Scenario
	if scenarioName != "" {
		var err error
		if sc, err = resolveScenario(scenarioName); err != nil {
			return err
		}
		if sc.Preset != "" && !cmd.Flags().Changed("preset") {
			preset = sc.Preset
		}
	}

	cfg, err := loadConfig(preset)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Sim.Integrator = integrator
	}
	if cmd.Flags().Changed("seed") {
		cfg.Sim.Rig.Seed = seed
	}
	switch {
	case cmd.Flags().Changed("time"):
		cfg.Sim.Duration = duration
	case sc != nil && sc.Duration > 0:
		cfg.Sim.Duration = sc.Duration
	}

	var log diag.Logger = diag.NewConsole(os.Stdout)
	if quiet {
		log = diag.Discard
	}

	var remote sim.RemoteFunc
	if sc != nil {
		remote = func(clock hw.Clock) (hw.Remote, error) {
			r, err := sc.Remote(clock)
			if err != nil {
				return nil, err
			}
			return r, nil
		}
	}

	bench, err := sim.Build(cfg, remote, log)
	if err != nil {
		return err
	}
	for _, m := range metrics.Standard(cfg.Sim.Plant.MaxEffort, clearance) {
		bench.Sim.AddMetric(m)
	}
	if cfg.Supervisor.RangeTest {
		bench.Sim.AddMetric(metrics.NewRangeError(cfg.Supervisor.RangeTarget))
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running %s on %s...\n", preset, cfg.Sim.Field)
	start := time.Now()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := bench.Sim.Run(ctx, sim.RunConfig(cfg))
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	meta := storage.RunMetadata{
		Preset:     preset,
		Field:      cfg.Sim.Field,
		Variant:    bench.Supervisor.Context().Mode.Variant,
		Integrator: cfg.Sim.Integrator,
		Seed:       cfg.Sim.Rig.Seed,
	}
	if sc != nil {
		meta.Scenario = sc.Name
	}
	runID, err := st.Save(meta, result)
	if err != nil {
		return err
	}

	status := color.New(color.FgGreen, color.Bold).Sprint("completed")
	if !result.Completed {
		status = color.New(color.FgYellow, color.Bold).Sprint("incomplete")
	}
	fmt.Printf("\n%s in %v wall, %.1fs simulated (%d ticks)\n", status, elapsed.Round(time.Millisecond), result.Elapsed.Seconds(), result.Ticks)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("final state: %s\n", result.Final)
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)

	heading := color.New(color.FgCyan, color.Bold)
	heading.Println("\nmetrics:")
	for _, n := range names {
		fmt.Printf("  %-14s %.6f\n", n+":", m[n])
	}
}

// launch builds a live view for a preset, with the keyboard standing in for
// the IR remote.
func launch(name string) (viz.Model, error) {
	cfg, err := config.GetPreset(name)
	if err != nil {
		return viz.Model{}, err
	}
	keys := viz.NewKeyRemote(16)
	rec := diag.NewRecorder(200)
	bench, err := sim.Build(cfg, func(hw.Clock) (hw.Remote, error) { return keys, nil }, rec)
	if err != nil {
		return viz.Model{}, err
	}
	return viz.NewModel(bench, keys, rec, name), nil
}

func driveRobot(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if port != "" {
		cfg.Serial.Port = port
	}
	if cmd.Flags().Changed("unattended") {
		cfg.Supervisor.Unattended = unattended
	}

	b, err := bridge.Open(cfg.Serial.Port, cfg.Serial.Baud, cfg.Serial.Timeout)
	if err != nil {
		return err
	}
	defer b.Close()

	log := diag.NewConsole(os.Stdout)
	sup, err := bridge.Assemble(cfg, b, hw.SystemClock{}, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Connected on %s", cfg.Serial.Port)
	errc := make(chan error, 1)
	go func() { errc <- sup.Run(ctx) }()

	watch := time.NewTicker(time.Second)
	defer watch.Stop()
	for {
		select {
		case err := <-errc:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-watch.C:
			if err := b.Err(); err != nil {
				stop()
				<-errc
				return fmt.Errorf("serial link: %w", err)
			}
		}
	}
}
