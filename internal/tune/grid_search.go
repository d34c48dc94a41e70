// Package tune searches controller gains on the simulated robot.
package tune

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/romibot/internal/config"
	"github.com/san-kum/romibot/internal/metrics"
	"github.com/san-kum/romibot/internal/sim"
)

// Param is one tunable gain and the values to try for it.
type Param struct {
	Name   string
	Values []float64
}

// ParseParam reads "name=v1,v2,...".
func ParseParam(s string) (Param, error) {
	name, list, ok := strings.Cut(s, "=")
	if !ok || name == "" || list == "" {
		return Param{}, fmt.Errorf("param %q: want name=v1,v2", s)
	}
	if _, ok := gains[name]; !ok {
		return Param{}, fmt.Errorf("unknown param: %s (available: %v)", name, Names())
	}
	p := Param{Name: name}
	for _, f := range strings.Split(list, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Param{}, fmt.Errorf("param %s: %w", name, err)
		}
		p.Values = append(p.Values, v)
	}
	return p, nil
}

var gains = map[string]func(*config.Config) *float64{
	"range.kp":  func(c *config.Config) *float64 { return &c.Chassis.Range.Kp },
	"range.ki":  func(c *config.Config) *float64 { return &c.Chassis.Range.Ki },
	"range.kd":  func(c *config.Config) *float64 { return &c.Chassis.Range.Kd },
	"line.kp":   func(c *config.Config) *float64 { return &c.Chassis.Line.Kp },
	"lift.kp":   func(c *config.Config) *float64 { return &c.Lift.Kp },
	"lift.ki":   func(c *config.Config) *float64 { return &c.Lift.Ki },
	"lift.kd":   func(c *config.Config) *float64 { return &c.Lift.Kd },
	"lift.tol":  func(c *config.Config) *float64 { return &c.Lift.Tolerance },
	"range.tol": func(c *config.Config) *float64 { return &c.Chassis.Range.Tolerance },
}

// Names lists the tunable gains.
func Names() []string {
	names := make([]string, 0, len(gains))
	for n := range gains {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Apply sets one named gain on cfg.
func Apply(cfg *config.Config, name string, v float64) error {
	g, ok := gains[name]
	if !ok {
		return fmt.Errorf("unknown param: %s", name)
	}
	*g(cfg) = v
	return nil
}

// Objective scores a run; lower is better.
type Objective func(*sim.Result) float64

// TimeToComplete scores a run by its simulated length. Runs that never finish
// score +Inf.
func TimeToComplete(r *sim.Result) float64 {
	if !r.Completed {
		return math.Inf(1)
	}
	return r.Elapsed.Seconds()
}

// Metric scores completed runs by a named metric.
func Metric(name string) Objective {
	return func(r *sim.Result) float64 {
		v, ok := r.Metrics[name]
		if !r.Completed || !ok {
			return math.Inf(1)
		}
		return v
	}
}

// Settling scores a range hold by its mean error, finished or not; the hold
// never reaches IDLE.
func Settling(r *sim.Result) float64 {
	v, ok := r.Metrics["range_error"]
	if !ok {
		return math.Inf(1)
	}
	return v
}

type Trial struct {
	Params    map[string]float64
	Score     float64
	Completed bool
	Err       error
}

type GridSearch struct {
	params    []Param
	clearance float64
}

func NewGridSearch(params []Param) *GridSearch {
	return &GridSearch{params: params, clearance: 2}
}

// Search runs base once per point of the grid and returns the best trial with
// every trial in the order run. Trials that fail to build or run are kept
// with their error and score +Inf.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, objective Objective) (Trial, []Trial, error) {
	for _, p := range g.params {
		if _, ok := gains[p.Name]; !ok {
			return Trial{}, nil, fmt.Errorf("unknown param: %s", p.Name)
		}
		if len(p.Values) == 0 {
			return Trial{}, nil, fmt.Errorf("param %s: no values", p.Name)
		}
	}

	best := Trial{Score: math.Inf(1)}
	var trials []Trial
	err := g.searchRecursive(ctx, 0, map[string]float64{}, base, objective, &best, &trials)
	return best, trials, err
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	objective Objective,
	best *Trial,
	trials *[]Trial,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.params) {
		t := g.trial(ctx, current, base, objective)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		*trials = append(*trials, t)
		if t.Score < best.Score || best.Params == nil {
			*best = t
		}
		return nil
	}

	p := g.params[depth]
	for _, val := range p.Values {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[p.Name] = val
		if err := g.searchRecursive(ctx, depth+1, next, base, objective, best, trials); err != nil {
			return err
		}
	}
	return nil
}

func (g *GridSearch) trial(ctx context.Context, params map[string]float64, base *config.Config, objective Objective) Trial {
	t := Trial{Params: params, Score: math.Inf(1)}

	cfg := *base
	cfg.Variants = append(cfg.Variants[:0:0], base.Variants...)
	for name, v := range params {
		if t.Err = Apply(&cfg, name, v); t.Err != nil {
			return t
		}
	}

	bench, err := sim.Build(&cfg, nil, nil)
	if err != nil {
		t.Err = err
		return t
	}
	for _, m := range metrics.Standard(cfg.Sim.Plant.MaxEffort, g.clearance) {
		bench.Sim.AddMetric(m)
	}
	if cfg.Supervisor.RangeTest {
		bench.Sim.AddMetric(metrics.NewRangeError(cfg.Supervisor.RangeTarget))
	}
	result, err := bench.Sim.Run(ctx, sim.RunConfig(&cfg))
	if err != nil {
		t.Err = err
		return t
	}
	t.Completed = result.Completed
	t.Score = objective(result)
	return t
}
