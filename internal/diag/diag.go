// Package diag carries the robot's diagnostic output: state names, move
// completions and operator mode changes, one formatted line at a time.
package diag

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
)

type Logger interface {
	Printf(format string, args ...any)
}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Discard drops every line.
var Discard Logger = discard{}

// Console writes timestamped lines, highlighting pause and completion
// messages so they stand out while the robot is running.
type Console struct {
	mu  sync.Mutex
	out io.Writer
	now func() time.Time
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out, now: time.Now}
}

var (
	stampColor = color.New(color.FgHiBlack)
	warnColor  = color.New(color.FgYellow, color.Bold)
	doneColor  = color.New(color.FgGreen)
	stateColor = color.New(color.FgCyan, color.Bold)
)

func (c *Console) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	c.mu.Lock()
	defer c.mu.Unlock()

	stampColor.Fprintf(c.out, "[%s] ", c.now().Format("15:04:05"))
	paint(msg).Fprintln(c.out, msg)
}

func paint(msg string) *color.Color {
	switch {
	case strings.HasPrefix(msg, "Paused"), strings.Contains(msg, "confirmation"), strings.Contains(msg, "STOPPED"):
		return warnColor
	case strings.Contains(msg, "complete"), strings.Contains(msg, "reached"):
		return doneColor
	case msg == strings.ToUpper(msg):
		return stateColor
	default:
		return color.New(color.Reset)
	}
}

// Recorder keeps the most recent lines in memory.
type Recorder struct {
	mu    sync.Mutex
	lines []string
	limit int
}

func NewRecorder(limit int) *Recorder {
	if limit <= 0 {
		limit = 100
	}
	return &Recorder{limit: limit, lines: make([]string, 0, limit)}
}

func (r *Recorder) Printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.lines) == r.limit {
		r.lines = r.lines[1:]
	}
	r.lines = append(r.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the retained lines, oldest first.
func (r *Recorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.lines))
	copy(out, r.lines)
	return out
}

// Count returns how many retained lines equal msg.
func (r *Recorder) Count(msg string) int {
	n := 0
	for _, l := range r.Lines() {
		if l == msg {
			n++
		}
	}
	return n
}

// Tee fans a line out to several loggers.
type Tee []Logger

func (t Tee) Printf(format string, args ...any) {
	for _, l := range t {
		l.Printf(format, args...)
	}
}
