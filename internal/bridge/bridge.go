// Package bridge drives the robot's motor board over a serial line. The board
// runs a small command interpreter; every command is one line of ASCII:
//
//	E <left> <right>    wheel efforts
//	L <effort>          lift effort
//	G <microseconds>    gripper servo position
//	Q                   query sensors
//
// A query is answered with one status line:
//
//	S <countsL> <countsR> <lift> <range> <lineL> <lineR> <key>
//
// where key is the last decoded remote code, or -1 when none is pending.
package bridge

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.bug.st/serial"

	"github.com/san-kum/romibot/internal/hw"
)

var (
	ErrProtocol = errors.New("bridge: malformed reply")
	ErrClosed   = errors.New("bridge: closed")
)

const DefaultBaud = 115200

// Status is one decoded sensor reply.
type Status struct {
	CountsLeft  int
	CountsRight int
	Lift        int64
	Range       float64
	LineLeft    int
	LineRight   int
	Key         int
}

// ParseStatus decodes a status line.
func ParseStatus(line string) (Status, error) {
	f := strings.Fields(line)
	if len(f) != 8 || f[0] != "S" {
		return Status{}, fmt.Errorf("%w: %q", ErrProtocol, line)
	}
	var (
		st  Status
		err error
	)
	ints := []*int{&st.CountsLeft, &st.CountsRight, nil, nil, &st.LineLeft, &st.LineRight, &st.Key}
	for i, dst := range ints {
		if dst == nil {
			continue
		}
		if *dst, err = strconv.Atoi(f[i+1]); err != nil {
			return Status{}, fmt.Errorf("%w: field %d: %v", ErrProtocol, i+1, err)
		}
	}
	if st.Lift, err = strconv.ParseInt(f[3], 10, 64); err != nil {
		return Status{}, fmt.Errorf("%w: lift: %v", ErrProtocol, err)
	}
	if st.Range, err = strconv.ParseFloat(f[4], 64); err != nil {
		return Status{}, fmt.Errorf("%w: range: %v", ErrProtocol, err)
	}
	return st, nil
}

// Bridge implements the robot's hardware interfaces over a line-oriented
// connection. Sensor readings are refreshed by Poll and served from the
// last reply; commands are written through immediately. The first I/O error
// is kept and reported by Err; later calls are no-ops.
type Bridge struct {
	mu     sync.Mutex
	rw     io.ReadWriter
	closer io.Closer
	rd     *bufio.Reader
	err    error

	last              Status
	offLeft, offRight int
	pendingKey        int
}

var (
	_ hw.Motors      = (*Bridge)(nil)
	_ hw.Encoders    = (*Bridge)(nil)
	_ hw.RangeFinder = (*Bridge)(nil)
	_ hw.Poller      = (*Bridge)(nil)
	_ hw.LineSensor  = (*Bridge)(nil)
	_ hw.LiftMotor   = (*Bridge)(nil)
	_ hw.Gripper     = (*Bridge)(nil)
	_ hw.Remote      = (*Bridge)(nil)
)

// New wraps an open connection. If rw is also an io.Closer, Close closes it.
func New(rw io.ReadWriter) *Bridge {
	b := &Bridge{rw: rw, rd: bufio.NewReader(rw), pendingKey: -1}
	if c, ok := rw.(io.Closer); ok {
		b.closer = c
	}
	return b
}

// Open opens a serial port to the motor board.
func Open(port string, baud int, timeout time.Duration) (*Bridge, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(port, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", port, err)
	}
	if timeout > 0 {
		if err := p.SetReadTimeout(timeout); err != nil {
			p.Close()
			return nil, err
		}
	}
	return New(p), nil
}

// Ports lists the serial ports present on this machine.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (b *Bridge) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if errors.Is(b.err, ErrClosed) {
		return nil
	}
	b.err = ErrClosed
	if b.closer != nil {
		return b.closer.Close()
	}
	return nil
}

// Err returns the first I/O or protocol error, if any.
func (b *Bridge) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Bridge) send(format string, args ...any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendLocked(format, args...)
}

func (b *Bridge) sendLocked(format string, args ...any) {
	if b.err != nil {
		return
	}
	if _, err := fmt.Fprintf(b.rw, format+"\n", args...); err != nil {
		b.err = err
	}
}

// Poll queries the board and caches its reply.
func (b *Bridge) Poll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sendLocked("Q")
	if b.err != nil {
		return
	}
	line, err := b.rd.ReadString('\n')
	if err != nil {
		b.err = err
		return
	}
	st, err := ParseStatus(line)
	if err != nil {
		b.err = err
		return
	}
	b.last = st
	if st.Key >= 0 {
		b.pendingKey = st.Key
	}
}

func (b *Bridge) SetEfforts(left, right float64) {
	b.send("E %.0f %.0f", left, right)
}

func (b *Bridge) SetEffort(effort float64) {
	b.send("L %.0f", effort)
}

func (b *Bridge) Write(position int) {
	b.send("G %d", position)
}

func (b *Bridge) CountsLeft() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last.CountsLeft - b.offLeft
}

func (b *Bridge) CountsRight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last.CountsRight - b.offRight
}

func (b *Bridge) CountsAndResetLeft() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.last.CountsLeft - b.offLeft
	b.offLeft = b.last.CountsLeft
	return c
}

func (b *Bridge) CountsAndResetRight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	c := b.last.CountsRight - b.offRight
	b.offRight = b.last.CountsRight
	return c
}

func (b *Bridge) Distance() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last.Range
}

func (b *Bridge) Read(side hw.Side) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if side == hw.Left {
		return b.last.LineLeft
	}
	return b.last.LineRight
}

func (b *Bridge) Position() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last.Lift
}

// KeyCode returns the key from the last poll, once.
func (b *Bridge) KeyCode() (hw.KeyCode, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pendingKey < 0 {
		return 0, false
	}
	k := hw.KeyCode(b.pendingKey)
	b.pendingKey = -1
	return k, true
}
