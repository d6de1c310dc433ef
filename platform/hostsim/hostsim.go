// Package hostsim is the real-time kernel.Platform collaborator:
// a host terminal driven into raw mode stands in for the UART, and a
// time.Ticker stands in for the periodic timer and its interrupt
// controller line. It is the concrete platform cmd/supervisor boots the
// kernel against.
package hostsim

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Platform drives a kernel against real wall-clock time and a real
// terminal. Call Start to put the terminal in raw mode; the timer is armed
// when the kernel's reset programs it. Stop restores the terminal and
// stops the timer.
type Platform struct {
	out *os.File

	tickPeriod time.Duration
	ticker     *time.Ticker

	irqsEnabled  bool
	timerEnabled bool

	oldState *term.State
	rawFD    int
	rawSet   bool

	// pendingSource is what InterruptAck returns. Nothing writes it, so it
	// stays 0; the timer is the only interrupt source this platform models.
	pendingSource uint32

	stopOnce sync.Once
	done     chan struct{}
}

// Ticks delivers a value each time the periodic timer fires. The caller
// (the supervisor's timer loop) selects on this channel instead of
// polling.
func (p *Platform) Ticks() <-chan time.Time {
	if p.ticker == nil {
		return nil
	}
	return p.ticker.C
}

// New constructs a Platform that writes UART bytes to out (typically
// os.Stdout) and fires a timer tick every tickPeriod once the kernel
// programs or enables the timer.
func New(out *os.File, tickPeriod time.Duration) *Platform {
	return &Platform{
		out:        out,
		tickPeriod: tickPeriod,
		done:       make(chan struct{}),
	}
}

// Start puts stdin into raw mode. Nothing in this package reads from
// stdin: the simulated UART is output-only. Safe to call once; Stop
// undoes it.
func (p *Platform) Start() error {
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("hostsim: failed to set raw mode: %w", err)
	}
	p.oldState = oldState
	p.rawFD = fd
	p.rawSet = true
	return nil
}

// Stop restores the terminal and stops the ticker. Idempotent.
func (p *Platform) Stop() {
	p.stopOnce.Do(func() {
		if p.ticker != nil {
			p.ticker.Stop()
		}
		if p.rawSet {
			_ = term.Restore(p.rawFD, p.oldState)
		}
		close(p.done)
	})
}

// Done is closed once Stop has run.
func (p *Platform) Done() <-chan struct{} { return p.done }

func (p *Platform) UARTPutc(b byte) { p.out.Write([]byte{b}) }

func (p *Platform) EnableIRQs()  { p.irqsEnabled = true }
func (p *Platform) DisableIRQs() { p.irqsEnabled = false }

func (p *Platform) TimerProgram(period uint32) {
	// period is in platform-defined cycle counts; hostsim maps it onto
	// the tickPeriod supplied at construction rather than translating
	// cycles, since there is no cycle-accurate clock backing this
	// simulation.
	p.ticker = time.NewTicker(p.tickPeriod)
}

func (p *Platform) TimerEnable(enabled bool) {
	p.timerEnabled = enabled
	if p.ticker == nil && enabled {
		p.ticker = time.NewTicker(p.tickPeriod)
	}
}

func (p *Platform) InterruptControllerUnmaskAll()               {}
func (p *Platform) InterruptControllerEnableLine(source uint32) {}

func (p *Platform) InterruptAck() uint32       { return p.pendingSource }
func (p *Platform) InterruptEnd(source uint32) {}

func (p *Platform) TimerIsSource(id uint32) bool { return id == p.pendingSource }
func (p *Platform) TimerClear()                  {}
