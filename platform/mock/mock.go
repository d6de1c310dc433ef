// Package mock provides a deterministic, in-memory kernel.Platform and
// kernel.Memory for exercising the core outside of real hardware. The
// demo runtime (procrt) and its tests drive the kernel against it.
package mock

import "fmt"

// Platform is a fake kernel.Platform: it records the UART byte stream and
// lets a driver (a test, or procrt's timer goroutine) fire synthetic timer
// IRQs on demand instead of waiting on a real interrupt controller.
type Platform struct {
	UART []byte

	irqsEnabled  bool
	timerEnabled bool
	timerPeriod  uint32

	// pendingSource is returned by InterruptAck; the timer is always
	// source 0 in this simulation, matching kernel's timerIRQSource.
	pendingSource uint32
}

// New returns a Platform with the timer as the only interrupt source.
func New() *Platform {
	return &Platform{}
}

func (p *Platform) UARTPutc(b byte) { p.UART = append(p.UART, b) }

func (p *Platform) EnableIRQs()  { p.irqsEnabled = true }
func (p *Platform) DisableIRQs() { p.irqsEnabled = false }

func (p *Platform) TimerProgram(period uint32) { p.timerPeriod = period }
func (p *Platform) TimerEnable(enabled bool)   { p.timerEnabled = enabled }

func (p *Platform) InterruptControllerUnmaskAll()               {}
func (p *Platform) InterruptControllerEnableLine(source uint32) {}

func (p *Platform) InterruptAck() uint32       { return p.pendingSource }
func (p *Platform) InterruptEnd(source uint32) {}

func (p *Platform) TimerIsSource(id uint32) bool { return id == p.pendingSource }
func (p *Platform) TimerClear()                  {}

// IRQsEnabled and TimerEnabled let a driver confirm reset actually armed
// the platform before it starts firing ticks.
func (p *Platform) IRQsEnabled() bool  { return p.irqsEnabled }
func (p *Platform) TimerEnabled() bool { return p.timerEnabled }

// Trace returns the UART byte stream collected so far as a string, for
// asserting against the "[a->b]" dispatch trace and the R/F/X/E/K/N
// single-character markers.
func (p *Platform) Trace() string { return string(p.UART) }

// Memory is a flat byte slice standing in for the shared, unprotected
// address space kernel.Memory models - there is no MMU in this system.
type Memory struct {
	bytes []byte
}

// NewMemory allocates a flat address space of the given size.
func NewMemory(size int) *Memory {
	return &Memory{bytes: make([]byte, size)}
}

func (m *Memory) ReadAt(addr uint32, buf []byte) {
	if int(addr)+len(buf) > len(m.bytes) {
		panic(fmt.Sprintf("mock memory: read [%#x, %#x) out of range (size %#x)", addr, int(addr)+len(buf), len(m.bytes)))
	}
	copy(buf, m.bytes[addr:])
}

func (m *Memory) WriteAt(addr uint32, buf []byte) {
	if int(addr)+len(buf) > len(m.bytes) {
		panic(fmt.Sprintf("mock memory: write [%#x, %#x) out of range (size %#x)", addr, int(addr)+len(buf), len(m.bytes)))
	}
	copy(m.bytes[addr:], buf)
}
