// platform.go - the hardware boundary the core is built against

package kernel

// Platform is the narrow interface the core requires of the surrounding
// bare-metal collaborators: UART character output, the interrupt
// controller, and the periodic timer. It is a thin seam that lets the
// core run against real hardware in production and a fake in tests
// (see platform/mock) without the core ever knowing the difference.
type Platform interface {
	// UARTPutc emits one byte to the console, used for the dispatch trace
	// and the fixed single-character diagnostics.
	UARTPutc(b byte)

	// EnableIRQs / DisableIRQs unmask and mask IRQs at the CPU. Reset
	// calls EnableIRQs once during bring-up; the IRQ and supervisor-call
	// handlers call neither, since IRQs are already masked by the
	// trampoline's entry sequence by the time a handler runs.
	EnableIRQs()
	DisableIRQs()

	// TimerProgram sets the periodic timer's period, in platform-defined
	// ticks, and TimerEnable arms (or disarms) it.
	TimerProgram(period uint32)
	TimerEnable(enabled bool)

	// InterruptControllerUnmaskAll and InterruptControllerEnableLine bring
	// up the interrupt controller during reset.
	InterruptControllerUnmaskAll()
	InterruptControllerEnableLine(source uint32)

	// InterruptAck reads the interrupt controller's acknowledge register,
	// returning the id of the interrupt source being serviced.
	InterruptAck() uint32

	// InterruptEnd writes the end-of-interrupt register for the given
	// source id, signalling completion to the controller.
	InterruptEnd(source uint32)

	// TimerIsSource reports whether id (as returned by InterruptAck)
	// names the periodic timer, and TimerClear acknowledges it at the
	// timer itself.
	TimerIsSource(id uint32) bool
	TimerClear()
}

// Memory is the flat, unprotected address space the kernel and every user
// process share - there is no MMU in this system, so a supervisor call
// argument that is a pointer (a write/read buffer, a pipe() output pair,
// an exec() entry point) is just an address into this same space, and the
// kernel dereferences it directly.
type Memory interface {
	ReadAt(addr uint32, buf []byte)
	WriteAt(addr uint32, buf []byte)
}
