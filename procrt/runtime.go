// Package procrt is the process runtime harness standing in for the
// trampoline and user-program layer that, on real hardware, sits between
// the trap vector and the kernel. It runs each simulated user process as
// a Go goroutine gated by a per-process "turn" channel, so the kernel's
// own dispatch decisions - not the Go scheduler - decide which goroutine
// is allowed to run next.
//
// procrt never touches kernel.PCB or the open-file table directly: every
// operation goes through Kernel.TrapReset/TrapIRQ/TrapSVC, the same
// boundary a hardware trampoline is confined to.
package procrt

import (
	"sync"

	"github.com/armkernel/hilevel/kernel"
)

// Runtime owns the kernel, the shared register context, and the argument
// arena, and serializes every entry into the kernel behind one mutex -
// the kernel itself assumes no reentrancy, and this is the one place
// that guarantee is enforced when multiple goroutines exist.
type Runtime struct {
	mu  sync.Mutex
	k   *kernel.Kernel
	ctx kernel.Context
	mem *arena

	procsMu sync.Mutex
	procs   map[int]*Process
}

// New constructs a Runtime around a fresh kernel. cfg.ConsoleEntry and
// the other linker-symbol fields are unused here (Go goroutines have no
// program counter to resume at) but are still threaded through Config for
// API symmetry with the core.
func New(platform kernel.Platform, cfg kernel.Config, arenaSize int) *Runtime {
	mem := newArena(arenaSize)
	rt := &Runtime{
		k:     kernel.New(platform, mem, cfg),
		mem:   mem,
		procs: make(map[int]*Process),
	}
	return rt
}

// Kernel exposes the underlying core, e.g. for a monitor/ps display.
func (rt *Runtime) Kernel() *kernel.Kernel { return rt.k }

// Boot resets the kernel (installing the console PCB as pid 0) and starts
// consoleBody running as pid 0's goroutine. It blocks until consoleBody
// returns - callers typically run Boot in its own goroutine and drive
// shutdown via the platform.
func (rt *Runtime) Boot(consoleBody func(*Process)) {
	rt.mu.Lock()
	rt.k.TrapReset(&rt.ctx)
	rt.mu.Unlock()

	console := &Process{pid: 0, rt: rt, turn: make(chan struct{}, 1)}
	rt.procsMu.Lock()
	rt.procs[0] = console
	rt.procsMu.Unlock()

	consoleBody(console)
}

// Tick delivers one periodic timer IRQ to the kernel, exactly as a real
// timer interrupt would. It is meant to be called from the platform's
// ticker goroutine (see platform/hostsim). If the tick reschedules away
// from whichever process last held the CPU, Tick wakes the new one - it
// cannot forcibly suspend the process Go is currently running, since
// procrt has no way to preempt an arbitrary goroutine mid-instruction.
// In practice this is harmless: user programs here are expected to yield
// or make another supervisor call often, so a preempted process parks at
// its next trap rather than literally between instructions - a
// simplification of the demo harness, not of the kernel core itself.
func (rt *Runtime) Tick() {
	rt.mu.Lock()
	rt.k.TrapIRQ(&rt.ctx)
	next := rt.k.Executing()
	rt.mu.Unlock()

	rt.wake(next)
}

func (rt *Runtime) wake(pid int) {
	rt.procsMu.Lock()
	p := rt.procs[pid]
	rt.procsMu.Unlock()
	if p == nil {
		return
	}
	select {
	case p.turn <- struct{}{}:
	default:
	}
}

// Process is one simulated user process: a goroutine plus the pid the
// kernel knows it by. All supervisor calls go through its methods.
type Process struct {
	pid  int
	rt   *Runtime
	turn chan struct{}
}

// PID returns the process's kernel-assigned pid.
func (p *Process) PID() int { return p.pid }

// syscall invokes the named supervisor call with up to three arguments
// and returns ctx.GPR[0]. If the call caused the scheduler to switch
// execution away from p, syscall blocks until p is dispatched back in.
func (p *Process) syscall(id uint32, a0, a1, a2 int32) int32 {
	rt := p.rt

	rt.mu.Lock()
	rt.ctx.GPR[0], rt.ctx.GPR[1], rt.ctx.GPR[2] = a0, a1, a2
	rt.k.TrapSVC(&rt.ctx, id)
	ret := rt.ctx.GPR[0]
	next := rt.k.Executing()
	rt.mu.Unlock()

	if next != p.pid {
		rt.wake(next)
		<-p.turn
	}
	return ret
}

// Yield gives up the remainder of this process's turn.
func (p *Process) Yield() { p.syscall(kernel.SVCYield, 0, 0, 0) }

// Write writes data to fd, returning the count actually written.
func (p *Process) Write(fd int, data []byte) int {
	p.rt.mu.Lock()
	addr := p.rt.mem.alloc(len(data))
	p.rt.mem.WriteAt(addr, data)
	p.rt.mu.Unlock()
	return int(p.syscall(kernel.SVCWrite, int32(fd), int32(addr), int32(len(data))))
}

// Read reads up to len(buf) bytes from fd into buf, returning the count
// actually read.
func (p *Process) Read(fd int, buf []byte) int {
	p.rt.mu.Lock()
	addr := p.rt.mem.alloc(len(buf))
	p.rt.mu.Unlock()

	n := int(p.syscall(kernel.SVCRead, int32(fd), int32(addr), int32(len(buf))))

	p.rt.mu.Lock()
	p.rt.mem.ReadAt(addr, buf[:n])
	p.rt.mu.Unlock()
	return n
}

// Fork creates a new kernel process and, in the parent, spawns childBody
// as its goroutine (blocked until the scheduler first dispatches into
// it). It returns the child's pid to the parent; childBody gets no fork
// return value of its own. procrt cannot
// literally duplicate a running goroutine's call stack the way the
// kernel's fork byte-copies a user stack, so the child is a fresh
// invocation of childBody rather than a continuation of the parent's -
// a harness simplification, not a change to the kernel's fork, which
// still performs the real stack copy underneath.
func (p *Process) Fork(childBody func(*Process)) int32 {
	childPID := p.syscall(kernel.SVCFork, 0, 0, 0)
	if childPID <= 0 {
		return childPID
	}

	child := &Process{pid: int(childPID), rt: p.rt, turn: make(chan struct{}, 1)}
	p.rt.procsMu.Lock()
	p.rt.procs[child.pid] = child
	p.rt.procsMu.Unlock()

	go func() {
		<-child.turn
		childBody(child)
	}()

	return childPID
}

// Exit terminates this process. When any other process remains runnable
// it never returns: the goroutine parks forever waiting for a turn the
// scheduler will not grant a TERMINATED pid again.
func (p *Process) Exit(status int32) {
	p.syscall(kernel.SVCExit, status, 0, 0)
}

// Exec replaces this process's saved program counter and stack pointer.
// There is no real code segment to jump into in this simulation; callers
// that want exec-like "replace my running program" behaviour should call
// Exec for the kernel-level bookkeeping and then simply stop returning
// from their current Go function and tail-call the next one themselves -
// see procrt/luaproc for a concrete instance (exec loads and runs a new
// Lua chunk in place of the current one, in the same goroutine).
func (p *Process) Exec(entry uint32) { p.syscall(kernel.SVCExec, int32(entry), 0, 0) }

// Kill forcibly terminates pid, independent of whether it is this
// process.
func (p *Process) Kill(pid int, status int32) int32 {
	return p.syscall(kernel.SVCKill, int32(pid), status, 0)
}

// Nice clamps and sets pid's niceness, returning the clamped value.
func (p *Process) Nice(pid int, niceness int32) int32 {
	return p.syscall(kernel.SVCNice, int32(pid), niceness, 0)
}

// Pipe allocates a bounded pipe and returns its [readFD, writeFD] pair.
func (p *Process) Pipe() (readFD, writeFD int32, ok bool) {
	p.rt.mu.Lock()
	addr := p.rt.mem.alloc(8)
	p.rt.mu.Unlock()

	rc := p.syscall(kernel.SVCPipe, int32(addr), 0, 0)
	if rc != 0 {
		return 0, 0, false
	}

	buf := make([]byte, 8)
	p.rt.mu.Lock()
	p.rt.mem.ReadAt(addr, buf)
	p.rt.mu.Unlock()

	readFD = int32(buf[0]) | int32(buf[1])<<8 | int32(buf[2])<<16 | int32(buf[3])<<24
	writeFD = int32(buf[4]) | int32(buf[5])<<8 | int32(buf[6])<<16 | int32(buf[7])<<24
	return readFD, writeFD, true
}

// Close closes fd for this process.
func (p *Process) Close(fd int) int32 { return p.syscall(kernel.SVCClose, int32(fd), 0, 0) }
