// kernel.go - the kernel supervisor: process-wide state and construction

package kernel

// Default capacities; overridable through Config. Per-process descriptor
// table length always equals MaxFDs.
const (
	DefaultMaxProcs    = 16
	DefaultMaxFDs      = 32
	DefaultPipeCap     = 32
	defaultTimerPeriod = 1 << 20 // one tick ~ 2^20 timer cycles
)

// Config supplies the construction-time parameters that, on real hardware,
// would come from the linker (tos_console, tos_p, main_console) and from
// compile-time capacity constants (MAX_PROCS, MAX_FDS). There is no linker
// in this environment, so they are passed explicitly instead.
type Config struct {
	MaxProcs      int
	MaxFDs        int
	PipeCap       int
	ConsoleTOS    uint32
	UserStackBase uint32
	ConsoleEntry  uint32
}

// withDefaults fills in zero fields with package defaults.
func (c Config) withDefaults() Config {
	if c.MaxProcs <= 0 {
		c.MaxProcs = DefaultMaxProcs
	}
	if c.MaxFDs <= 0 {
		c.MaxFDs = DefaultMaxFDs
	}
	if c.PipeCap <= 0 {
		c.PipeCap = DefaultPipeCap
	}
	return c
}

// Kernel bundles every piece of process-wide mutable state the core
// touches: the process table, the open-file table, logical time, the
// executing pointer, the live-process counter, and the injected platform
// and memory collaborators. Everything lives behind this one struct - no
// package-level globals - so a test can construct an independent Kernel
// against a mock Platform.
//
// The kernel is single-threaded by construction: there is no reentrancy
// (a running trap handler always completes before the next is taken), so
// nothing here needs its own lock. Callers that drive the kernel from
// multiple goroutines (platform/hostsim, procrt) are responsible for
// serializing calls into TrapReset/TrapIRQ/TrapSVC.
type Kernel struct {
	cfg Config

	procTab      []PCB
	openFileTab  []openFile
	pipeCapacity int

	time             uint32
	executing        *PCB
	currentProcesses int

	platform Platform
	mem      Memory
}

// New constructs a Kernel. It does not perform reset - call TrapReset to
// bring the system up, mirroring the real kernel's three independent trap
// entry points.
func New(platform Platform, mem Memory, cfg Config) *Kernel {
	cfg = cfg.withDefaults()
	k := &Kernel{
		cfg:          cfg,
		procTab:      make([]PCB, cfg.MaxProcs),
		openFileTab:  make([]openFile, cfg.MaxFDs),
		pipeCapacity: cfg.PipeCap,
		platform:     platform,
		mem:          mem,
	}
	for i := range k.procTab {
		k.procTab[i] = newPCB(cfg.MaxFDs)
		k.procTab[i].PID = i
	}
	return k
}

// Time returns the kernel's current logical tick counter.
func (k *Kernel) Time() uint32 { return k.time }

// CurrentProcesses returns the number of PCBs with status READY or
// EXECUTING.
func (k *Kernel) CurrentProcesses() int { return k.currentProcesses }

// Executing returns the PID of the currently-executing process, or -1 if
// none (only possible before the first TrapReset).
func (k *Kernel) Executing() int {
	if k.executing == nil {
		return -1
	}
	return k.executing.PID
}

// Snapshot returns a copy of the process table for inspection (monitor/ps
// displays, tests). It does not include the live Context.
func (k *Kernel) Snapshot() []PCB {
	out := make([]PCB, len(k.procTab))
	copy(out, k.procTab)
	return out
}

// OpenFileRefCount returns the refcount of global descriptor index fd, or
// -1 if fd is out of range. Exposed for tests and monitors tracking
// descriptor sharing across fork/close/kill.
func (k *Kernel) OpenFileRefCount(fd int) int {
	if fd < 0 || fd >= len(k.openFileTab) {
		return -1
	}
	return k.openFileTab[fd].refCount
}
