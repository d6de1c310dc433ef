package kernel

// fakePlatform is a minimal, deterministic Platform used by the core's own
// tests: no real timer or interrupt controller, just enough bookkeeping to
// drive TrapReset/TrapIRQ and capture the UART trace.
type fakePlatform struct {
	uart          []byte
	irqsEnabled   bool
	timerEnabled  bool
	timerPeriod   uint32
	pendingSource uint32
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{pendingSource: timerIRQSource}
}

func (f *fakePlatform) UARTPutc(b byte)                             { f.uart = append(f.uart, b) }
func (f *fakePlatform) EnableIRQs()                                 { f.irqsEnabled = true }
func (f *fakePlatform) DisableIRQs()                                { f.irqsEnabled = false }
func (f *fakePlatform) TimerProgram(period uint32)                  { f.timerPeriod = period }
func (f *fakePlatform) TimerEnable(enabled bool)                    { f.timerEnabled = enabled }
func (f *fakePlatform) InterruptControllerUnmaskAll()               {}
func (f *fakePlatform) InterruptControllerEnableLine(source uint32) {}
func (f *fakePlatform) InterruptAck() uint32                        { return f.pendingSource }
func (f *fakePlatform) InterruptEnd(source uint32)                  {}
func (f *fakePlatform) TimerIsSource(id uint32) bool                { return id == timerIRQSource }
func (f *fakePlatform) TimerClear()                                 {}

func (f *fakePlatform) trace() string { return string(f.uart) }

// fakeMemory is a flat byte slice standing in for the shared, unprotected
// address space (kernel.Memory).
type fakeMemory struct {
	bytes []byte
}

func newFakeMemory(size int) *fakeMemory {
	return &fakeMemory{bytes: make([]byte, size)}
}

func (m *fakeMemory) ReadAt(addr uint32, buf []byte)  { copy(buf, m.bytes[addr:]) }
func (m *fakeMemory) WriteAt(addr uint32, buf []byte) { copy(m.bytes[addr:], buf) }

const (
	testMemSize       = 1 << 16
	testConsoleTOS    = 0xF000
	testUserStackBase = 0xE000
	testConsoleEntry  = 0x1000
)

func newTestKernel() (*Kernel, *fakePlatform, *fakeMemory) {
	plat := newFakePlatform()
	mem := newFakeMemory(testMemSize)
	cfg := Config{
		MaxProcs:      4,
		MaxFDs:        8,
		PipeCap:       8,
		ConsoleTOS:    testConsoleTOS,
		UserStackBase: testUserStackBase,
		ConsoleEntry:  testConsoleEntry,
	}
	return New(plat, mem, cfg), plat, mem
}
