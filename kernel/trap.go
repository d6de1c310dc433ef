// trap.go - the three trap entry points: reset, IRQ, supervisor call

package kernel

// Interrupt source id the platform reports for the periodic timer. The
// platform is the sole authority on what this id actually is; the core
// only needs TimerIsSource to recognise it.
const timerIRQSource = 0

// TrapReset performs one-time bring-up: programs the timer, enables the
// interrupt controller and CPU IRQ line, invalidates every PCB, initialises
// the open-file table, installs the console PCB (pid 0), and dispatches
// into it with no prior context to preserve. ctx is the context record the
// trampoline will resume the first process from.
func (k *Kernel) TrapReset(ctx *Context) {
	k.uartByte('R')

	k.platform.TimerProgram(defaultTimerPeriod)
	k.platform.TimerEnable(true)
	k.platform.InterruptControllerUnmaskAll()
	k.platform.InterruptControllerEnableLine(timerIRQSource)
	k.platform.EnableIRQs()

	for i := range k.procTab {
		k.procTab[i] = newPCB(k.cfg.MaxFDs)
		k.procTab[i].PID = i
		k.procTab[i].Status = StatusInvalid
	}
	k.initOpenFileTable()
	k.time = 0
	k.currentProcesses = 0

	console := &k.procTab[0]
	console.TOS = k.cfg.ConsoleTOS
	console.Ctx = Context{
		PC:   k.cfg.ConsoleEntry,
		SP:   k.cfg.ConsoleTOS,
		CPSR: cpsrUserIRQEnabled,
	}
	console.LastExec = k.time
	console.Niceness = 0

	k.currentProcesses++

	k.dispatch(ctx, nil, console)
	console.Status = StatusExecuting
}

// TrapIRQ handles an interrupt request: it reads the interrupt source from
// the controller, invokes the scheduler if the source is the timer, and
// always acknowledges completion via the end-of-interrupt register.
func (k *Kernel) TrapIRQ(ctx *Context) {
	id := k.platform.InterruptAck()

	if k.platform.TimerIsSource(id) {
		k.platform.TimerClear()
		k.schedule(ctx)
	}

	k.platform.InterruptEnd(id)
}

// TrapSVC dispatches a supervisor call by its 32-bit immediate id.
// Arguments are read from ctx.GPR[0..2]; the return value (where the call
// has one) is written to ctx.GPR[0]. Unknown ids are ignored.
func (k *Kernel) TrapSVC(ctx *Context, id uint32) {
	switch id {
	case SVCYield:
		k.schedule(ctx)
	case SVCWrite:
		k.svcWrite(ctx)
	case SVCRead:
		k.svcRead(ctx)
	case SVCFork:
		k.svcFork(ctx)
	case SVCExit:
		k.svcExit(ctx)
	case SVCExec:
		k.svcExec(ctx)
	case SVCKill:
		k.svcKill(ctx)
	case SVCNice:
		k.svcNice(ctx)
	case SVCPipe:
		k.svcPipe(ctx)
	case SVCClose:
		k.svcClose(ctx)
	}
}
