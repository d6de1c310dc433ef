// syscall.go - the supervisor-call surface: process control and pipe I/O

package kernel

// Supervisor call immediate ids.
const (
	SVCYield uint32 = 0x00
	SVCWrite uint32 = 0x01
	SVCRead  uint32 = 0x02
	SVCFork  uint32 = 0x03
	SVCExit  uint32 = 0x04
	SVCExec  uint32 = 0x05
	SVCKill  uint32 = 0x06
	SVCNice  uint32 = 0x07
	SVCPipe  uint32 = 0x08
	SVCClose uint32 = 0x09
)

const userStackSlotSize = 0x2000

// svcWrite implements write(fd, buf_ptr, n). fd < 0 is a protocol error;
// fd 0/1/2 are the reserved streams; fd >= 3 writes into a pipe.
func (k *Kernel) svcWrite(ctx *Context) {
	fd := int(ctx.GPR[0])
	bufPtr := uint32(ctx.GPR[1])
	n := int(ctx.GPR[2])

	if fd < 0 {
		k.uartString("\nERR: cannot address negative fd")
		ctx.GPR[0] = -1
		return
	}
	if n < 0 {
		n = 0
	}

	switch fd {
	case FDStdin:
		ctx.GPR[0] = 0
	case FDStdout:
		buf := make([]byte, n)
		k.mem.ReadAt(bufPtr, buf)
		for _, b := range buf {
			k.uartByte(b)
		}
		ctx.GPR[0] = int32(n)
	case FDStderr:
		k.uartString("\nwrite error")
		ctx.GPR[0] = -1
	default:
		of := k.liveOpenFile(fd)
		if of == nil {
			ctx.GPR[0] = -1
			return
		}
		buf := make([]byte, n)
		k.mem.ReadAt(bufPtr, buf)
		written := of.file.write(buf)
		ctx.GPR[0] = int32(written)
	}
}

// svcRead implements read(fd, buf_ptr, n).
func (k *Kernel) svcRead(ctx *Context) {
	fd := int(ctx.GPR[0])
	bufPtr := uint32(ctx.GPR[1])
	n := int(ctx.GPR[2])

	if fd < 0 {
		k.uartString("\nERR: cannot address negative fd")
		ctx.GPR[0] = -1
		return
	}
	if n < 0 {
		n = 0
	}

	switch fd {
	case FDStdin:
		k.uartString("\nread stdin")
		ctx.GPR[0] = 0
	case FDStdout:
		k.uartString("\nread stdout")
		ctx.GPR[0] = 0
	case FDStderr:
		k.uartString("\nread error")
		ctx.GPR[0] = -1
	default:
		of := k.liveOpenFile(fd)
		if of == nil {
			ctx.GPR[0] = -1
			return
		}
		buf := make([]byte, n)
		got := of.file.read(buf)
		k.mem.WriteAt(bufPtr, buf[:got])
		ctx.GPR[0] = int32(got)
	}
}

// svcFork implements fork(): locate a destination slot, duplicate the
// parent's register context and stack, inherit descriptors and niceness.
func (k *Kernel) svcFork(ctx *Context) {
	k.uartByte('F')

	if k.currentProcesses >= len(k.procTab) {
		k.uartString("\nERR: process table full")
		ctx.GPR[0] = -1
		return
	}

	slot := k.findTerminatedOrNextSlot()
	if slot < 0 {
		ctx.GPR[0] = -1
		return
	}
	k.currentProcesses++

	parent := k.executing
	child := &k.procTab[slot]
	*child = newPCB(k.cfg.MaxFDs)
	child.PID = slot
	child.Status = StatusReady
	child.TOS = k.cfg.UserStackBase - uint32(slot-1)*userStackSlotSize

	child.Ctx = *ctx

	stackHeight := parent.TOS - ctx.SP
	child.Ctx.SP = child.TOS - stackHeight
	stack := make([]byte, stackHeight)
	k.mem.ReadAt(ctx.SP, stack)
	k.mem.WriteAt(child.Ctx.SP, stack)

	child.LastExec = k.time
	child.Niceness = parent.Niceness

	for i := range parent.FDTab {
		fd := parent.FDTab[i]
		child.FDTab[i] = fd
		if fd >= 0 {
			k.openFileTab[fd].refCount++
		}
	}

	ctx.GPR[0] = int32(child.PID)
	child.Ctx.GPR[0] = 0
}

// svcExit implements exit(status): closes every descriptor the caller
// holds, marks it terminated, and schedules away from it. The caller never
// returns from this call.
func (k *Kernel) svcExit(ctx *Context) {
	k.uartByte('X')
	k.terminate(k.executing)
	k.schedule(ctx)
}

// svcExec implements exec(entry_ptr): replaces the process image by
// resetting pc to the supplied entry point and sp to the process' top of
// stack. No descriptor, niceness, or pid change.
func (k *Kernel) svcExec(ctx *Context) {
	k.uartByte('E')
	ctx.PC = uint32(ctx.GPR[0])
	ctx.SP = k.executing.TOS
}

// svcKill implements kill(pid, status): an unconditional teardown of an
// arbitrary pid, identical to exit but targeting someone else. Killing a
// pid that is not READY or EXECUTING is rejected rather than left to
// drive currentProcesses below the true live count.
func (k *Kernel) svcKill(ctx *Context) {
	k.uartByte('K')
	pid := int(ctx.GPR[0])

	if pid < 0 || pid >= len(k.procTab) {
		ctx.GPR[0] = -1
		return
	}
	target := &k.procTab[pid]
	if target.Status != StatusReady && target.Status != StatusExecuting {
		ctx.GPR[0] = -1
		return
	}

	k.terminate(target)
	ctx.GPR[0] = 0
}

// terminate closes every descriptor p holds, marks it TERMINATED, and
// decrements currentProcesses. Shared by exit and kill.
func (k *Kernel) terminate(p *PCB) {
	for i := range p.FDTab {
		fd := p.FDTab[i]
		if fd >= 0 {
			k.close(int(fd), p.PID)
		}
	}
	p.Status = StatusTerminated
	k.currentProcesses--
}

// svcNice implements nice(pid, x): clamp x to [-19, +20], store it, and
// return the clamped value.
func (k *Kernel) svcNice(ctx *Context) {
	k.uartByte('N')
	pid := int(ctx.GPR[0])
	if pid < 0 || pid >= len(k.procTab) {
		ctx.GPR[0] = -1
		return
	}
	x := clampNiceness(ctx.GPR[1])
	k.procTab[pid].Niceness = x
	ctx.GPR[0] = x
}

// svcPipe implements pipe(pair_out): allocate a bounded pipe, open it
// RDONLY then WRONLY, and write the [readFD, writeFD] pair to the address
// in GPR[0].
func (k *Kernel) svcPipe(ctx *Context) {
	pairPtr := uint32(ctx.GPR[0])
	var pair [2]int32

	if k.pipeCall(k.executing, pair[:]) != 0 {
		k.uartString("\npipe failed")
		ctx.GPR[0] = -1
		return
	}

	buf := make([]byte, 8)
	putInt32(buf[0:4], pair[0])
	putInt32(buf[4:8], pair[1])
	k.mem.WriteAt(pairPtr, buf)
	ctx.GPR[0] = 0
}

// svcClose implements close(fd).
func (k *Kernel) svcClose(ctx *Context) {
	fd := int(ctx.GPR[0])
	ctx.GPR[0] = int32(k.close(fd, k.executing.PID))
}

func putInt32(b []byte, v int32) {
	u := uint32(v)
	b[0] = byte(u)
	b[1] = byte(u >> 8)
	b[2] = byte(u >> 16)
	b[3] = byte(u >> 24)
}
