// fdtable.go - per-process descriptor tables, open/close/pipe

package kernel

// open allocates a new open-file slot for p/flag and installs its global
// index into the first unused descriptor slot of the given PCB. The value
// stored in the per-process table is the global open-file index itself,
// not an independent local descriptor number - fd numbers are therefore
// unique across the whole system, not per process, and the per-process
// table acts as a membership set plus free list. Returns the global
// index, or -1 when the open-file table has no free slot; if the PCB's
// descriptor table has no unused slot, the index is still returned
// without being installed there.
func (k *Kernel) open(proc *PCB, p *pipe, flag Flag) int {
	fd := k.allocOpenFile(p, flag)
	if fd < 0 {
		return -1
	}
	for i := range proc.FDTab {
		if proc.FDTab[i] == NoDescriptor {
			proc.FDTab[i] = int32(fd)
			break
		}
	}
	return fd
}

// close clears every descriptor slot of pid's PCB equal to fd, drops the
// open-file entry's refcount, and frees the pipe once the count reaches
// zero. Returns -1 if fd is out of range, 0 otherwise.
func (k *Kernel) close(fd int, pid int) int {
	if fd < 0 || fd >= len(k.openFileTab) {
		return -1
	}
	proc := &k.procTab[pid]
	for i := range proc.FDTab {
		if int(proc.FDTab[i]) == fd {
			proc.FDTab[i] = NoDescriptor
		}
	}
	of := &k.openFileTab[fd]
	of.refCount--
	if of.refCount <= 0 {
		of.file = nil
	}
	return 0
}

// pipeCall allocates a new bounded pipe and opens it twice - once RDONLY, once
// WRONLY - sharing the same backing buffer. On success it writes the
// [readFD, writeFD] pair into pair and returns 0; on failure (descriptor
// space exhausted) it unwinds whichever end succeeded and returns -1.
func (k *Kernel) pipeCall(proc *PCB, pair []int32) int {
	p := newPipe(k.pipeCapacity)

	readFD := k.open(proc, p, RDONLY)
	writeFD := k.open(proc, p, WRONLY)

	if readFD == -1 || writeFD == -1 {
		if readFD >= 0 {
			k.close(readFD, proc.PID)
		}
		if writeFD >= 0 {
			k.close(writeFD, proc.PID)
		}
		return -1
	}

	pair[0] = int32(readFD)
	pair[1] = int32(writeFD)
	return 0
}
