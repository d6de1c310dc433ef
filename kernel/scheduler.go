// scheduler.go - aging-with-niceness process selection

package kernel

// schedule picks the next process to run and dispatches into it.
//
// score(i) = (time - procTab[i].LastExec) - procTab[i].Niceness
//
// over every READY PCB. The currently-executing process is disadvantaged
// by starting the comparison at executing.Niceness - 1 instead of its own
// score, so any READY peer whose aged priority is >= that strict lower
// bound preempts it; this is what gives equally-weighted processes
// round-robin behaviour while still letting a starved low-niceness process
// leapfrog ahead of its turn. Ties go to the lowest-indexed such PCB.
//
// Arithmetic is signed 32-bit; time wraps after 2^32 ticks, far beyond
// any run of this kernel.
func (k *Kernel) schedule(ctx *Context) {
	executing := k.executing
	prevIndex := executing.PID
	nextIndex := executing.PID
	highestPriority := executing.Niceness - 1
	found := false

	for i := range k.procTab {
		p := &k.procTab[i]
		if p.Status != StatusReady {
			continue
		}
		priority := int32(k.time-p.LastExec) - p.Niceness
		if priority > highestPriority || (!found && priority == highestPriority) {
			highestPriority = priority
			nextIndex = i
			found = true
		}
	}

	k.dispatch(ctx, executing, &k.procTab[nextIndex])

	prev := &k.procTab[prevIndex]
	prev.LastExec = k.time
	if prev.Status == StatusExecuting {
		prev.Status = StatusReady
	}
	k.procTab[nextIndex].Status = StatusExecuting

	k.time++
}
