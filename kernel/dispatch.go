// dispatch.go - context switch between the outgoing and incoming process

package kernel

// dispatch performs the actual context switch: it saves ctx into prev (if
// prev is non-nil - it is nil only on the very first dispatch out of
// reset), restores next's saved context into ctx, and updates k.executing.
// It emits the diagnostic trace "[<prev>-><next>]" to the UART, using "?"
// for a nil side, in exact dispatch order - the trace is a ground truth
// for tests.
func (k *Kernel) dispatch(ctx *Context, prev, next *PCB) {
	k.uartByte('[')

	if prev != nil {
		prev.Ctx = *ctx
		k.uartPID(prev.PID)
	} else {
		k.uartByte('?')
	}

	k.uartByte('-')
	k.uartByte('>')

	if next != nil {
		*ctx = next.Ctx
		k.uartPID(next.PID)
	} else {
		k.uartByte('?')
	}

	k.uartByte(']')

	k.executing = next
}

// uartPID writes a pid as a two-digit decimal, the fixed width the
// dispatch trace uses.
func (k *Kernel) uartPID(pid int) {
	k.uartByte('0' + byte((pid/10)%10))
	k.uartByte('0' + byte(pid%10))
}

func (k *Kernel) uartByte(b byte) {
	k.platform.UARTPutc(b)
}

func (k *Kernel) uartString(s string) {
	for i := 0; i < len(s); i++ {
		k.uartByte(s[i])
	}
}
