// context.go - saved register context, the trap/syscall ABI carrier

package kernel

// NumGPR is the number of general-purpose registers the trap dispatcher
// exposes to supervisor calls as arguments/return value (gpr[0..2]).
const NumGPR = 3

// Context is the saved CPU register file for one trapped process. It is a
// plain aggregate with no hidden header: the out-of-scope trampoline that
// wraps the three trap entry points relies on reading and writing this
// exact set of fields, so new fields must never be inserted ahead of
// existing ones in a way that would change wire-level offsets.
//
// Context is both the preemption snapshot (copied whole into and out of a
// PCB on every dispatch) and the supervisor-call ABI: arguments arrive in
// GPR[0..2], and the return value is written back to GPR[0].
type Context struct {
	GPR  [NumGPR]int32
	PC   uint32
	SP   uint32
	CPSR uint32
}

// cpsrUserIRQEnabled is the CPSR value reset installs for the console
// process: USR mode, IRQs enabled.
const cpsrUserIRQEnabled = 0x50
