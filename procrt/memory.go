package procrt

import "fmt"

// arena is a flat byte slice implementing kernel.Memory, used by procrt to
// marshal supervisor-call arguments (write/read buffers, pipe() output
// pairs) the way a real user process's stack or heap would back them.
// There is no MMU here - every process's "address" is just an offset
// into one shared slice, and procrt is the only caller that ever
// allocates out of it.
//
// alloc wraps around circularly rather than ever failing: a long-running
// script (scripts/philosophers.lua loops forever)
// allocates a fresh argument buffer on every syscall, and since each
// buffer is read back and discarded before the next one is requested, a
// one-shot bump allocator would eventually exhaust the arena for no
// reason. Wrapping is safe as long as no single allocation outlives the
// next one made after it, which holds here: every caller in runtime.go
// consumes its buffer before returning control to the caller that could
// request another.
type arena struct {
	bytes []byte
	next  uint32
}

func newArena(size int) *arena {
	return &arena{bytes: make([]byte, size)}
}

// alloc reserves n contiguous bytes and returns their address, wrapping
// to the start of the arena if the request would run past the end.
func (a *arena) alloc(n int) uint32 {
	if n > len(a.bytes) {
		panic(fmt.Sprintf("procrt: arena too small for a %d-byte allocation (size %#x)", n, len(a.bytes)))
	}
	if int(a.next)+n > len(a.bytes) {
		a.next = 0
	}
	addr := a.next
	a.next += uint32(n)
	return addr
}

func (a *arena) ReadAt(addr uint32, buf []byte)  { copy(buf, a.bytes[addr:]) }
func (a *arena) WriteAt(addr uint32, buf []byte) { copy(a.bytes[addr:], buf) }
