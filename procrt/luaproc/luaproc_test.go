package luaproc

import (
	"testing"
	"time"

	"github.com/armkernel/hilevel/kernel"
	"github.com/armkernel/hilevel/platform/mock"
	"github.com/armkernel/hilevel/procrt"
)

func newTestRuntime() *procrt.Runtime {
	plat := mock.New()
	cfg := kernel.Config{
		MaxProcs: 4, MaxFDs: 8, PipeCap: 8,
		ConsoleTOS: 0xF000, UserStackBase: 0xE000, ConsoleEntry: 0x1000,
	}
	return procrt.New(plat, cfg, 1<<16)
}

// TestScriptWriteAndExit checks that a minimal script's write() reaches
// the platform UART through the Kernel's stdout path and that exit()
// actually stops the process (the runtime doesn't hang waiting on it).
func TestScriptWriteAndExit(t *testing.T) {
	rt := newTestRuntime()
	script := FromSource("hello.lua", []byte(`
		write(1, "hello from lua")
		exit(0)
	`))

	done := make(chan struct{})
	go func() {
		rt.Boot(Body(script, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("console script never returned from Boot")
	}
}

// TestScriptFork checks fork() from Lua spawns a genuinely separate
// process that the kernel's scheduler dispatches into: the child signals
// the parent over a pipe, and the parent only exits once the signal
// arrives, so Boot returning proves the child actually ran.
//
// fork() re-instantiates this same chunk for the child (see
// procrt.Process.Fork / Body's doc comment) - ARGS distinguishes the
// child from the parent, the same pattern scripts/philosophers.lua uses,
// rather than a C-style "fork returns 0 in the child".
func TestScriptFork(t *testing.T) {
	rt := newTestRuntime()

	script := FromSource("forker.lua", []byte(`
		if ARGS == nil then
			local r, w = pipe()
			fork({ wfd = w })
			local data, n = "", 0
			repeat
				data, n = read(r, 1)
				yield()
			until n == 1
			exit(0)
		else
			write(ARGS.wfd, "!")
			exit(0)
		end
	`))

	done := make(chan struct{})
	go func() {
		rt.Boot(Body(script, nil))
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("child never signalled the parent over the pipe")
	}
}
