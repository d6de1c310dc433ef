// Package luaproc gives user programs a concrete, scriptable form.
// Each loaded .lua file runs as a procrt.Process body: yield, write,
// read, fork, exit, exec, kill, nice, pipe, close are registered as Lua
// global functions that marshal arguments through a procrt.Process into
// the matching Kernel.Trap* call.
package luaproc

import (
	"fmt"
	"os"

	lua "github.com/yuin/gopher-lua"

	"github.com/armkernel/hilevel/procrt"
)

// Script is a loaded user program: its source text, kept around so that
// Fork can re-instantiate it for a child process (see procrt.Process.Fork
// and Body's doc comment for why a fresh instantiation, not a stack
// duplication, stands in for fork here).
type Script struct {
	Name   string
	Source []byte
}

// Load reads a .lua file from disk into a Script.
func Load(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("luaproc: load %s: %w", path, err)
	}
	return &Script{Name: path, Source: src}, nil
}

// FromSource builds a Script from an in-memory chunk (used for the
// embedded built-in demo scripts, see scripts.go).
func FromSource(name string, src []byte) *Script {
	return &Script{Name: name, Source: src}
}

// Body returns a procrt process body that runs script in a fresh Lua
// state, with extraGlobals (typically an ARGS table distinguishing a
// forked child's role) pre-set before the chunk executes.
func Body(script *Script, extraGlobals map[string]lua.LValue) func(*procrt.Process) {
	return func(p *procrt.Process) {
		L := lua.NewState()
		defer L.Close()
		register(L, p, script)
		for name, v := range extraGlobals {
			L.SetGlobal(name, v)
		}
		if err := L.DoString(string(script.Source)); err != nil {
			fmt.Fprintf(os.Stderr, "luaproc: %s (pid %d): %v\n", script.Name, p.PID(), err)
		}
	}
}

// register installs the supervisor-call surface as Lua globals bound to p.
func register(L *lua.LState, p *procrt.Process, self *Script) {
	L.SetGlobal("pid", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LNumber(p.PID()))
		return 1
	}))

	L.SetGlobal("yield", L.NewFunction(func(L *lua.LState) int {
		p.Yield()
		return 0
	}))

	L.SetGlobal("write", L.NewFunction(func(L *lua.LState) int {
		fd := L.CheckInt(1)
		s := L.CheckString(2)
		n := p.Write(fd, []byte(s))
		L.Push(lua.LNumber(n))
		return 1
	}))

	L.SetGlobal("read", L.NewFunction(func(L *lua.LState) int {
		fd := L.CheckInt(1)
		n := L.CheckInt(2)
		buf := make([]byte, n)
		got := p.Read(fd, buf)
		L.Push(lua.LString(buf[:got]))
		L.Push(lua.LNumber(got))
		return 2
	}))

	L.SetGlobal("fork", L.NewFunction(func(L *lua.LState) int {
		var extra map[string]lua.LValue
		if L.GetTop() >= 1 {
			if tbl, ok := L.Get(1).(*lua.LTable); ok {
				extra = map[string]lua.LValue{"ARGS": tbl}
			}
		}
		childPID := p.Fork(Body(self, extra))
		L.Push(lua.LNumber(childPID))
		return 1
	}))

	L.SetGlobal("exit", L.NewFunction(func(L *lua.LState) int {
		status := int32(L.OptInt(1, 0))
		p.Exit(status)
		return 0
	}))

	L.SetGlobal("kill", L.NewFunction(func(L *lua.LState) int {
		targetPID := L.CheckInt(1)
		status := int32(L.OptInt(2, 0))
		L.Push(lua.LNumber(p.Kill(targetPID, status)))
		return 1
	}))

	L.SetGlobal("nice", L.NewFunction(func(L *lua.LState) int {
		targetPID := L.CheckInt(1)
		n := int32(L.CheckInt(2))
		L.Push(lua.LNumber(p.Nice(targetPID, n)))
		return 1
	}))

	L.SetGlobal("pipe", L.NewFunction(func(L *lua.LState) int {
		r, w, ok := p.Pipe()
		if !ok {
			L.Push(lua.LNumber(-1))
			L.Push(lua.LNumber(-1))
			return 2
		}
		L.Push(lua.LNumber(r))
		L.Push(lua.LNumber(w))
		return 2
	}))

	L.SetGlobal("close", L.NewFunction(func(L *lua.LState) int {
		fd := L.CheckInt(1)
		L.Push(lua.LNumber(p.Close(fd)))
		return 1
	}))

	L.SetGlobal("exec", L.NewFunction(func(L *lua.LState) int {
		path := L.CheckString(1)
		next, err := Load(path)
		if err != nil {
			L.RaiseError("exec: %v", err)
			return 0
		}
		p.Exec(0) // no real entry address in this simulation; see Process.Exec

		// Replace the running program in place: a fresh Lua state runs
		// the new chunk to completion before this Lua call returns. Lua
		// has no "never return to my caller" primitive short of
		// coroutine tricks, so scripts that exec() must not rely on
		// code after the call running.
		nextL := lua.NewState()
		register(nextL, p, next)
		if err := nextL.DoString(string(next.Source)); err != nil {
			fmt.Fprintf(os.Stderr, "luaproc: exec %s (pid %d): %v\n", path, p.PID(), err)
		}
		nextL.Close()
		return 0
	}))
}
