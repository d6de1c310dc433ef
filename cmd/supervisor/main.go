// Command supervisor boots the kernel against platform/hostsim, loads a
// directory of .lua user programs (or the built-in dining-philosophers
// demo), and streams the "[a->b]" dispatch trace plus a ps-style process
// table to the terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/armkernel/hilevel/kernel"
	"github.com/armkernel/hilevel/platform/hostsim"
	"github.com/armkernel/hilevel/procrt"
	"github.com/armkernel/hilevel/procrt/luaproc"
)

func main() {
	scriptsDir := flag.String("scripts", "", "directory of .lua user programs to load (default: built-in dining-philosophers demo)")
	tick := flag.Duration("tick", 200*time.Millisecond, "wall-clock period standing in for the periodic timer tick")
	procs := flag.Int("procs", kernel.DefaultMaxProcs, "process table capacity")
	fds := flag.Int("fds", kernel.DefaultMaxFDs, "open-file table capacity")
	pipeCap := flag.Int("pipe-cap", kernel.DefaultPipeCap, "pipe buffer capacity in bytes")
	monitorEvery := flag.Int("monitor-every", 25, "print a ps-style process table every N console turns (0 disables)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: supervisor [options]\n\nBoots the kernel against a real terminal and timer, running .lua user\nprograms as simulated processes.\n\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	cfg := kernel.Config{
		MaxProcs:      *procs,
		MaxFDs:        *fds,
		PipeCap:       *pipeCap,
		ConsoleTOS:    0xF0000,
		UserStackBase: 0xE0000,
		ConsoleEntry:  0x1000,
	}

	scripts, err := loadScripts(*scriptsDir)
	if err != nil {
		log.Fatalf("supervisor: %v", err)
	}

	plat := hostsim.New(os.Stdout, *tick)
	if err := plat.Start(); err != nil {
		log.Fatalf("supervisor: %v", err)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		plat.Stop()
	}()

	rt := procrt.New(plat, cfg, 1<<20)

	var watcher *fsnotify.Watcher
	if *scriptsDir != "" {
		watcher, err = fsnotify.NewWatcher()
		if err != nil {
			log.Fatalf("supervisor: fsnotify: %v", err)
		}
		defer watcher.Close()
		if err := watcher.Add(*scriptsDir); err != nil {
			log.Fatalf("supervisor: watch %s: %v", *scriptsDir, err)
		}
	}

	// Hot-loaded scripts are forked by the console itself, between its
	// yields: only the console goroutine may make supervisor calls on the
	// console's behalf, so the watcher goroutine hands scripts over on a
	// channel instead of forking directly.
	hotScripts := make(chan *luaproc.Script, 8)
	if watcher != nil {
		go watchScripts(watcher, hotScripts)
	}

	done := make(chan struct{})
	go func() {
		rt.Boot(func(console *procrt.Process) {
			for _, s := range scripts {
				console.Fork(luaproc.Body(s, nil))
			}
			ticks := 0
			for {
				console.Yield()
				select {
				case s := <-hotScripts:
					console.Fork(luaproc.Body(s, nil))
				default:
				}
				ticks++
				if *monitorEvery > 0 && ticks%*monitorEvery == 0 {
					printMonitor(rt.Kernel())
				}
			}
		})
		close(done)
	}()

	go driveTimer(rt, plat)

	<-plat.Done()
	// The console's user-program loop runs forever by design (it only
	// gives up its turn, never exits) - once the platform has shut down
	// there's nothing left driving the scheduler, so main doesn't wait on
	// done; the process exits and its parked goroutines go with it.
}

// driveTimer delivers a periodic timer IRQ to the kernel on every hostsim
// tick, until the platform shuts down.
func driveTimer(rt *procrt.Runtime, plat *hostsim.Platform) {
	for {
		select {
		case <-plat.Ticks():
			rt.Tick()
		case <-plat.Done():
			return
		}
	}
}

// loadScripts reads every .lua file in dir, or returns the built-in
// dining-philosophers demo if dir is empty.
func loadScripts(dir string) ([]*luaproc.Script, error) {
	if dir == "" {
		return []*luaproc.Script{luaproc.Philosophers()}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scripts dir %s: %w", dir, err)
	}

	var scripts []*luaproc.Script
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".lua") {
			continue
		}
		s, err := luaproc.Load(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

// watchScripts hot-loads a .lua file dropped into the watched directory
// and queues it for the console to fork as a new process, without
// restarting the supervisor.
func watchScripts(watcher *fsnotify.Watcher, out chan<- *luaproc.Script) {
	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			if !strings.HasSuffix(ev.Name, ".lua") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			script, err := luaproc.Load(ev.Name)
			if err != nil {
				log.Printf("supervisor: hot-load %s: %v", ev.Name, err)
				continue
			}
			select {
			case out <- script:
			default:
				log.Printf("supervisor: hot-load queue full, dropping %s", ev.Name)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			log.Printf("supervisor: fsnotify: %v", err)
		}
	}
}

// printMonitor prints a ps-style snapshot of the process table.
func printMonitor(k *kernel.Kernel) {
	fmt.Fprintf(os.Stdout, "\n\nPID  STATUS      NICE  LASTEXEC\n")
	for _, p := range k.Snapshot() {
		if p.Status == kernel.StatusInvalid {
			continue
		}
		fmt.Fprintf(os.Stdout, "%-4d %-11s %-5d %d\n", p.PID, p.Status, p.Niceness, p.LastExec)
	}
	fmt.Fprintf(os.Stdout, "time=%d running=%d\n", k.Time(), k.CurrentProcesses())
}
