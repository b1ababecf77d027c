package internal

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Parser is the external bytecode-parsing collaborator: given a filesystem
// path, it yields a compiled-code value or a parse diagnostic. The VM never
// parses bytecode itself.
type Parser interface {
	Parse(path string) (*CompiledCode, error)
}

// VM is a single, self-contained instance of the virtual machine: it owns a
// heap, a thread set, and an executed-file registry, independent of any
// other VM in the process.
type VM struct {
	Heap    *Heap
	Threads *ThreadList
	Parser  Parser

	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader

	exitMu     sync.RWMutex
	exitFailed bool

	filesMu sync.Mutex
	files   map[string]struct{}

	// TraceOpcodes, when set, makes the dispatch loop print each opcode it
	// executes to Stderr. Wired from the CLI's YAML config; it has no effect
	// on program semantics.
	TraceOpcodes bool
}

// New builds a VM with its heap and thread list initialized and stdio wired
// to the process's standard streams.
func New() *VM {
	return &VM{
		Heap:    NewHeap(),
		Threads: NewThreadList(),
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Stdin:   os.Stdin,
		files:   make(map[string]struct{}),
	}
}

// ExitFailed reports whether any thread has raised a fatal error. Once
// true, it never reverts to false.
func (vm *VM) ExitFailed() bool {
	vm.exitMu.RLock()
	defer vm.exitMu.RUnlock()
	return vm.exitFailed
}

// markExitFailed transitions the VM's exit status to failure. It is
// idempotent and monotonic.
func (vm *VM) markExitFailed() {
	vm.exitMu.Lock()
	vm.exitFailed = true
	vm.exitMu.Unlock()
}

// ExitStatus maps ExitFailed to the process exit code convention: 0 on
// success, 1 on any fatal error.
func (vm *VM) ExitStatus() int {
	if vm.ExitFailed() {
		return 1
	}
	return 0
}

// markExecuted records path as executed, reporting whether it was already
// present. The check-then-insert is atomic under filesMu so that concurrent
// RunFileFast calls on the same path still achieve at-most-once semantics.
func (vm *VM) markExecuted(path string) (alreadyDone bool) {
	abs, err := filepath.Abs(path)
	if err == nil {
		path = abs
	}
	vm.filesMu.Lock()
	defer vm.filesMu.Unlock()
	if _, ok := vm.files[path]; ok {
		return true
	}
	vm.files[path] = struct{}{}
	return false
}

// reportFatal marks the VM failed, formats a backtrace from the thread's
// frame chain, writes the banner and backtrace to Stderr, and stops every
// other thread.
func (vm *VM) reportFatal(t *Thread, err *FatalError) {
	vm.markExitFailed()
	err.Backtrace = Backtrace(t.Frame())
	fmt.Fprintln(vm.Stderr, "fatal error:", err.Message)
	for _, line := range err.Backtrace {
		fmt.Fprintln(vm.Stderr, "\t", line)
	}
	vm.Threads.StopAll()
}

// Start runs root as the main thread's program to completion, waits for
// every thread StartThread spawned along the way to finish, and returns the
// process exit status. It is the VM's single public entry point for running
// a program.
func (vm *VM) Start(root *CompiledCode) int {
	main := NewThread(true)
	vm.Threads.Add(main, nil)

	_, fatal := vm.RunCode(main, root, nil)
	if fatal != nil {
		vm.reportFatal(main, fatal)
	}
	vm.Threads.Remove(main)

	for _, t := range vm.Threads.Snapshot() {
		<-t.Done
	}

	return vm.ExitStatus()
}
