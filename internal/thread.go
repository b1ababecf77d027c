package internal

import (
	"strconv"
	"sync"
	"sync/atomic"
)

// Thread is a single execution context: a register file, a local-variable
// vector, the head of its call-frame stack, a cooperative stop flag, and
// (for non-main threads) the machinery to let another thread join it.
//
// The register file and locals vector are touched only by the goroutine
// running this Thread's dispatch loop, so they need no lock of their own;
// of the fields that are visible across goroutines, ShouldStop is an atomic,
// IsMain is fixed at construction, and the terminal result and fatal error
// are guarded by resultMu and published by closing the one-shot Done channel.
type Thread struct {
	registers map[int]*Object
	locals    []*Object
	frame     *CallFrame

	shouldStop atomic.Bool
	IsMain     bool

	// Self is the Object wrapping this Thread (Value.Kind == KindThread,
	// Value.Thread == this). It is set once, before the thread is published
	// to any other goroutine.
	Self *Object

	// Done is closed exactly once, after Result is set, when the thread's
	// top-level run_code call returns (normally or via a fatal error).
	Done chan struct{}

	resultMu sync.Mutex
	result   *Object
	fatal    *FatalError
}

// NewThread creates a fresh thread with empty registers and locals.
func NewThread(isMain bool) *Thread {
	return &Thread{
		registers: make(map[int]*Object),
		IsMain:    isMain,
		Done:      make(chan struct{}),
	}
}

// ShouldStop reports whether the thread has been asked to stop.
func (t *Thread) ShouldStop() bool {
	return t.shouldStop.Load()
}

// Stop asks the thread to stop at its next dispatch-loop iteration.
func (t *Thread) Stop() {
	t.shouldStop.Store(true)
}

// SetRegister writes a value into a register slot, overwriting any prior
// occupant.
func (t *Thread) SetRegister(slot int, v *Object) {
	t.registers[slot] = v
}

// Register reads a register slot. Reading a slot that was never set is an
// error.
func (t *Thread) Register(slot int) (*Object, error) {
	v, ok := t.registers[slot]
	if !ok {
		return nil, &FatalError{Message: "read of unset register " + regName(slot)}
	}
	return v, nil
}

func regName(slot int) string {
	return "r" + strconv.Itoa(slot)
}

// AddLocal appends a new local, returning its index.
func (t *Thread) AddLocal(v *Object) int {
	t.locals = append(t.locals, v)
	return len(t.locals) - 1
}

// SetLocal assigns a local by index. Out-of-range is an error.
func (t *Thread) SetLocal(idx int, v *Object) error {
	if idx < 0 || idx >= len(t.locals) {
		return &FatalError{Message: "local " + strconv.Itoa(idx) + " out of range"}
	}
	t.locals[idx] = v
	return nil
}

// Local reads a local by index. Out-of-range is an error.
func (t *Thread) Local(idx int) (*Object, error) {
	if idx < 0 || idx >= len(t.locals) {
		return nil, &FatalError{Message: "local " + strconv.Itoa(idx) + " out of range"}
	}
	return t.locals[idx], nil
}

// pushFrame installs a new call frame and a cleared local list, as every
// RunCode dispatch requires before running the callee's instructions.
func (t *Thread) pushFrame(file, name string, line int) (savedLocals []*Object) {
	t.frame = push(t.frame, file, name, line)
	savedLocals = t.locals
	t.locals = nil
	return savedLocals
}

// popFrame pops the current call frame and restores the caller's locals.
func (t *Thread) popFrame(savedLocals []*Object) {
	t.frame = t.frame.pop()
	t.locals = savedLocals
}

// Frame returns the current call frame, or nil if the thread is not
// currently running any code.
func (t *Thread) Frame() *CallFrame {
	return t.frame
}

// finish records the thread's terminal state and closes Done. It must be
// called exactly once.
func (t *Thread) finish(result *Object, fatal *FatalError) {
	t.resultMu.Lock()
	t.result = result
	t.fatal = fatal
	t.resultMu.Unlock()
	close(t.Done)
}

// Result returns the thread's terminal return value. It is only meaningful
// after Done is closed.
func (t *Thread) Result() *Object {
	t.resultMu.Lock()
	defer t.resultMu.Unlock()
	return t.result
}

// Fatal returns the fatal error that ended the thread, if any. Only
// meaningful after Done is closed.
func (t *Thread) Fatal() *FatalError {
	t.resultMu.Lock()
	defer t.resultMu.Unlock()
	return t.fatal
}

