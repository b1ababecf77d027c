package internal

import "sync"

// ThreadList is the VM's set of live thread objects, plus a group-stop
// primitive used when a thread raises a fatal error and the rest of the VM
// must wind down.
type ThreadList struct {
	mu      sync.RWMutex
	threads map[*Thread]*Object
}

// NewThreadList creates an empty thread list.
func NewThreadList() *ThreadList {
	return &ThreadList{threads: make(map[*Thread]*Object)}
}

// Add registers a thread (and the Object that wraps it) as live.
func (l *ThreadList) Add(t *Thread, obj *Object) {
	l.mu.Lock()
	l.threads[t] = obj
	l.mu.Unlock()
}

// Remove unregisters a thread, typically once it has finished.
func (l *ThreadList) Remove(t *Thread) {
	l.mu.Lock()
	delete(l.threads, t)
	l.mu.Unlock()
}

// StopAll sets the should_stop flag on every registered thread.
func (l *ThreadList) StopAll() {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for t := range l.threads {
		t.Stop()
	}
}

// Snapshot returns the threads currently registered, for joining at
// shutdown.
func (l *ThreadList) Snapshot() []*Thread {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*Thread, 0, len(l.threads))
	for t := range l.threads {
		out = append(out, t)
	}
	return out
}
