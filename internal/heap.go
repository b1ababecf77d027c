package internal

import "sync"

// protoNames are the primitive kinds that receive a per-VM singleton
// prototype.
var protoNames = []string{
	"Integer", "Float", "String", "Array",
	"Thread", "Method", "CompiledCode", "File",
	"True", "False",
}

// Heap is the per-VM memory manager: it allocates objects and owns the
// singleton prototypes, the True and False objects, and the top-level
// object. Heap growth (allocation) is guarded by a single writer lock;
// prototype lookups are guarded by a reader lock.
type Heap struct {
	allocMu sync.Mutex

	protoMu   sync.RWMutex
	protos    map[string]*Object
	True      *Object
	False     *Object
	TopLevel  *Object
}

// NewHeap builds a Heap with its singletons already allocated.
func NewHeap() *Heap {
	h := &Heap{protos: make(map[string]*Object, len(protoNames))}
	for _, name := range protoNames {
		h.protos[name] = newBareObject()
	}
	h.True = newBareObject()
	h.True.SetPrototype(h.protos["True"])
	h.False = newBareObject()
	h.False.SetPrototype(h.protos["False"])
	h.TopLevel = newBareObject()
	return h
}

// Allocate returns a fresh object bound to the given value and prototype.
func (h *Heap) Allocate(value Value, prototype *Object) *Object {
	h.allocMu.Lock()
	defer h.allocMu.Unlock()
	o := newBareObject()
	o.value = value
	o.prototype = prototype
	return o
}

// AllocatePrepared registers a caller-constructed object into the heap,
// assigning it an identity. This is used when the prototype must be chosen
// dynamically (e.g. SetObject with an explicit prototype register) so the
// caller builds the Object directly rather than going through Allocate.
func (h *Heap) AllocatePrepared(obj *Object) *Object {
	h.allocMu.Lock()
	defer h.allocMu.Unlock()
	if obj.id == 0 {
		obj.id = nextObjectID()
	}
	return obj
}

// AllocateError constructs a recoverable error object. Error objects have
// no prototype and never enter normal prototype chains; IsError recognizes
// them by Kind alone.
func (h *Heap) AllocateError(text string) *Object {
	h.allocMu.Lock()
	defer h.allocMu.Unlock()
	o := newBareObject()
	o.value = Value{Kind: KindError, Error: text}
	return o
}

// Prototype returns the singleton prototype for the given primitive kind
// name ("Integer", "Float", "String", "Array", "Thread", "Method",
// "CompiledCode", "File", "True", "False"). Panics if name is not one of
// these, since that indicates an interpreter bug, not a program error.
func (h *Heap) Prototype(name string) *Object {
	h.protoMu.RLock()
	defer h.protoMu.RUnlock()
	p, ok := h.protos[name]
	if !ok {
		panic("internal: unknown prototype kind " + name)
	}
	return p
}

// GetToplevel returns the VM's top-level object.
func (h *Heap) GetToplevel() *Object {
	return h.TopLevel
}
