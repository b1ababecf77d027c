// Package internal implements the virtual machine's object model, heap,
// thread scheduling, and instruction dispatch. The vire package re-exports
// the pieces of this package that make up the VM's public surface.
package internal

import (
	"sync"
	"sync/atomic"

	"github.com/zephyrtronium/contains"
)

// Kind identifies which field of a Value is meaningful.
type Kind uint8

// The nine ObjectValue variants.
const (
	KindNone Kind = iota
	KindInteger
	KindFloat
	KindString
	KindArray
	KindFile
	KindThread
	KindCompiledCode
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "None"
	case KindInteger:
		return "Integer"
	case KindFloat:
		return "Float"
	case KindString:
		return "String"
	case KindArray:
		return "Array"
	case KindFile:
		return "File"
	case KindThread:
		return "Thread"
	case KindCompiledCode:
		return "CompiledCode"
	case KindError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Value is the tagged union an Object carries. Exactly the field matching
// Kind is meaningful; the others are zero.
type Value struct {
	Kind    Kind
	Integer int64
	Float   float64
	Str     string
	Array   []*Object
	File    *FileHandle
	Thread  *Thread
	Code    *CompiledCode
	Error   string
}

// NoneValue is the default value of a plain object.
var NoneValue = Value{Kind: KindNone}

// Object is the single heap citizen. Slot tables (methods, attributes,
// constants) and the prototype link are guarded by L; the value is guarded
// by L as well, since arithmetic and conversion handlers need to take a
// consistent snapshot of an operand while another thread might be mutating
// it through SetAttr or similar.
type Object struct {
	L sync.RWMutex

	value      Value
	prototype  *Object
	methods    map[string]*Object
	attributes map[string]*Object
	constants  map[string]*Object
	name       *string
	pinned     atomic.Bool

	id uint64
}

var objectCounter uint64

func nextObjectID() uint64 {
	return atomic.AddUint64(&objectCounter, 1)
}

// newBareObject allocates an Object struct with an assigned ID but does not
// register it anywhere; callers are expected to set its fields before
// publishing the pointer to any other goroutine.
func newBareObject() *Object {
	return &Object{id: nextObjectID()}
}

// ID returns the object's unique, VM-lifetime identity.
func (o *Object) ID() uint64 {
	return o.id
}

// Value returns a copy of the object's current value under a read lock.
func (o *Object) Value() Value {
	o.L.RLock()
	defer o.L.RUnlock()
	return o.value
}

// SetValue replaces the object's value under a write lock.
func (o *Object) SetValue(v Value) {
	o.L.Lock()
	o.value = v
	o.L.Unlock()
}

// Prototype returns the object's prototype link, or nil if it has none.
// Prototype links are set at construction or via SetPrototype, which
// rejects cycles; the field is mutated under the write lock and read here
// under the read lock.
func (o *Object) Prototype() *Object {
	o.L.RLock()
	defer o.L.RUnlock()
	return o.prototype
}

// SetPrototype sets the object's prototype, refusing to create a cycle in
// the prototype graph. It reports whether the assignment was made.
func (o *Object) SetPrototype(proto *Object) bool {
	if proto != nil && (proto == o || wouldCycle(proto, o)) {
		return false
	}
	o.L.Lock()
	o.prototype = proto
	o.L.Unlock()
	return true
}

// wouldCycle reports whether proto's own ancestor chain already contains
// target, which would make target a reachable descendant of proto once
// target -> proto is installed.
func wouldCycle(proto, target *Object) bool {
	seen := contains.Set{}
	for p := proto; p != nil; p = p.Prototype() {
		if p == target {
			return true
		}
		if !seen.Add(uintptr(p.id)) {
			// Already-cyclic graph reachable from proto; bail rather than
			// loop forever. This should not happen if SetPrototype is the
			// only mutator.
			return true
		}
	}
	return false
}

// Name returns the object's diagnostic name, if any was assigned via
// SetName.
func (o *Object) Name() string {
	o.L.RLock()
	defer o.L.RUnlock()
	if o.name == nil {
		return ""
	}
	return *o.name
}

// SetName assigns a diagnostic name to the object.
func (o *Object) SetName(name string) {
	o.L.Lock()
	o.name = &name
	o.L.Unlock()
}

// Pinned reports whether a live OS thread is currently executing on this
// object's Thread value.
func (o *Object) Pinned() bool {
	return o.pinned.Load()
}

func (o *Object) setPinned(v bool) {
	o.pinned.Store(v)
}

// The methods, attributes, and constants tables are each a lazily allocated
// name -> *Object map guarded by the owning Object's lock.

// Method looks up a method by name on this object only (no prototype walk).
func (o *Object) Method(name string) (*Object, bool) {
	o.L.RLock()
	defer o.L.RUnlock()
	m, ok := o.methods[name]
	return m, ok
}

// SetMethod installs a method, whose value must be a CompiledCode object.
func (o *Object) SetMethod(name string, fn *Object) {
	o.L.Lock()
	if o.methods == nil {
		o.methods = make(map[string]*Object)
	}
	o.methods[name] = fn
	o.L.Unlock()
}

// Attribute looks up an attribute by name on this object only.
func (o *Object) Attribute(name string) (*Object, bool) {
	o.L.RLock()
	defer o.L.RUnlock()
	a, ok := o.attributes[name]
	return a, ok
}

// SetAttribute installs an attribute.
func (o *Object) SetAttribute(name string, v *Object) {
	o.L.Lock()
	if o.attributes == nil {
		o.attributes = make(map[string]*Object)
	}
	o.attributes[name] = v
	o.L.Unlock()
}

// Constant looks up a constant by name on this object only.
func (o *Object) Constant(name string) (*Object, bool) {
	o.L.RLock()
	defer o.L.RUnlock()
	c, ok := o.constants[name]
	return c, ok
}

// SetConstant installs a constant.
func (o *Object) SetConstant(name string, v *Object) {
	o.L.Lock()
	if o.constants == nil {
		o.constants = make(map[string]*Object)
	}
	o.constants[name] = v
	o.L.Unlock()
}

// lookupMethod resolves name through the receiver's prototype chain,
// own methods first, depth-first, without revisiting an object twice. The
// visited set is allocated fresh per call rather than reused across calls,
// since Send may run concurrently on the same receiver from multiple
// threads sharing one heap.
func lookupMethod(receiver *Object, name string) (*Object, *Object) {
	seen := contains.Set{}
	return lookupMethodRec(receiver, name, &seen)
}

func lookupMethodRec(o *Object, name string, seen *contains.Set) (*Object, *Object) {
	if o == nil || !seen.Add(uintptr(o.id)) {
		return nil, nil
	}
	if m, ok := o.Method(name); ok {
		return m, o
	}
	if fn, holder := lookupMethodRec(o.Prototype(), name, seen); fn != nil {
		return fn, holder
	}
	return nil, nil
}
