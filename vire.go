/*
Package vire implements a register-based bytecode virtual machine for a
dynamically typed, prototype-based object language.

Programs run as compiled bytecode: there is no parser or lexer in this
package. A CompiledCode is a flat instruction stream plus the literal pools
and nested code objects it indexes into; the bytecode subpackage reads and
writes these as .virec files. Embedders that want to produce CompiledCode
values some other way (in-memory, from a different wire format) need only
implement the Parser interface.

Objects are prototype-based: every object may have a single prototype, and
method lookup walks the prototype chain depth-first, stopping at the first
match. There is no class hierarchy separate from this chain. Ten primitive
kinds get a per-VM singleton prototype: Integer, Float, String, Array,
Thread, Method, CompiledCode, File, True, and False.

Concurrency comes from StartThread, which spawns a goroutine with its own
register file, call-frame stack, and local-variable vector, sharing the
VM's single heap. Objects are safe to share across threads: each carries
its own lock, taken for the duration of a read or write of its value or
slot tables.

To run a program, build or load a CompiledCode and call Start:

	vm := vire.New()
	vm.Parser = bytecode.FileParser{}
	root, err := vm.Parser.Parse("main.virec")
	if err != nil {
		log.Fatal(err)
	}
	os.Exit(vm.Start(root))
*/
package vire

import "github.com/vire-lang/vire/internal"

// VM is a single, self-contained instance of the virtual machine.
type VM = internal.VM

// Object is the single heap citizen: a tagged value plus a prototype link
// and slot tables for methods, attributes, and constants.
type Object = internal.Object

// Value is the tagged union an Object carries.
type Value = internal.Value

// Kind identifies which field of a Value is meaningful.
type Kind = internal.Kind

// CompiledCode is an immutable unit of execution.
type CompiledCode = internal.CompiledCode

// Instruction is one step of a CompiledCode's instruction stream.
type Instruction = internal.Instruction

// Opcode is the operation a single Instruction performs.
type Opcode = internal.Opcode

// Thread is a single execution context: a register file, a local-variable
// vector, and the head of its call-frame stack.
type Thread = internal.Thread

// Parser is the external bytecode-parsing collaborator: given a filesystem
// path, it yields a compiled-code value or a parse diagnostic.
type Parser = internal.Parser

// FatalError is a diagnostic that unwinds a thread's dispatch loop and
// transitions the VM's exit status to failure.
type FatalError = internal.FatalError

// The nine Value kinds.
const (
	KindNone         = internal.KindNone
	KindInteger      = internal.KindInteger
	KindFloat        = internal.KindFloat
	KindString       = internal.KindString
	KindArray        = internal.KindArray
	KindFile         = internal.KindFile
	KindThread       = internal.KindThread
	KindCompiledCode = internal.KindCompiledCode
	KindError        = internal.KindError
)

// New builds a VM with its heap and thread list initialized and stdio
// wired to the process's standard streams.
func New() *VM {
	return internal.New()
}

// NewThread creates a fresh thread with empty registers and locals.
func NewThread(isMain bool) *Thread {
	return internal.NewThread(isMain)
}
