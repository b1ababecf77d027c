// Package vmtest provides the shared VM constructor and builder helpers
// used by internal's package tests: a single entry point that every
// _test.go file in the package reaches for instead of wiring up a VM and
// hand-building CompiledCode values by hand.
package vmtest

import (
	"bytes"
	"testing"

	"github.com/vire-lang/vire/internal"
)

// VM bundles a fresh *internal.VM with in-memory stdio buffers so tests can
// assert on what a program printed without touching the real console.
type VM struct {
	*internal.VM
	Stdout *bytes.Buffer
	Stderr *bytes.Buffer
}

// New builds a VM for testing, wiring Stdout and Stderr to buffers and
// leaving Stdin empty. Each call produces an independent heap and thread
// set, since object identity (prototype pointers, error objects) is exactly
// what many of these tests assert on.
func New(t *testing.T) *VM {
	t.Helper()
	vm := internal.New()
	out := &bytes.Buffer{}
	errb := &bytes.Buffer{}
	vm.Stdout = out
	vm.Stderr = errb
	vm.Stdin = &bytes.Buffer{}
	return &VM{VM: vm, Stdout: out, Stderr: errb}
}

// Code builds a minimal CompiledCode with the given instructions and
// literal pools, for tests that only care about a handful of opcodes.
func Code(name string, instructions []internal.Instruction, opts ...func(*internal.CompiledCode)) *internal.CompiledCode {
	c := &internal.CompiledCode{Name: name, File: name, Instructions: instructions}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithIntegers attaches an integer literal pool.
func WithIntegers(lits ...int64) func(*internal.CompiledCode) {
	return func(c *internal.CompiledCode) { c.IntegerLiterals = lits }
}

// WithFloats attaches a float literal pool.
func WithFloats(lits ...float64) func(*internal.CompiledCode) {
	return func(c *internal.CompiledCode) { c.FloatLiterals = lits }
}

// WithStrings attaches a string literal pool.
func WithStrings(lits ...string) func(*internal.CompiledCode) {
	return func(c *internal.CompiledCode) { c.StringLiterals = lits }
}

// WithCodeObjects attaches a nested-code-object pool.
func WithCodeObjects(objs ...*internal.CompiledCode) func(*internal.CompiledCode) {
	return func(c *internal.CompiledCode) { c.CodeObjects = objs }
}

// RequireArgs sets the code object's required argument count, for method
// bodies exercised through Send.
func RequireArgs(n int) func(*internal.CompiledCode) {
	return func(c *internal.CompiledCode) { c.RequiredArguments = n }
}

// Ins is shorthand for building an internal.Instruction from an opcode and
// its argument list.
func Ins(op internal.Opcode, args ...int) internal.Instruction {
	return internal.Instruction{Op: op, Args: args}
}
