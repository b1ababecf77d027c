package internal

import (
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/encoding"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"
)

func isStringOp(op Opcode) bool {
	switch op {
	case OpStringToLower, OpStringToUpper, OpStringEquals, OpStringToBytes,
		OpStringFromBytes, OpStringLength, OpStringSize:
		return true
	}
	return false
}

func (vm *VM) execString(t *Thread, in Instruction) *FatalError {
	switch in.Op {
	case OpStringToLower:
		return vm.execStringCase(t, in, cases.Lower(language.Und))
	case OpStringToUpper:
		return vm.execStringCase(t, in, cases.Upper(language.Und))
	case OpStringEquals:
		return vm.execStringEquals(t, in)
	case OpStringToBytes:
		return vm.execStringToBytes(t, in)
	case OpStringFromBytes:
		return vm.execStringFromBytes(t, in)
	case OpStringLength:
		return vm.execStringLength(t, in)
	case OpStringSize:
		return vm.execStringSize(t, in)
	}
	return fatalf("unimplemented string opcode %s", in.Op)
}

func asString(o *Object) (string, bool) {
	v := o.Value()
	if v.Kind != KindString {
		return "", false
	}
	return v.Str, true
}

func (vm *VM) execStringCase(t *Thread, in Instruction, caser cases.Caser) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	src, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	s, ok := asString(src)
	if !ok {
		return fatalf("%s: operand is not a string", in.Op)
	}
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindString, Str: caser.String(s)}, vm.Heap.Prototype("String")))
	return nil
}

func (vm *VM) execStringEquals(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	recv, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	arg, err := regArg(t, in, 2)
	if err != nil {
		return fatalf("%v", err)
	}
	a, ok1 := asString(recv)
	b, ok2 := asString(arg)
	if !ok1 || !ok2 {
		return fatalf("StringEquals: operands must be strings")
	}
	if a == b {
		t.SetRegister(slot, vm.Heap.True)
	} else {
		t.SetRegister(slot, vm.Heap.False)
	}
	return nil
}

func (vm *VM) execStringToBytes(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	src, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	s, ok := asString(src)
	if !ok {
		return fatalf("StringToBytes: operand is not a string")
	}
	b := []byte(s)
	elems := make([]*Object, len(b))
	intProto := vm.Heap.Prototype("Integer")
	for i, by := range b {
		elems[i] = vm.Heap.Allocate(Value{Kind: KindInteger, Integer: int64(by)}, intProto)
	}
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindArray, Array: elems}, vm.Heap.Prototype("Array")))
	return nil
}

// execStringFromBytes builds a string from an array of integers in 0..255,
// validating the result as strict UTF-8 the way the reference decoder does
// before handing the bytes to a string-kind object.
func (vm *VM) execStringFromBytes(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	src, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	elems, ok := asArray(src)
	if !ok {
		return fatalf("StringFromBytes: operand is not an array")
	}
	buf := make([]byte, len(elems))
	for i, e := range elems {
		v := e.Value()
		if v.Kind != KindInteger || v.Integer < 0 || v.Integer > 255 {
			return fatalf("StringFromBytes: element %d is not a byte", i)
		}
		buf[i] = byte(v.Integer)
	}
	// UTF8Validator fails with ErrInvalidUTF8 on the first ill-formed byte
	// instead of substituting U+FFFD, and keeps no state between calls, so
	// concurrent StringFromBytes calls on different threads can share it.
	decoded, _, derr := transform.Bytes(encoding.UTF8Validator, buf)
	if derr != nil {
		t.SetRegister(slot, vm.Heap.AllocateError("StringFromBytes: invalid UTF-8"))
		return nil
	}
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindString, Str: string(decoded)}, vm.Heap.Prototype("String")))
	return nil
}

func (vm *VM) execStringLength(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	src, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	s, ok := asString(src)
	if !ok {
		return fatalf("StringLength: operand is not a string")
	}
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindInteger, Integer: int64(utf8.RuneCountInString(s))}, vm.Heap.Prototype("Integer")))
	return nil
}

func (vm *VM) execStringSize(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	src, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	s, ok := asString(src)
	if !ok {
		return fatalf("StringSize: operand is not a string")
	}
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindInteger, Integer: int64(len(s))}, vm.Heap.Prototype("Integer")))
	return nil
}
