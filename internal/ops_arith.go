package internal

import (
	"math"
	"strconv"
)

func isArithOp(op Opcode) bool {
	switch op {
	case OpIntegerAdd, OpIntegerSub, OpIntegerMul, OpIntegerDiv, OpIntegerMod,
		OpIntegerToFloat, OpIntegerToString, OpIntegerBitwiseAnd, OpIntegerBitwiseOr,
		OpIntegerBitwiseXor, OpIntegerShiftLeft, OpIntegerShiftRight,
		OpIntegerSmaller, OpIntegerGreater, OpIntegerEquals,
		OpFloatAdd, OpFloatSub, OpFloatMul, OpFloatDiv, OpFloatMod,
		OpFloatToInteger, OpFloatToString, OpFloatSmaller, OpFloatGreater, OpFloatEquals:
		return true
	}
	return false
}

// execArith implements the integer and float arithmetic families. Integer
// Add/Sub/Mul rely on Go's native two's-complement wraparound, matching
// machine-integer overflow behavior with no extra bookkeeping. Div and Mod
// special-case MinInt64 / -1, which would otherwise panic in the Go
// runtime, and treat division by zero as a recoverable condition for both
// integer and float operands rather than aborting the thread.
func (vm *VM) execArith(t *Thread, code *CompiledCode, in Instruction) *FatalError {
	switch in.Op {
	case OpIntegerAdd, OpIntegerSub, OpIntegerMul, OpIntegerDiv, OpIntegerMod,
		OpIntegerBitwiseAnd, OpIntegerBitwiseOr, OpIntegerBitwiseXor,
		OpIntegerShiftLeft, OpIntegerShiftRight, OpIntegerSmaller, OpIntegerGreater, OpIntegerEquals:
		return vm.execIntegerBinary(t, in)
	case OpIntegerToFloat:
		return vm.execIntegerToFloat(t, in)
	case OpIntegerToString:
		return vm.execIntegerToString(t, in)
	case OpFloatAdd, OpFloatSub, OpFloatMul, OpFloatDiv, OpFloatMod, OpFloatSmaller, OpFloatGreater, OpFloatEquals:
		return vm.execFloatBinary(t, in)
	case OpFloatToInteger:
		return vm.execFloatToInteger(t, in)
	case OpFloatToString:
		return vm.execFloatToString(t, in)
	}
	return fatalf("unimplemented arithmetic opcode %s", in.Op)
}

func (vm *VM) execIntegerBinary(t *Thread, in Instruction) *FatalError {
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
	rv, av := recv.Value(), arg.Value()
	if rv.Kind != KindInteger || av.Kind != KindInteger {
		return fatalf("%s: operands must be integers", in.Op)
	}
	a, b := rv.Integer, av.Integer

	boolResult := func(v bool) {
		if v {
			t.SetRegister(slot, vm.Heap.True)
		} else {
			t.SetRegister(slot, vm.Heap.False)
		}
	}
	intResult := func(v int64) {
		t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindInteger, Integer: v}, vm.Heap.Prototype("Integer")))
	}

	switch in.Op {
	case OpIntegerAdd:
		intResult(a + b)
	case OpIntegerSub:
		intResult(a - b)
	case OpIntegerMul:
		intResult(a * b)
	case OpIntegerDiv:
		if b == 0 {
			t.SetRegister(slot, vm.Heap.AllocateError("integer division by zero"))
			return nil
		}
		if a == math.MinInt64 && b == -1 {
			intResult(math.MinInt64)
			return nil
		}
		intResult(a / b)
	case OpIntegerMod:
		if b == 0 {
			t.SetRegister(slot, vm.Heap.AllocateError("integer modulo by zero"))
			return nil
		}
		if a == math.MinInt64 && b == -1 {
			intResult(0)
			return nil
		}
		intResult(a % b)
	case OpIntegerBitwiseAnd:
		intResult(a & b)
	case OpIntegerBitwiseOr:
		intResult(a | b)
	case OpIntegerBitwiseXor:
		intResult(a ^ b)
	case OpIntegerShiftLeft:
		if b < 0 || b >= 64 {
			return fatalf("%s: shift amount %d out of range [0, 64)", in.Op, b)
		}
		intResult(a << uint64(b))
	case OpIntegerShiftRight:
		if b < 0 || b >= 64 {
			return fatalf("%s: shift amount %d out of range [0, 64)", in.Op, b)
		}
		intResult(a >> uint64(b))
	case OpIntegerSmaller:
		boolResult(a < b)
	case OpIntegerGreater:
		boolResult(a > b)
	case OpIntegerEquals:
		boolResult(a == b)
	}
	return nil
}

func (vm *VM) execIntegerToFloat(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	obj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	v := obj.Value()
	if v.Kind != KindInteger {
		return fatalf("IntegerToFloat: operand must be an integer")
	}
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindFloat, Float: float64(v.Integer)}, vm.Heap.Prototype("Float")))
	return nil
}

func (vm *VM) execIntegerToString(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	obj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	v := obj.Value()
	if v.Kind != KindInteger {
		return fatalf("IntegerToString: operand must be an integer")
	}
	s := strconv.FormatInt(v.Integer, 10)
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindString, Str: s}, vm.Heap.Prototype("String")))
	return nil
}

func (vm *VM) execFloatBinary(t *Thread, in Instruction) *FatalError {
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
	rv, av := recv.Value(), arg.Value()
	if rv.Kind != KindFloat || av.Kind != KindFloat {
		return fatalf("%s: operands must be floats", in.Op)
	}
	a, b := rv.Float, av.Float

	boolResult := func(v bool) {
		if v {
			t.SetRegister(slot, vm.Heap.True)
		} else {
			t.SetRegister(slot, vm.Heap.False)
		}
	}
	floatResult := func(v float64) {
		t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindFloat, Float: v}, vm.Heap.Prototype("Float")))
	}

	switch in.Op {
	case OpFloatAdd:
		floatResult(a + b)
	case OpFloatSub:
		floatResult(a - b)
	case OpFloatMul:
		floatResult(a * b)
	case OpFloatDiv:
		if b == 0 {
			t.SetRegister(slot, vm.Heap.AllocateError("float division by zero"))
			return nil
		}
		floatResult(a / b)
	case OpFloatMod:
		if b == 0 {
			t.SetRegister(slot, vm.Heap.AllocateError("float modulo by zero"))
			return nil
		}
		floatResult(math.Mod(a, b))
	case OpFloatSmaller:
		boolResult(a < b)
	case OpFloatGreater:
		boolResult(a > b)
	case OpFloatEquals:
		boolResult(a == b)
	}
	return nil
}

func (vm *VM) execFloatToInteger(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	obj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	v := obj.Value()
	if v.Kind != KindFloat {
		return fatalf("FloatToInteger: operand must be a float")
	}
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindInteger, Integer: int64(v.Float)}, vm.Heap.Prototype("Integer")))
	return nil
}

func (vm *VM) execFloatToString(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	obj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	v := obj.Value()
	if v.Kind != KindFloat {
		return fatalf("FloatToString: operand must be a float")
	}
	s := strconv.FormatFloat(v.Float, 'f', -1, 64)
	t.SetRegister(slot, vm.Heap.Allocate(Value{Kind: KindString, Str: s}, vm.Heap.Prototype("String")))
	return nil
}
