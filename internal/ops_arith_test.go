package internal_test

import (
	"math"
	"testing"

	"github.com/vire-lang/vire/internal"
	"github.com/vire-lang/vire/internal/vmtest"
)

func runExpr(t *testing.T, vm *vmtest.VM, ins []internal.Instruction, opts ...func(*internal.CompiledCode)) *internal.Object {
	t.Helper()
	code := vmtest.Code("expr", ins, opts...)
	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	return result
}

func TestIntegerArithmetic(t *testing.T) {
	cases := []struct {
		name string
		op   internal.Opcode
		a, b int64
		want int64
	}{
		{"Add", internal.OpIntegerAdd, 2, 3, 5},
		{"Sub", internal.OpIntegerSub, 10, 4, 6},
		{"Mul", internal.OpIntegerMul, 6, 7, 42},
		{"Div", internal.OpIntegerDiv, 17, 5, 3},
		{"Mod", internal.OpIntegerMod, 17, 5, 2},
		{"BitwiseAnd", internal.OpIntegerBitwiseAnd, 0b1100, 0b1010, 0b1000},
		{"BitwiseOr", internal.OpIntegerBitwiseOr, 0b1100, 0b1010, 0b1110},
		{"BitwiseXor", internal.OpIntegerBitwiseXor, 0b1100, 0b1010, 0b0110},
		{"ShiftLeft", internal.OpIntegerShiftLeft, 1, 4, 16},
		{"ShiftRight", internal.OpIntegerShiftRight, 16, 4, 1},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vm := vmtest.New(t)
			result := runExpr(t, vm, []internal.Instruction{
				vmtest.Ins(internal.OpSetInteger, 1, 0),
				vmtest.Ins(internal.OpSetInteger, 2, 1),
				vmtest.Ins(c.op, 3, 1, 2),
				vmtest.Ins(internal.OpReturn, 3),
			}, vmtest.WithIntegers(c.a, c.b))
			if result == nil || result.Value().Integer != c.want {
				t.Fatalf("%s(%d, %d): want %d, got %#v", c.name, c.a, c.b, c.want, result)
			}
		})
	}
}

func TestIntegerAddWrapsOnOverflow(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpSetInteger, 2, 1),
		vmtest.Ins(internal.OpIntegerAdd, 3, 1, 2),
		vmtest.Ins(internal.OpReturn, 3),
	}, vmtest.WithIntegers(math.MaxInt64, 1))
	if result == nil || result.Value().Integer != math.MinInt64 {
		t.Fatalf("want wraparound to MinInt64, got %#v", result)
	}
}

func TestIntegerDivByZeroIsRecoverable(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpSetInteger, 2, 1),
		vmtest.Ins(internal.OpIntegerDiv, 3, 1, 2),
		vmtest.Ins(internal.OpIsError, 4, 3),
		vmtest.Ins(internal.OpReturn, 4),
	}, vmtest.WithIntegers(10, 0))
	if result != vm.Heap.True {
		t.Fatalf("want true (division by zero is recoverable), got %#v", result)
	}
}

func TestIntegerModByZeroIsRecoverable(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpSetInteger, 2, 1),
		vmtest.Ins(internal.OpIntegerMod, 3, 1, 2),
		vmtest.Ins(internal.OpIsError, 4, 3),
		vmtest.Ins(internal.OpReturn, 4),
	}, vmtest.WithIntegers(10, 0))
	if result != vm.Heap.True {
		t.Fatalf("want true (modulo by zero is recoverable), got %#v", result)
	}
}

func TestIntegerDivMinInt64ByNegativeOneDoesNotPanic(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpSetInteger, 2, 1),
		vmtest.Ins(internal.OpIntegerDiv, 3, 1, 2),
		vmtest.Ins(internal.OpReturn, 3),
	}, vmtest.WithIntegers(math.MinInt64, -1))
	if result == nil || result.Value().Integer != math.MinInt64 {
		t.Fatalf("want MinInt64 guarded result, got %#v", result)
	}
}

func TestIntegerShiftOutOfRangeIsFatal(t *testing.T) {
	cases := []struct {
		name string
		op   internal.Opcode
		b    int64
	}{
		{"ShiftLeftNegative", internal.OpIntegerShiftLeft, -1},
		{"ShiftLeftTooWide", internal.OpIntegerShiftLeft, 64},
		{"ShiftRightNegative", internal.OpIntegerShiftRight, -1},
		{"ShiftRightTooWide", internal.OpIntegerShiftRight, 64},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			vm := vmtest.New(t)
			code := vmtest.Code("expr", []internal.Instruction{
				vmtest.Ins(internal.OpSetInteger, 1, 0),
				vmtest.Ins(internal.OpSetInteger, 2, 1),
				vmtest.Ins(c.op, 3, 1, 2),
				vmtest.Ins(internal.OpReturn, 3),
			}, vmtest.WithIntegers(1, c.b))
			_, fatal := runMain(t, vm, code)
			if fatal == nil {
				t.Fatalf("%s: want fatal error for shift amount %d, got none", c.name, c.b)
			}
		})
	}
}

func TestIntegerComparisons(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpSetInteger, 2, 1),
		vmtest.Ins(internal.OpIntegerSmaller, 3, 1, 2),
		vmtest.Ins(internal.OpReturn, 3),
	}, vmtest.WithIntegers(1, 2))
	if result != vm.Heap.True {
		t.Fatalf("want true for 1 < 2, got %#v", result)
	}
}

func TestIntegerToString(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpIntegerToString, 2, 1),
		vmtest.Ins(internal.OpReturn, 2),
	}, vmtest.WithIntegers(42))
	if result == nil || result.Value().Str != "42" {
		t.Fatalf("want string \"42\", got %#v", result)
	}
}

func TestFloatArithmeticAndDivByZero(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetFloat, 1, 0),
		vmtest.Ins(internal.OpSetFloat, 2, 1),
		vmtest.Ins(internal.OpFloatAdd, 3, 1, 2),
		vmtest.Ins(internal.OpReturn, 3),
	}, vmtest.WithFloats(1.5, 2.25))
	if result == nil || result.Value().Float != 3.75 {
		t.Fatalf("want 3.75, got %#v", result)
	}

	vm2 := vmtest.New(t)
	errResult := runExpr(t, vm2, []internal.Instruction{
		vmtest.Ins(internal.OpSetFloat, 1, 0),
		vmtest.Ins(internal.OpSetFloat, 2, 1),
		vmtest.Ins(internal.OpFloatDiv, 3, 1, 2),
		vmtest.Ins(internal.OpIsError, 4, 3),
		vmtest.Ins(internal.OpReturn, 4),
	}, vmtest.WithFloats(1.0, 0.0))
	if errResult != vm2.Heap.True {
		t.Fatalf("want true (float division by zero is recoverable), got %#v", errResult)
	}
}

func TestFloatToInteger(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetFloat, 1, 0),
		vmtest.Ins(internal.OpFloatToInteger, 2, 1),
		vmtest.Ins(internal.OpReturn, 2),
	}, vmtest.WithFloats(3.9))
	if result == nil || result.Value().Integer != 3 {
		t.Fatalf("want truncated integer 3, got %#v", result)
	}
}
