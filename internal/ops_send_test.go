package internal_test

import (
	"testing"

	"github.com/vire-lang/vire/internal"
	"github.com/vire-lang/vire/internal/vmtest"
)

// TestSendInvokesDefinedMethod defines a method that doubles its single
// argument (local 0 holds self, local 1 holds the explicit arg) and sends it
// to a fresh object.
func TestSendInvokesDefinedMethod(t *testing.T) {
	vm := vmtest.New(t)
	double := vmtest.Code("double", []internal.Instruction{
		vmtest.Ins(internal.OpGetLocal, 0, 1), // the explicit argument, local 1 (local 0 is self)
		vmtest.Ins(internal.OpIntegerAdd, 1, 0, 0),
		vmtest.Ins(internal.OpReturn, 1),
	}, vmtest.RequireArgs(1))

	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetObject, 0),
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpSetCompiledCode, 2, 0),
		vmtest.Ins(internal.OpDefMethod, 0, 1, 2),
		vmtest.Ins(internal.OpSetInteger, 3, 0),
		vmtest.Ins(internal.OpSend, 4, 0, 0, 1, 1, 3), // result, receiver, name-literal 0, allow_private, argc 1, arg reg 3
		vmtest.Ins(internal.OpReturn, 4),
	}, vmtest.WithStrings("double"), vmtest.WithIntegers(21), vmtest.WithCodeObjects(double))

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result == nil || result.Value().Integer != 42 {
		t.Fatalf("want 42, got %#v", result)
	}
}

func TestSendPrivateMethodRejectedWithoutAllowPrivate(t *testing.T) {
	vm := vmtest.New(t)
	secret := vmtest.Code("secret", []internal.Instruction{
		vmtest.Ins(internal.OpSetTrue, 0),
		vmtest.Ins(internal.OpReturn, 0),
	})
	secret.IsPrivate = true

	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetObject, 0),
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpSetCompiledCode, 2, 0),
		vmtest.Ins(internal.OpDefMethod, 0, 1, 2),
		vmtest.Ins(internal.OpSend, 3, 0, 0, 0, 0),
		vmtest.Ins(internal.OpReturn, 3),
	}, vmtest.WithStrings("secret"), vmtest.WithCodeObjects(secret))

	_, fatal := runMain(t, vm, code)
	if fatal == nil {
		t.Fatal("want a fatal error when sending a private method without allow_private")
	}
}

func TestSendUndefinedMethodIsFatal(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetObject, 0),
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpSend, 2, 0, 0, 1, 0),
		vmtest.Ins(internal.OpReturn, 2),
	}, vmtest.WithStrings("nonexistent"))

	_, fatal := runMain(t, vm, code)
	if fatal == nil {
		t.Fatal("want a fatal error when sending an undefined method")
	}
}
