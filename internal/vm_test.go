package internal_test

import (
	"testing"

	"github.com/vire-lang/vire/internal"
	"github.com/vire-lang/vire/internal/vmtest"
)

func runMain(t *testing.T, vm *vmtest.VM, code *internal.CompiledCode) (*internal.Object, *internal.FatalError) {
	t.Helper()
	main := internal.NewThread(true)
	vm.Threads.Add(main, nil)
	result, fatal := vm.RunCode(main, code, nil)
	vm.Threads.Remove(main)
	return result, fatal
}

func TestScenarioReturnInteger(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpReturn, 1),
	}, vmtest.WithIntegers(10))

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result == nil || result.Value().Integer != 10 {
		t.Fatalf("want integer 10, got %#v", result)
	}
}

func TestScenarioIntegerAdd(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0),
		vmtest.Ins(internal.OpSetInteger, 2, 1),
		vmtest.Ins(internal.OpIntegerAdd, 3, 1, 2),
		vmtest.Ins(internal.OpReturn, 3),
	}, vmtest.WithIntegers(2, 3))

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result == nil || result.Value().Integer != 5 {
		t.Fatalf("want integer 5, got %#v", result)
	}
}

func TestScenarioGotoIfFalseSkipsOverwrite(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 1, 0), // 0
		vmtest.Ins(internal.OpSetFalse, 2),      // 1
		vmtest.Ins(internal.OpGotoIfFalse, 4, 2), // 2: skip to index 4
		vmtest.Ins(internal.OpSetInteger, 1, 1), // 3 (skipped)
		vmtest.Ins(internal.OpReturn, 1),        // 4
	}, vmtest.WithIntegers(1, 99))

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result == nil || result.Value().Integer != 1 {
		t.Fatalf("want integer 1 (branch taken), got %#v", result)
	}
}

func TestScenarioStringRoundTripThroughBytes(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpStringToBytes, 2, 1),
		vmtest.Ins(internal.OpStringFromBytes, 3, 2),
		vmtest.Ins(internal.OpStringEquals, 4, 1, 3),
		vmtest.Ins(internal.OpReturn, 4),
	}, vmtest.WithStrings("abc"))

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result != vm.Heap.True {
		t.Fatalf("want the true singleton, got %#v", result)
	}
}

func TestScenarioStartThreadJoinResult(t *testing.T) {
	vm := vmtest.New(t)
	nested := vmtest.Code("nested", []internal.Instruction{
		vmtest.Ins(internal.OpSetInteger, 0, 0),
		vmtest.Ins(internal.OpReturn, 0),
	}, vmtest.WithIntegers(7))

	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpStartThread, 1, 0),
		vmtest.Ins(internal.OpReturn, 1),
	}, vmtest.WithCodeObjects(nested))

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result == nil || result.Value().Kind != internal.KindThread {
		t.Fatalf("want a thread object, got %#v", result)
	}
	spawned := result.Value().Thread
	<-spawned.Done
	if spawned.Fatal() != nil {
		t.Fatalf("spawned thread failed: %v", spawned.Fatal())
	}
	rv := spawned.Result()
	if rv == nil || rv.Value().Integer != 7 {
		t.Fatalf("want spawned thread result 7, got %#v", rv)
	}
}

func TestScenarioFileOpenBadModeIsRecoverable(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 0, 0),
		vmtest.Ins(internal.OpSetString, 1, 1),
		vmtest.Ins(internal.OpFileOpen, 2, 0, 1),
		vmtest.Ins(internal.OpIsError, 3, 2),
		vmtest.Ins(internal.OpReturn, 3),
	}, vmtest.WithStrings("badmode", "zz"))

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result != vm.Heap.True {
		t.Fatalf("want the true singleton (program does not abort), got %#v", result)
	}
}

func TestNoReturnLeavesResultNone(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetTrue, 0),
	})

	result, fatal := runMain(t, vm, code)
	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result != nil {
		t.Fatalf("want nil (None) result, got %#v", result)
	}
}

func TestShouldStopBeforeEntryRunsNoHandlers(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetTrue, 0),
		vmtest.Ins(internal.OpReturn, 0),
	})

	main := internal.NewThread(true)
	main.Stop()
	vm.Threads.Add(main, nil)
	result, fatal := vm.RunCode(main, code, nil)
	vm.Threads.Remove(main)

	if fatal != nil {
		t.Fatalf("unexpected fatal error: %v", fatal)
	}
	if result != nil {
		t.Fatalf("want nil result when should_stop precedes entry, got %#v", result)
	}
}

func TestExitStatusIsMonotonic(t *testing.T) {
	vm := vmtest.New(t)
	if vm.ExitStatus() != 0 {
		t.Fatalf("fresh VM should report success, got %d", vm.ExitStatus())
	}

	failing := vmtest.Code("boom", []internal.Instruction{
		vmtest.Ins(internal.OpReturn), // missing argument 0: triggers a fatal error
	})
	if status := vm.Start(failing); status != 1 {
		t.Fatalf("want exit status 1 after a fatal error, got %d", status)
	}

	ok := vmtest.Code("ok", []internal.Instruction{
		vmtest.Ins(internal.OpSetTrue, 0),
		vmtest.Ins(internal.OpReturn, 0),
	})
	if status := vm.Start(ok); status != 1 {
		t.Fatalf("exit status must not revert to success once failed, got %d", status)
	}
}
