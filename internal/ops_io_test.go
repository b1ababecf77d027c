package internal_test

import (
	"path/filepath"
	"testing"

	"github.com/vire-lang/vire/internal"
	"github.com/vire-lang/vire/internal/vmtest"
)

func TestStdoutWrite(t *testing.T) {
	vm := vmtest.New(t)
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpStdoutWrite, 2, 1),
		vmtest.Ins(internal.OpReturn, 2),
	}, vmtest.WithStrings("hello"))
	if result == nil || result.Value().Integer != 5 {
		t.Fatalf("want byte count 5, got %#v", result)
	}
	if vm.Stdout.String() != "hello" {
		t.Fatalf("want stdout buffer %q, got %q", "hello", vm.Stdout.String())
	}
}

func TestStderrWrite(t *testing.T) {
	vm := vmtest.New(t)
	runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpStderrWrite, 2, 1),
		vmtest.Ins(internal.OpReturn, 2),
	}, vmtest.WithStrings("oops"))
	if vm.Stderr.String() != "oops" {
		t.Fatalf("want stderr buffer %q, got %q", "oops", vm.Stderr.String())
	}
}

func TestFileOpenBadModeYieldsRecoverableError(t *testing.T) {
	vm := vmtest.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent-mode-target")
	result := runExpr(t, vm, []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpSetString, 2, 1),
		vmtest.Ins(internal.OpFileOpen, 3, 1, 2),
		vmtest.Ins(internal.OpIsError, 4, 3),
		vmtest.Ins(internal.OpReturn, 4),
	}, vmtest.WithStrings(path, "zz"))
	if result != vm.Heap.True {
		t.Fatalf("want true (bad mode is recoverable), got %#v", result)
	}
}

func TestFileWriteThenReadRoundTrip(t *testing.T) {
	vm := vmtest.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "roundtrip.txt")

	writeCode := vmtest.Code("write", []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpSetString, 2, 1),
		vmtest.Ins(internal.OpFileOpen, 3, 1, 2),
		vmtest.Ins(internal.OpSetString, 4, 2),
		vmtest.Ins(internal.OpFileWrite, 5, 3, 4),
		vmtest.Ins(internal.OpFileFlush, 6, 3),
		vmtest.Ins(internal.OpReturn, 5),
	}, vmtest.WithStrings(path, "w", "payload"))
	if _, fatal := runMain(t, vm, writeCode); fatal != nil {
		t.Fatalf("unexpected fatal error writing: %v", fatal)
	}

	readCode := vmtest.Code("read", []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpSetString, 2, 1),
		vmtest.Ins(internal.OpFileOpen, 3, 1, 2),
		vmtest.Ins(internal.OpFileRead, 4, 3),
		vmtest.Ins(internal.OpReturn, 4),
	}, vmtest.WithStrings(path, "r"))
	result, fatal := runMain(t, vm, readCode)
	if fatal != nil {
		t.Fatalf("unexpected fatal error reading: %v", fatal)
	}
	if result == nil || result.Value().Kind != internal.KindString {
		t.Fatalf("FileRead must yield a string-kind object, got %#v", result)
	}
	if result.Value().Str != "payload" {
		t.Fatalf("want %q, got %q", "payload", result.Value().Str)
	}
}

func TestStdinReadNonIntegerCapacityIsFatal(t *testing.T) {
	vm := vmtest.New(t)
	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpStdinRead, 2, 1),
		vmtest.Ins(internal.OpReturn, 2),
	}, vmtest.WithStrings("not-an-integer"))
	_, fatal := runMain(t, vm, code)
	if fatal == nil {
		t.Fatal("want a fatal error when the capacity operand is not an integer")
	}
}

func TestFileSeekRejectsNegativeOffset(t *testing.T) {
	vm := vmtest.New(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "seek.txt")

	code := vmtest.Code("main", []internal.Instruction{
		vmtest.Ins(internal.OpSetString, 1, 0),
		vmtest.Ins(internal.OpSetString, 2, 1),
		vmtest.Ins(internal.OpFileOpen, 3, 1, 2),
		vmtest.Ins(internal.OpSetInteger, 4, 0),
		vmtest.Ins(internal.OpFileSeek, 5, 3, 4),
		vmtest.Ins(internal.OpReturn, 5),
	}, vmtest.WithStrings(path, "w"), vmtest.WithIntegers(-1))
	_, fatal := runMain(t, vm, code)
	if fatal == nil {
		t.Fatal("want a fatal error for a negative seek offset")
	}
}
