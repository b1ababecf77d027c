package internal

import (
	"bufio"
	"io"
)

func isIOOp(op Opcode) bool {
	switch op {
	case OpStdoutWrite, OpStderrWrite, OpStdinRead, OpStdinReadLine,
		OpFileOpen, OpFileWrite, OpFileRead, OpFileReadLine, OpFileFlush,
		OpFileSize, OpFileSeek:
		return true
	}
	return false
}

func (vm *VM) execIO(t *Thread, in Instruction) *FatalError {
	switch in.Op {
	case OpStdoutWrite:
		return vm.execStreamWrite(t, in, vm.Stdout)
	case OpStderrWrite:
		return vm.execStreamWrite(t, in, vm.Stderr)
	case OpStdinRead:
		return vm.execStdinRead(t, in)
	case OpStdinReadLine:
		return vm.execStdinReadLine(t, in)
	case OpFileOpen:
		return vm.execFileOpen(t, in)
	case OpFileWrite:
		return vm.execFileWrite(t, in)
	case OpFileRead:
		return vm.execFileRead(t, in)
	case OpFileReadLine:
		return vm.execFileReadLine(t, in)
	case OpFileFlush:
		return vm.execFileFlush(t, in)
	case OpFileSize:
		return vm.execFileSize(t, in)
	case OpFileSeek:
		return vm.execFileSeek(t, in)
	}
	return fatalf("unimplemented I/O opcode %s", in.Op)
}

func (vm *VM) intObj(v int64) *Object {
	return vm.Heap.Allocate(Value{Kind: KindInteger, Integer: v}, vm.Heap.Prototype("Integer"))
}

func (vm *VM) strObj(s string) *Object {
	return vm.Heap.Allocate(Value{Kind: KindString, Str: s}, vm.Heap.Prototype("String"))
}

func asFile(o *Object) (*FileHandle, bool) {
	v := o.Value()
	if v.Kind != KindFile {
		return nil, false
	}
	return v.File, true
}

func (vm *VM) execStreamWrite(t *Thread, in Instruction, w io.Writer) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	arg, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	s, ok := asString(arg)
	if !ok {
		return fatalf("%s: operand is not a string", in.Op)
	}
	n, werr := io.WriteString(w, s)
	if werr != nil {
		t.SetRegister(slot, vm.Heap.AllocateError(werr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.intObj(int64(n)))
	return nil
}

// execStdinRead reads to EOF. An optional second operand names a register
// holding an integer used only to presize the read buffer; its absence
// defaults the capacity to zero. A present operand that does not hold an
// Integer is a fatal error.
func (vm *VM) execStdinRead(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	capacity := 0
	if len(in.Args) > 1 {
		capObj, cerr := regArg(t, in, 1)
		if cerr != nil {
			return fatalf("%v", cerr)
		}
		v := capObj.Value()
		if v.Kind != KindInteger {
			return fatalf("%s: buffer-size operand is not an integer", in.Op)
		}
		if v.Integer > 0 {
			capacity = int(v.Integer)
		}
	}
	buf := make([]byte, 0, capacity)
	data, rerr := io.ReadAll(vm.Stdin)
	buf = append(buf, data...)
	if rerr != nil && rerr != io.EOF {
		t.SetRegister(slot, vm.Heap.AllocateError(rerr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.strObj(string(buf)))
	return nil
}

func (vm *VM) execStdinReadLine(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	reader := bufio.NewReader(vm.Stdin)
	line, rerr := reader.ReadString('\n')
	if rerr != nil && rerr != io.EOF {
		t.SetRegister(slot, vm.Heap.AllocateError(rerr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.strObj(line))
	return nil
}

func (vm *VM) execFileOpen(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	pathObj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	modeObj, err := regArg(t, in, 2)
	if err != nil {
		return fatalf("%v", err)
	}
	path, ok := asString(pathObj)
	if !ok {
		return fatalf("FileOpen: path is not a string")
	}
	mode, ok := asString(modeObj)
	if !ok {
		return fatalf("FileOpen: mode is not a string")
	}
	fh, ferr := OpenFile(path, mode)
	if ferr != nil {
		t.SetRegister(slot, vm.Heap.AllocateError(ferr.Error()))
		return nil
	}
	obj := vm.Heap.Allocate(Value{Kind: KindFile, File: fh}, vm.Heap.Prototype("File"))
	t.SetRegister(slot, obj)
	return nil
}

func (vm *VM) execFileWrite(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	fileObj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	strObj, err := regArg(t, in, 2)
	if err != nil {
		return fatalf("%v", err)
	}
	fh, ok := asFile(fileObj)
	if !ok {
		return fatalf("FileWrite: receiver is not a file")
	}
	s, ok := asString(strObj)
	if !ok {
		return fatalf("FileWrite: operand is not a string")
	}
	n, werr := fh.Write([]byte(s))
	if werr != nil {
		t.SetRegister(slot, vm.Heap.AllocateError(werr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.intObj(int64(n)))
	return nil
}

// execFileRead reads to EOF and yields a String-kind result. The reference
// VM's own file-read handler allocates the result against the integer
// prototype by mistake; this builds it against the string prototype, which
// is the only prototype consistent with the value it carries.
func (vm *VM) execFileRead(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	fileObj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	fh, ok := asFile(fileObj)
	if !ok {
		return fatalf("FileRead: receiver is not a file")
	}
	s, rerr := fh.Read()
	if rerr != nil && rerr != io.EOF {
		t.SetRegister(slot, vm.Heap.AllocateError(rerr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.strObj(s))
	return nil
}

func (vm *VM) execFileReadLine(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	fileObj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	fh, ok := asFile(fileObj)
	if !ok {
		return fatalf("FileReadLine: receiver is not a file")
	}
	s, rerr := fh.ReadLine()
	if rerr != nil && rerr != io.EOF {
		t.SetRegister(slot, vm.Heap.AllocateError(rerr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.strObj(s))
	return nil
}

func (vm *VM) execFileFlush(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	fileObj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	fh, ok := asFile(fileObj)
	if !ok {
		return fatalf("FileFlush: receiver is not a file")
	}
	if ferr := fh.Flush(); ferr != nil {
		t.SetRegister(slot, vm.Heap.AllocateError(ferr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.Heap.True)
	return nil
}

func (vm *VM) execFileSize(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	fileObj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	fh, ok := asFile(fileObj)
	if !ok {
		return fatalf("FileSize: receiver is not a file")
	}
	size, serr := fh.Size()
	if serr != nil {
		t.SetRegister(slot, vm.Heap.AllocateError(serr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.intObj(size))
	return nil
}

func (vm *VM) execFileSeek(t *Thread, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	fileObj, err := regArg(t, in, 1)
	if err != nil {
		return fatalf("%v", err)
	}
	offsetObj, err := regArg(t, in, 2)
	if err != nil {
		return fatalf("%v", err)
	}
	fh, ok := asFile(fileObj)
	if !ok {
		return fatalf("FileSeek: receiver is not a file")
	}
	ov := offsetObj.Value()
	if ov.Kind != KindInteger || ov.Integer < 0 {
		return fatalf("FileSeek: offset must be a non-negative integer")
	}
	newOffset, serr := fh.Seek(ov.Integer)
	if serr != nil {
		t.SetRegister(slot, vm.Heap.AllocateError(serr.Error()))
		return nil
	}
	t.SetRegister(slot, vm.intObj(newOffset))
	return nil
}
