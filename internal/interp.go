package internal

import (
	"fmt"
)

// regArg reads instruction argument i as a register index and fetches the
// object stored there. It mirrors the instruction_object! accessor the
// reference dispatcher uses throughout: nearly every opcode operand that
// names a register goes through this same path.
func regArg(t *Thread, ins Instruction, i int) (*Object, error) {
	slot, err := ins.Arg(i)
	if err != nil {
		return nil, err
	}
	return t.Register(slot)
}

// isTruthy implements the branch condition: falsy is exactly nil (an unset
// register, as passed by GotoIfFalse/True), the false singleton, zero, an
// empty string or array, or an error object; everything else is truthy.
func isTruthy(vm *VM, o *Object) bool {
	if o == nil {
		return false
	}
	if o == vm.Heap.False {
		return false
	}
	v := o.Value()
	switch v.Kind {
	case KindInteger:
		return v.Integer != 0
	case KindFloat:
		return v.Float != 0
	case KindString:
		return v.Str != ""
	case KindArray:
		return len(v.Array) != 0
	case KindError:
		return false
	default:
		return true
	}
}

// collectArguments reads count consecutive register-index operands starting
// at instruction argument start, resolving each to the object it names.
func collectArguments(t *Thread, ins Instruction, start, count int) ([]*Object, error) {
	args := make([]*Object, 0, count)
	for i := 0; i < count; i++ {
		obj, err := regArg(t, ins, start+i)
		if err != nil {
			return nil, err
		}
		args = append(args, obj)
	}
	return args, nil
}

// RunCode is the invocation protocol: push a fresh call frame and an empty
// local list, bind args as locals 0..len(args), run the body to completion,
// then restore the caller's frame and locals.
// The returned object is the value of the last Return executed, or nil if
// the body never executed one. When the body raises a fatal error the frame
// is not popped, so the thread's frame chain still runs from the raising
// frame outward when reportFatal renders the backtrace.
func (vm *VM) RunCode(t *Thread, code *CompiledCode, args []*Object) (*Object, *FatalError) {
	saved := t.pushFrame(code.File, code.Name, code.Line)
	for _, a := range args {
		t.AddLocal(a)
	}
	result, fatal := vm.execute(t, code)
	if fatal != nil {
		return result, fatal
	}
	t.popFrame(saved)
	return result, nil
}

// execute runs code's instructions against t's current frame and locals,
// returning the value of the last Return instruction executed (nil if none
// ran) or a fatal error that must propagate out of every enclosing RunCode.
func (vm *VM) execute(t *Thread, code *CompiledCode) (*Object, *FatalError) {
	var retVal *Object
	ins := code.Instructions

	for ip := 0; ip < len(ins); ip++ {
		if t.ShouldStop() {
			return retVal, nil
		}

		in := ins[ip]
		if f := t.Frame(); f != nil {
			f.Line = in.Line
		}
		if vm.TraceOpcodes {
			fmt.Fprintf(vm.Stderr, "%s:%d %s\n", code.File, in.Line, in.Op)
		}

		jump := -1

		switch in.Op {

		// -- value construction --------------------------------------

		case OpSetInteger:
			slot, err := in.Arg(0)
			idx, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err == nil {
				var lit int64
				lit, err = code.Integer(idx)
				if err == nil {
					obj := vm.Heap.Allocate(Value{Kind: KindInteger, Integer: lit}, vm.Heap.Prototype("Integer"))
					t.SetRegister(slot, obj)
				}
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}

		case OpSetFloat:
			slot, err := in.Arg(0)
			idx, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err == nil {
				var lit float64
				lit, err = code.Float(idx)
				if err == nil {
					obj := vm.Heap.Allocate(Value{Kind: KindFloat, Float: lit}, vm.Heap.Prototype("Float"))
					t.SetRegister(slot, obj)
				}
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}

		case OpSetString:
			slot, err := in.Arg(0)
			idx, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err == nil {
				var lit string
				lit, err = code.String(idx)
				if err == nil {
					obj := vm.Heap.Allocate(Value{Kind: KindString, Str: lit}, vm.Heap.Prototype("String"))
					t.SetRegister(slot, obj)
				}
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}

		case OpSetObject:
			slot, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj := newBareObject()
			if len(in.Args) > 1 {
				protoSlot, _ := in.Arg(1)
				proto, err := t.Register(protoSlot)
				if err != nil {
					return retVal, fatalf("%v", err)
				}
				obj.SetPrototype(proto)
			}
			vm.Heap.AllocatePrepared(obj)
			t.SetRegister(slot, obj)

		case OpSetArray:
			slot, err := in.Arg(0)
			count, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			values, err := collectArguments(t, in, 2, count)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj := vm.Heap.Allocate(Value{Kind: KindArray, Array: values}, vm.Heap.Prototype("Array"))
			t.SetRegister(slot, obj)

		case OpSetTrue:
			slot, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			t.SetRegister(slot, vm.Heap.True)

		case OpSetFalse:
			slot, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			t.SetRegister(slot, vm.Heap.False)

		case OpSetName:
			obj, err := regArg(t, in, 0)
			nameIdx, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			name, err := code.String(nameIdx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj.SetName(name)

		case OpSetCompiledCode:
			slot, err := in.Arg(0)
			idx, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			cc, err := code.CodeObject(idx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj := vm.Heap.Allocate(Value{Kind: KindCompiledCode, Code: cc}, vm.Heap.Prototype("CompiledCode"))
			t.SetRegister(slot, obj)

		// -- prototype accessors --------------------------------------

		case OpGetIntegerPrototype, OpGetFloatPrototype, OpGetStringPrototype,
			OpGetArrayPrototype, OpGetThreadPrototype, OpGetMethodPrototype,
			OpGetCompiledCodePrototype, OpGetFilePrototype:
			slot, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			t.SetRegister(slot, vm.Heap.Prototype(protoNameFor(in.Op)))

		// -- locals / constants / attributes ---------------------------

		case OpSetLocal:
			idx, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj, err := regArg(t, in, 1)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if err := t.SetLocal(idx, obj); err != nil {
				return retVal, fatalf("%v", err)
			}

		case OpGetLocal:
			slot, err := in.Arg(0)
			idx, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj, err := t.Local(idx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			t.SetRegister(slot, obj)

		case OpSetConst:
			target, err := regArg(t, in, 0)
			source, err2 := regArg(t, in, 1)
			nameIdx, err3 := in.Arg(2)
			if err == nil {
				err = err2
			}
			if err == nil {
				err = err3
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			name, err := code.String(nameIdx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			target.SetConstant(name, source)

		case OpGetConst:
			slot, err := in.Arg(0)
			src, err2 := regArg(t, in, 1)
			nameIdx, err3 := in.Arg(2)
			if err == nil {
				err = err2
			}
			if err == nil {
				err = err3
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			name, err := code.String(nameIdx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj, ok := src.Constant(name)
			if !ok {
				return retVal, fatalf("undefined constant %s", name)
			}
			t.SetRegister(slot, obj)

		case OpSetAttr:
			target, err := regArg(t, in, 0)
			source, err2 := regArg(t, in, 1)
			nameObj, err3 := regArg(t, in, 2)
			if err == nil {
				err = err2
			}
			if err == nil {
				err = err3
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if nameObj.Value().Kind != KindString {
				return retVal, fatalf("SetAttr: attribute name must be a string")
			}
			target.SetAttribute(nameObj.Value().Str, source)

		case OpGetAttr:
			slot, err := in.Arg(0)
			source, err2 := regArg(t, in, 1)
			nameObj, err3 := regArg(t, in, 2)
			if err == nil {
				err = err2
			}
			if err == nil {
				err = err3
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if nameObj.Value().Kind != KindString {
				return retVal, fatalf("GetAttr: attribute name must be a string")
			}
			obj, ok := source.Attribute(nameObj.Value().Str)
			if !ok {
				return retVal, fatalf("undefined attribute %s", nameObj.Value().Str)
			}
			t.SetRegister(slot, obj)

		// -- method definition and dispatch -----------------------------

		case OpDefMethod:
			receiver, err := regArg(t, in, 0)
			nameObj, err2 := regArg(t, in, 1)
			ccObj, err3 := regArg(t, in, 2)
			if err == nil {
				err = err2
			}
			if err == nil {
				err = err3
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if nameObj.Value().Kind != KindString || ccObj.Value().Kind != KindCompiledCode {
				return retVal, fatalf("DefMethod: invalid operand kinds")
			}
			method := vm.Heap.Allocate(Value{Kind: KindCompiledCode, Code: ccObj.Value().Code}, vm.Heap.Prototype("Method"))
			receiver.SetMethod(nameObj.Value().Str, method)

		case OpDefLiteralMethod:
			receiver, err := regArg(t, in, 0)
			nameIdx, err2 := in.Arg(1)
			ccIdx, err3 := in.Arg(2)
			if err == nil {
				err = err2
			}
			if err == nil {
				err = err3
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			name, err := code.String(nameIdx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			cc, err := code.CodeObject(ccIdx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			method := vm.Heap.Allocate(Value{Kind: KindCompiledCode, Code: cc}, vm.Heap.Prototype("Method"))
			receiver.SetMethod(name, method)

		case OpSend:
			resultSlot, err := in.Arg(0)
			receiver, err2 := regArg(t, in, 1)
			nameIdx, err3 := in.Arg(2)
			allowPrivate, err4 := in.Arg(3)
			argCount, err5 := in.Arg(4)
			for _, e := range []error{err2, err3, err4, err5} {
				if err == nil {
					err = e
				}
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			name, err := code.String(nameIdx)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			method, _ := lookupMethod(receiver, name)
			if method == nil {
				return retVal, fatalf("%s does not respond to %q", describe(receiver), name)
			}
			methodVal := method.Value()
			if methodVal.Kind != KindCompiledCode {
				return retVal, fatalf("%s: method object is not compiled code", name)
			}
			mcode := methodVal.Code
			if mcode.IsPrivate && allowPrivate == 0 {
				return retVal, fatalf("%s is a private method", name)
			}
			args, err := collectArguments(t, in, 5, argCount)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if len(args) != mcode.RequiredArguments {
				return retVal, fatalf("%s requires %d arguments, %d given", name, mcode.RequiredArguments, len(args))
			}
			args = append([]*Object{receiver}, args...)
			rv, fatal := vm.RunCode(t, mcode, args)
			if fatal != nil {
				return retVal, fatal
			}
			if rv != nil {
				t.SetRegister(resultSlot, rv)
			}

		case OpReturn:
			slot, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if obj, rerr := t.Register(slot); rerr == nil {
				retVal = obj
			}

		case OpRunCode:
			slot, err := in.Arg(0)
			ccObj, err2 := regArg(t, in, 1)
			argObj, err3 := regArg(t, in, 2)
			if err == nil {
				err = err2
			}
			if err == nil {
				err = err3
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if ccObj.Value().Kind != KindCompiledCode {
				return retVal, fatalf("RunCode: not compiled code")
			}
			if argObj.Value().Kind != KindInteger {
				return retVal, fatalf("RunCode: argument count must be an integer")
			}
			argCount := int(argObj.Value().Integer)
			args, err := collectArguments(t, in, 3, argCount)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			rv, fatal := vm.RunCode(t, ccObj.Value().Code, args)
			if fatal != nil {
				return retVal, fatal
			}
			if rv != nil {
				t.SetRegister(slot, rv)
			}

		case OpGetToplevel:
			slot, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			t.SetRegister(slot, vm.Heap.GetToplevel())

		case OpIsError:
			slot, err := in.Arg(0)
			obj, err2 := regArg(t, in, 1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if obj.Value().Kind == KindError {
				t.SetRegister(slot, vm.Heap.True)
			} else {
				t.SetRegister(slot, vm.Heap.False)
			}

		case OpErrorToString:
			slot, err := in.Arg(0)
			obj, err2 := regArg(t, in, 1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			if obj.Value().Kind != KindError {
				return retVal, fatalf("ErrorToString: not an error object")
			}
			result := vm.Heap.Allocate(Value{Kind: KindString, Str: obj.Value().Error}, vm.Heap.Prototype("String"))
			t.SetRegister(slot, result)

		// -- branching --------------------------------------------------

		case OpGoto:
			target, err := in.Arg(0)
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			jump = target

		case OpGotoIfTrue:
			target, err := in.Arg(0)
			slot, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj, _ := t.Register(slot)
			if isTruthy(vm, obj) {
				jump = target
			}

		case OpGotoIfFalse:
			target, err := in.Arg(0)
			slot, err2 := in.Arg(1)
			if err == nil {
				err = err2
			}
			if err != nil {
				return retVal, fatalf("%v", err)
			}
			obj, _ := t.Register(slot)
			if !isTruthy(vm, obj) {
				jump = target
			}

		// -- arithmetic ---------------------------------------------------

		default:
			if isArithOp(in.Op) {
				if err := vm.execArith(t, code, in); err != nil {
					return retVal, err
				}
				break
			}
			if isArrayOp(in.Op) {
				if err := vm.execArray(t, in); err != nil {
					return retVal, err
				}
				break
			}
			if isStringOp(in.Op) {
				if err := vm.execString(t, in); err != nil {
					return retVal, err
				}
				break
			}
			if isIOOp(in.Op) {
				if err := vm.execIO(t, in); err != nil {
					return retVal, err
				}
				break
			}
			switch in.Op {
			case OpStartThread:
				if err := vm.execStartThread(t, code, in); err != nil {
					return retVal, err
				}
			case OpRunFileFast:
				if err := vm.execRunFileFast(t, code, in); err != nil {
					return retVal, err
				}
			default:
				return retVal, fatalf("unimplemented opcode %s", in.Op)
			}
		}

		if jump >= 0 {
			ip = jump - 1
		}
	}

	return retVal, nil
}

func protoNameFor(op Opcode) string {
	switch op {
	case OpGetIntegerPrototype:
		return "Integer"
	case OpGetFloatPrototype:
		return "Float"
	case OpGetStringPrototype:
		return "String"
	case OpGetArrayPrototype:
		return "Array"
	case OpGetThreadPrototype:
		return "Thread"
	case OpGetMethodPrototype:
		return "Method"
	case OpGetCompiledCodePrototype:
		return "CompiledCode"
	case OpGetFilePrototype:
		return "File"
	default:
		return ""
	}
}

func describe(o *Object) string {
	if n := o.Name(); n != "" {
		return n
	}
	return o.Value().Kind.String()
}
