package internal

// execStartThread implements StartThread: spawn a new OS thread (goroutine)
// running code from a fresh register/local/frame state, sharing the VM's
// single heap. The spawning thread blocks only until the worker has built
// and registered its own Thread/Object pair, handed back over a one-shot
// channel; it does not wait for the spawned code to finish.
func (vm *VM) execStartThread(t *Thread, code *CompiledCode, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	idx, err := in.Arg(1)
	if err != nil {
		return fatalf("%v", err)
	}
	threadCode, err := code.CodeObject(idx)
	if err != nil {
		return fatalf("%v", err)
	}
	t.SetRegister(slot, vm.startThread(threadCode))
	return nil
}

func (vm *VM) startThread(code *CompiledCode) *Object {
	ready := make(chan *Object, 1)

	go func() {
		nt := NewThread(false)
		obj := vm.Heap.Allocate(Value{Kind: KindThread, Thread: nt}, vm.Heap.Prototype("Thread"))
		nt.Self = obj
		obj.setPinned(true)
		vm.Threads.Add(nt, obj)
		ready <- obj

		result, fatal := vm.RunCode(nt, code, nil)
		if fatal != nil {
			vm.reportFatal(nt, fatal)
		}
		nt.finish(result, fatal)
		obj.setPinned(false)
		vm.Threads.Remove(nt)
	}()

	return <-ready
}
