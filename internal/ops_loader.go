package internal

// execRunFileFast implements RunFileFast's at-most-once loading semantics:
// the named path is parsed and executed only the first time any thread
// reaches this instruction for that path; later attempts are a no-op,
// including across concurrent threads racing the same path.
func (vm *VM) execRunFileFast(t *Thread, code *CompiledCode, in Instruction) *FatalError {
	slot, err := in.Arg(0)
	if err != nil {
		return fatalf("%v", err)
	}
	idx, err := in.Arg(1)
	if err != nil {
		return fatalf("%v", err)
	}
	path, err := code.String(idx)
	if err != nil {
		return fatalf("%v", err)
	}

	if vm.markExecuted(path) {
		return nil
	}

	if vm.Parser == nil {
		return fatalf("RunFileFast: no parser configured")
	}
	body, perr := vm.Parser.Parse(path)
	if perr != nil {
		return fatalf("failed to parse %s: %v", path, perr)
	}

	rv, fatal := vm.RunCode(t, body, nil)
	if fatal != nil {
		return fatal
	}
	if rv != nil {
		t.SetRegister(slot, rv)
	}
	return nil
}
