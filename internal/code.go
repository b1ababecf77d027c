package internal

import "fmt"

// CompiledCode is an immutable unit of execution: an instruction stream plus
// the literal pools and nested code objects it indexes into. Once built by
// the external bytecode parser, a CompiledCode is never mutated, so it needs
// no lock of its own; instructions only ever read it.
type CompiledCode struct {
	Name         string
	File         string
	Line         int
	Instructions []Instruction

	IntegerLiterals []int64
	FloatLiterals   []float64
	StringLiterals  []string
	CodeObjects     []*CompiledCode

	RequiredArguments int
	IsPrivate         bool
}

// Integer returns the i-th entry of the integer literal pool.
func (c *CompiledCode) Integer(i int) (int64, error) {
	if i < 0 || i >= len(c.IntegerLiterals) {
		return 0, fmt.Errorf("integer literal %d out of range (pool has %d entries)", i, len(c.IntegerLiterals))
	}
	return c.IntegerLiterals[i], nil
}

// Float returns the i-th entry of the float literal pool.
func (c *CompiledCode) Float(i int) (float64, error) {
	if i < 0 || i >= len(c.FloatLiterals) {
		return 0, fmt.Errorf("float literal %d out of range (pool has %d entries)", i, len(c.FloatLiterals))
	}
	return c.FloatLiterals[i], nil
}

// String returns the i-th entry of the string literal pool.
func (c *CompiledCode) String(i int) (string, error) {
	if i < 0 || i >= len(c.StringLiterals) {
		return "", fmt.Errorf("string literal %d out of range (pool has %d entries)", i, len(c.StringLiterals))
	}
	return c.StringLiterals[i], nil
}

// CodeObject returns the i-th nested compiled code object.
func (c *CompiledCode) CodeObject(i int) (*CompiledCode, error) {
	if i < 0 || i >= len(c.CodeObjects) {
		return nil, fmt.Errorf("code object %d out of range (pool has %d entries)", i, len(c.CodeObjects))
	}
	return c.CodeObjects[i], nil
}
