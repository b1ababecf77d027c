package internal

import "strconv"

// CallFrame is a node in a thread's singly-linked call stack, recording
// enough to format a backtrace line: the source file, the declared name of
// the running code, and the current source line.
type CallFrame struct {
	File string
	Name string
	Line int

	prev *CallFrame
}

// push returns a new frame chained in front of the given head.
func push(head *CallFrame, file, name string, line int) *CallFrame {
	return &CallFrame{File: file, Name: name, Line: line, prev: head}
}

// pop returns the frame beneath this one, or nil if this was the last.
func (f *CallFrame) pop() *CallFrame {
	if f == nil {
		return nil
	}
	return f.prev
}

// Backtrace renders the frame chain from innermost to outermost as
// "file line N in \"name\"" lines, the format the fatal-error banner uses.
func Backtrace(head *CallFrame) []string {
	var lines []string
	for f := head; f != nil; f = f.prev {
		lines = append(lines, formatFrame(f))
	}
	return lines
}

func formatFrame(f *CallFrame) string {
	name := f.Name
	if name == "" {
		name = "?"
	}
	return f.File + " line " + strconv.Itoa(f.Line) + " in \"" + name + "\""
}
