// Package bytecode implements serialization and deserialization for .virec
// bytecode files: the on-disk form of a internal.CompiledCode tree.
//
// Binary Format Layout:
//
//	[Header]
//	  Magic Number (4 bytes): 0x56495245 ("VIRE"), little-endian like every
//	    other field, so the bytes on disk read "ERIV"
//	  Version (4 bytes): format version number (currently 1)
//	  Flags (4 bytes): reserved for future use
//
//	[Root CompiledCode]
//	  recursively encoded as described by encodeCode/decodeCode below
//
// A CompiledCode is encoded as:
//
//	Name, File (length-prefixed UTF-8 strings)
//	Line, RequiredArguments (4-byte signed integers)
//	IsPrivate (1 byte: 0 or 1)
//	IntegerLiterals: count (4 bytes) + count * int64
//	FloatLiterals:   count (4 bytes) + count * float64
//	StringLiterals:  count (4 bytes) + count * length-prefixed string
//	CodeObjects:     count (4 bytes) + count * nested CompiledCode
//	Instructions:    count (4 bytes) + count * Instruction
//
// An Instruction is encoded as:
//
//	Opcode (1 byte), Line, Column (4 bytes each)
//	Args: count (4 bytes) + count * int32
package bytecode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/vire-lang/vire/internal"
)

const (
	magicNumber   uint32 = 0x56495245
	formatVersion uint32 = 1
	formatFlags   uint32 = 0
)

// Encode serializes root, and everything it transitively references, to w
// in the .virec binary format.
func Encode(root *internal.CompiledCode, w io.Writer) error {
	if err := writeHeader(w); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if err := encodeCode(w, root); err != nil {
		return fmt.Errorf("failed to write code object: %w", err)
	}
	return nil
}

// Decode reads a .virec file from r and reconstructs its root CompiledCode.
func Decode(r io.Reader) (*internal.CompiledCode, error) {
	version, err := readHeader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	if version != formatVersion {
		return nil, fmt.Errorf("unsupported bytecode version: %d (expected %d)", version, formatVersion)
	}
	return decodeCode(r)
}

func writeHeader(w io.Writer) error {
	for _, v := range []uint32{magicNumber, formatVersion, formatFlags} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	return nil
}

func readHeader(r io.Reader) (uint32, error) {
	var magic uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return 0, err
	}
	if magic != magicNumber {
		return 0, fmt.Errorf("invalid magic number: 0x%08X (expected 0x%08X)", magic, magicNumber)
	}
	var version, flags uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return 0, err
	}
	if err := binary.Read(r, binary.LittleEndian, &flags); err != nil {
		return 0, err
	}
	return version, nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.LittleEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

func readString(r io.Reader) (string, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func encodeCode(w io.Writer, c *internal.CompiledCode) error {
	if err := writeString(w, c.Name); err != nil {
		return err
	}
	if err := writeString(w, c.File); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(c.Line)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(c.RequiredArguments)); err != nil {
		return err
	}
	private := byte(0)
	if c.IsPrivate {
		private = 1
	}
	if err := binary.Write(w, binary.LittleEndian, private); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(c.IntegerLiterals))); err != nil {
		return err
	}
	for _, v := range c.IntegerLiterals {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(c.FloatLiterals))); err != nil {
		return err
	}
	for _, v := range c.FloatLiterals {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(c.StringLiterals))); err != nil {
		return err
	}
	for _, v := range c.StringLiterals {
		if err := writeString(w, v); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(c.CodeObjects))); err != nil {
		return err
	}
	for _, v := range c.CodeObjects {
		if err := encodeCode(w, v); err != nil {
			return err
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(c.Instructions))); err != nil {
		return err
	}
	for _, in := range c.Instructions {
		if err := encodeInstruction(w, in); err != nil {
			return err
		}
	}
	return nil
}

func encodeInstruction(w io.Writer, in internal.Instruction) error {
	if err := binary.Write(w, binary.LittleEndian, byte(in.Op)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(in.Line)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(in.Column)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.LittleEndian, int32(len(in.Args))); err != nil {
		return err
	}
	for _, a := range in.Args {
		if err := binary.Write(w, binary.LittleEndian, int32(a)); err != nil {
			return err
		}
	}
	return nil
}

func decodeCode(r io.Reader) (*internal.CompiledCode, error) {
	c := &internal.CompiledCode{}
	var err error
	if c.Name, err = readString(r); err != nil {
		return nil, err
	}
	if c.File, err = readString(r); err != nil {
		return nil, err
	}
	var line, required int32
	if err := binary.Read(r, binary.LittleEndian, &line); err != nil {
		return nil, err
	}
	if err := binary.Read(r, binary.LittleEndian, &required); err != nil {
		return nil, err
	}
	c.Line = int(line)
	c.RequiredArguments = int(required)

	var private byte
	if err := binary.Read(r, binary.LittleEndian, &private); err != nil {
		return nil, err
	}
	c.IsPrivate = private != 0

	var intCount int32
	if err := binary.Read(r, binary.LittleEndian, &intCount); err != nil {
		return nil, err
	}
	c.IntegerLiterals = make([]int64, intCount)
	for i := range c.IntegerLiterals {
		if err := binary.Read(r, binary.LittleEndian, &c.IntegerLiterals[i]); err != nil {
			return nil, err
		}
	}

	var floatCount int32
	if err := binary.Read(r, binary.LittleEndian, &floatCount); err != nil {
		return nil, err
	}
	c.FloatLiterals = make([]float64, floatCount)
	for i := range c.FloatLiterals {
		if err := binary.Read(r, binary.LittleEndian, &c.FloatLiterals[i]); err != nil {
			return nil, err
		}
	}

	var strCount int32
	if err := binary.Read(r, binary.LittleEndian, &strCount); err != nil {
		return nil, err
	}
	c.StringLiterals = make([]string, strCount)
	for i := range c.StringLiterals {
		if c.StringLiterals[i], err = readString(r); err != nil {
			return nil, err
		}
	}

	var codeCount int32
	if err := binary.Read(r, binary.LittleEndian, &codeCount); err != nil {
		return nil, err
	}
	c.CodeObjects = make([]*internal.CompiledCode, codeCount)
	for i := range c.CodeObjects {
		if c.CodeObjects[i], err = decodeCode(r); err != nil {
			return nil, err
		}
	}

	var insCount int32
	if err := binary.Read(r, binary.LittleEndian, &insCount); err != nil {
		return nil, err
	}
	c.Instructions = make([]internal.Instruction, insCount)
	for i := range c.Instructions {
		if c.Instructions[i], err = decodeInstruction(r); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func decodeInstruction(r io.Reader) (internal.Instruction, error) {
	var op byte
	if err := binary.Read(r, binary.LittleEndian, &op); err != nil {
		return internal.Instruction{}, err
	}
	var line, column, argc int32
	if err := binary.Read(r, binary.LittleEndian, &line); err != nil {
		return internal.Instruction{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &column); err != nil {
		return internal.Instruction{}, err
	}
	if err := binary.Read(r, binary.LittleEndian, &argc); err != nil {
		return internal.Instruction{}, err
	}
	args := make([]int, argc)
	for i := range args {
		var a int32
		if err := binary.Read(r, binary.LittleEndian, &a); err != nil {
			return internal.Instruction{}, err
		}
		args[i] = int(a)
	}
	return internal.Instruction{Op: internal.Opcode(op), Line: int(line), Column: int(column), Args: args}, nil
}

// FileParser implements internal.Parser by reading .virec files from disk.
// The cmd/vire driver installs it as its VM's Parser, which RunFileFast then
// uses; a VM built with New has no Parser until one is set.
type FileParser struct{}

// Parse reads and decodes the .virec file at path.
func (FileParser) Parse(path string) (*internal.CompiledCode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(bufio.NewReader(f))
}
