package internal

import (
	"io"
	"os"
	"sync"
)

// FileHandle is the owned filesystem handle backing a File-kind Value. The
// VM does not close it: FileOpen always wraps a new handle in a new Object,
// and the OS handle stays open until Close is called on it.
type FileHandle struct {
	mu   sync.Mutex
	File *os.File
	Path string
	Mode string
}

// openModes maps the six supported mode strings to os.OpenFile flags.
var openModes = map[string]int{
	"r":  os.O_RDONLY,
	"r+": os.O_RDWR | os.O_CREATE | os.O_TRUNC,
	"w":  os.O_WRONLY | os.O_CREATE | os.O_TRUNC,
	"w+": os.O_RDWR | os.O_CREATE | os.O_TRUNC,
	"a":  os.O_WRONLY | os.O_CREATE | os.O_APPEND,
	"a+": os.O_RDWR | os.O_CREATE | os.O_APPEND,
}

// OpenFile opens path in the given mode, returning an error for any mode
// string other than the six recognized ("r", "r+", "w", "w+", "a", "a+").
func OpenFile(path, mode string) (*FileHandle, error) {
	flag, ok := openModes[mode]
	if !ok {
		return nil, errInvalidOpenMode
	}
	f, err := os.OpenFile(path, flag, 0644)
	if err != nil {
		return nil, err
	}
	return &FileHandle{File: f, Path: path, Mode: mode}, nil
}

var errInvalidOpenMode = &modeError{}

type modeError struct{}

func (*modeError) Error() string { return "invalid open mode" }

// Read reads the file to EOF.
func (f *FileHandle) Read() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, err := io.ReadAll(f.File)
	return string(b), err
}

// ReadLine reads through the first 0x0A byte, inclusive of everything
// before it but excluding the newline itself.
func (f *FileHandle) ReadLine() (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := f.File.Read(one)
		if n == 1 {
			if one[0] == '\n' {
				return string(buf), nil
			}
			buf = append(buf, one[0])
		}
		if err != nil {
			if err == io.EOF {
				return string(buf), io.EOF
			}
			return string(buf), err
		}
	}
}

// Write writes p and returns the number of bytes written.
func (f *FileHandle) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.File.Write(p)
}

// Flush flushes any OS-buffered writes. Go's os.File is unbuffered, so this
// is a Sync.
func (f *FileHandle) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.File.Sync()
}

// Seek moves the file cursor to offset, measured from the start of the file.
func (f *FileHandle) Seek(offset int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.File.Seek(offset, io.SeekStart)
}

// Close releases the underlying OS file handle.
func (f *FileHandle) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.File.Close()
}
