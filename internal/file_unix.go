//go:build !windows && !plan9 && !js

package internal

import "golang.org/x/sys/unix"

// Size reports the file's current size in bytes via a raw fstat(2), using
// golang.org/x/sys/unix rather than the stdlib syscall package's less
// portable surface.
func (f *FileHandle) Size() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var st unix.Stat_t
	if err := unix.Fstat(int(f.File.Fd()), &st); err != nil {
		return 0, err
	}
	return st.Size, nil
}
