//go:build plan9 || js

package internal

// Size reports the file's current size in bytes using the portable
// os.FileInfo path, for platforms golang.org/x/sys does not cover with the
// same fstat/GetFileInformationByHandle shape as file_unix.go/file_windows.go.
func (f *FileHandle) Size() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fi, err := f.File.Stat()
	if err != nil {
		return 0, err
	}
	return fi.Size(), nil
}
