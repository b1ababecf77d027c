//go:build windows

package internal

import "golang.org/x/sys/windows"

// Size reports the file's current size in bytes via
// GetFileInformationByHandle, the Windows analogue of the unix fstat path
// in file_unix.go.
func (f *FileHandle) Size() (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := windows.Handle(f.File.Fd())
	var info windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &info); err != nil {
		return 0, err
	}
	return int64(info.FileSizeHigh)<<32 | int64(info.FileSizeLow), nil
}
