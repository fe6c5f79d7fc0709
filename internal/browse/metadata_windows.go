//go:build windows

package browse

import (
	"io/fs"
	"syscall"
	"time"
)

type platformMetadata struct{}

func (platformMetadata) FileSize(info fs.FileInfo) int64 {
	if d, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		if d.FileAttributes&syscall.FILE_ATTRIBUTE_DIRECTORY != 0 {
			return 0
		}
		return int64(d.FileSizeHigh)<<32 | int64(d.FileSizeLow)
	}
	if info.IsDir() {
		return 0
	}
	return info.Size()
}

func (platformMetadata) ModifiedTime(info fs.FileInfo) time.Time {
	if d, ok := info.Sys().(*syscall.Win32FileAttributeData); ok {
		return time.Unix(0, d.LastWriteTime.Nanoseconds())
	}
	return info.ModTime()
}
