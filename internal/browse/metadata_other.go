//go:build !windows

package browse

import (
	"io/fs"
	"time"
)

type platformMetadata struct{}

func (platformMetadata) FileSize(info fs.FileInfo) int64 {
	// Directory sizes on unix are block counts, not content.
	if info.IsDir() {
		return 0
	}
	return info.Size()
}

func (platformMetadata) ModifiedTime(info fs.FileInfo) time.Time {
	return info.ModTime()
}
