package browse

import (
	"io/fs"
	"time"
)

// Metadata extracts what a listing shows about an entry. Each platform
// provides one adapter; see metadata_windows.go and metadata_other.go.
type Metadata interface {
	// Info reads the entry's own metadata without following symlinks.
	Info(entry fs.DirEntry) (fs.FileInfo, error)
	// FileSize reports the size in bytes. Directories report 0.
	FileSize(info fs.FileInfo) int64
	ModifiedTime(info fs.FileInfo) time.Time
}

// PlatformMetadata returns the adapter for the running platform.
func PlatformMetadata() Metadata {
	return platformMetadata{}
}

func (platformMetadata) Info(entry fs.DirEntry) (fs.FileInfo, error) {
	return entry.Info()
}
