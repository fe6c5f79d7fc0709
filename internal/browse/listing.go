package browse

import (
	"io"
	"io/fs"
	"iter"
	"net/url"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// readBatch bounds how many entries are held per ReadDir call.
const readBatch = 128

// ErrUnreadableEntry is returned when an existing directory cannot be read
// in full. It never matches fs.ErrNotExist.
var ErrUnreadableEntry = errors.New("directory entry is unreadable")

// DirEntryView is one row of a listing.
type DirEntryView struct {
	// URL is relative to the listing page and percent-encoded. Directories
	// carry a trailing slash.
	URL      string
	Name     string
	IsDir    bool
	Size     string
	Modified string
	Icon     string
}

// ListDirectory reads dir, which must lie inside r, and returns its entries,
// directories first. Both groups keep the order the filesystem returned them in.
//
// It returns ErrNotDirectory when dir exists but is not a directory, and an
// error matching fs.ErrNotExist only when dir itself is missing. Any failure
// reading an entry fails the whole listing with ErrUnreadableEntry.
func (r Root) ListDirectory(dir string) ([]DirEntryView, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", dir)
	}
	if !info.IsDir() {
		return nil, ErrNotDirectory
	}

	var views []DirEntryView
	for entry, err := range readEntries(dir) {
		if err != nil {
			return nil, err
		}
		view, err := r.entryView(dir, entry)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}

	return partition(views), nil
}

// readEntries yields the entries of dir in filesystem order, one batch at a
// time. Every range over the sequence re-reads the directory.
func readEntries(dir string) iter.Seq2[fs.DirEntry, error] {
	return func(yield func(fs.DirEntry, error) bool) {
		f, err := os.Open(dir)
		if err != nil {
			yield(nil, errors.Wrapf(err, "open %s", dir))
			return
		}
		defer f.Close()

		for {
			batch, err := f.ReadDir(readBatch)
			for _, entry := range batch {
				if !yield(entry, nil) {
					return
				}
			}
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, errors.Wrapf(ErrUnreadableEntry, "read %s: %v", dir, err))
				return
			}
		}
	}
}

func (r Root) entryView(dir string, entry fs.DirEntry) (DirEntryView, error) {
	name := entry.Name()
	info, err := r.meta.Info(entry)
	if err != nil {
		return DirEntryView{}, errors.Wrapf(ErrUnreadableEntry, "%s: %v", filepath.Join(dir, name), err)
	}
	if info.Mode()&fs.ModeSymlink != 0 {
		if target, ok := r.followLink(filepath.Join(dir, name)); ok {
			info = target
		}
	}

	view := DirEntryView{
		URL:      entryURL(name, info.IsDir()),
		Name:     name,
		IsDir:    info.IsDir(),
		Size:     FormatSize(r.meta.FileSize(info)),
		Modified: FormatDate(r.meta.ModifiedTime(info)),
		Icon:     "file",
	}
	if view.IsDir {
		view.Icon = "folder"
	}
	return view, nil
}

// followLink stats a symlink's target when it resolves inside the root.
// Links leaving the root keep their own metadata.
func (r Root) followLink(link string) (fs.FileInfo, bool) {
	target, err := filepath.EvalSymlinks(link)
	if err != nil || !r.contains(target) {
		return nil, false
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, false
	}
	return info, true
}

// entryURL escapes name for use as a relative link. url.URL takes care of
// names that would otherwise parse as a scheme ("a:b").
func entryURL(name string, dir bool) string {
	if dir {
		name += "/"
	}
	u := url.URL{Path: name}
	return u.String()
}

// partition moves directories ahead of files without reordering either group.
func partition(views []DirEntryView) []DirEntryView {
	out := make([]DirEntryView, 0, len(views))
	for _, v := range views {
		if v.IsDir {
			out = append(out, v)
		}
	}
	for _, v := range views {
		if !v.IsDir {
			out = append(out, v)
		}
	}
	return out
}
