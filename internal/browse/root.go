package browse

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

var (
	// ErrTraversal is returned when a request path does not name an existing
	// location inside the root. Callers report it as "not found".
	ErrTraversal = errors.New("path is outside the served root")

	// ErrNotDirectory is returned by ListDirectory for paths that exist but
	// are not directories.
	ErrNotDirectory = errors.New("not a directory")
)

// Root is the served directory. It is canonicalized once and never changes.
type Root struct {
	dir  string
	meta Metadata
}

// ResolvedPath is a location confined to a Root.
type ResolvedPath struct {
	// Abs is the canonical filesystem path.
	Abs string
	// Rel is the slash-separated path relative to the root, "" for the root itself.
	Rel string
}

// NewRoot canonicalizes dir and checks that it is a readable directory.
func NewRoot(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, errors.Wrapf(err, "abs %s", dir)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return Root{}, errors.Wrapf(err, "resolve %s", abs)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return Root{}, errors.Wrapf(err, "stat %s", canonical)
	}
	if !info.IsDir() {
		return Root{}, errors.Errorf("%s is not a directory", canonical)
	}
	f, err := os.Open(canonical)
	if err != nil {
		return Root{}, errors.Wrapf(err, "open %s", canonical)
	}
	_ = f.Close()

	return Root{dir: canonical, meta: PlatformMetadata()}, nil
}

func (r Root) Dir() string {
	return r.dir
}

// WithMetadata returns a copy of r that reads entries through meta.
func (r Root) WithMetadata(meta Metadata) Root {
	r.meta = meta
	return r
}

// Resolve maps a decoded request path onto the filesystem. The result always
// equals or descends from the root; anything else is ErrTraversal.
func (r Root) Resolve(requestPath string) (ResolvedPath, error) {
	// A leading separator must not turn the request into an absolute path.
	p := strings.TrimLeft(requestPath, `/\`)
	if strings.ContainsRune(p, 0) {
		return ResolvedPath{}, ErrTraversal
	}

	native := filepath.FromSlash(p)
	if filepath.IsAbs(native) || filepath.VolumeName(native) != "" {
		return ResolvedPath{}, ErrTraversal
	}

	joined := filepath.Join(r.dir, native)
	canonical, err := filepath.EvalSymlinks(joined)
	if err != nil {
		return ResolvedPath{}, errors.Wrap(ErrTraversal, err.Error())
	}
	if !r.contains(canonical) {
		return ResolvedPath{}, ErrTraversal
	}

	// Breadcrumbs follow the URL, so prefer the lexical relative path and
	// fall back to the canonical one when the request wandered through "..".
	rel, err := filepath.Rel(r.dir, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		rel, err = filepath.Rel(r.dir, canonical)
		if err != nil {
			return ResolvedPath{}, ErrTraversal
		}
	}
	if rel == "." {
		rel = ""
	}

	return ResolvedPath{Abs: canonical, Rel: filepath.ToSlash(rel)}, nil
}

func (r Root) contains(target string) bool {
	if target == r.dir {
		return true
	}
	prefix := r.dir
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	return strings.HasPrefix(target, prefix)
}
