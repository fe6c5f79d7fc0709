package browse

import (
	"io/fs"

	"github.com/pkg/errors"
)

// Listing is everything the index template renders for one directory.
type Listing struct {
	// Path is the slash-rooted display path, "/" for the root.
	Path        string
	RootHref    string
	Breadcrumbs []Breadcrumb
	Entries     []DirEntryView
}

// Assemble attaches breadcrumbs for resolved to entries.
func Assemble(resolved ResolvedPath, entries []DirEntryView) *Listing {
	crumbs := BuildBreadcrumbs(resolved.Rel)
	rootHref := "./"
	if len(crumbs) > 0 {
		rootHref = crumbs[0].Up
	}
	return &Listing{
		Path:        "/" + resolved.Rel,
		RootHref:    rootHref,
		Breadcrumbs: crumbs,
		Entries:     entries,
	}
}

type TargetKind int

const (
	TargetNotFound TargetKind = iota
	TargetDirectory
	TargetFile
)

func (k TargetKind) String() string {
	switch k {
	case TargetDirectory:
		return "directory"
	case TargetFile:
		return "file"
	default:
		return "not found"
	}
}

// Target is what a request path names. Listing is set only for directories.
type Target struct {
	Kind    TargetKind
	Path    ResolvedPath
	Listing *Listing
}

// Lookup resolves requestPath and, for directories, builds the listing.
// Errors other than "not found" are I/O failures.
func (r Root) Lookup(requestPath string) (Target, error) {
	resolved, err := r.Resolve(requestPath)
	if err != nil {
		if errors.Is(err, ErrTraversal) {
			return Target{Kind: TargetNotFound}, nil
		}
		return Target{}, err
	}

	entries, err := r.ListDirectory(resolved.Abs)
	switch {
	case errors.Is(err, ErrNotDirectory):
		return Target{Kind: TargetFile, Path: resolved}, nil
	case errors.Is(err, fs.ErrNotExist):
		// The directory itself was removed after resolution.
		return Target{Kind: TargetNotFound}, nil
	case err != nil:
		return Target{}, err
	}

	return Target{
		Kind:    TargetDirectory,
		Path:    resolved,
		Listing: Assemble(resolved, entries),
	}, nil
}
