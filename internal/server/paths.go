package server

import (
	"net/http"
	"strings"

	"lanbrowse/internal/browse"
)

// requestPath is the decoded URL path handed to the resolver.
func requestPath(r *http.Request) string {
	return browse.DecodeRequestPath(r.URL.EscapedPath())
}

// listingURL is the canonical URL of the directory at r's path: a single
// leading slash and a trailing slash. Collapsing leading slashes keeps a
// path like "//host" from becoming a protocol-relative redirect.
func listingURL(r *http.Request) string {
	p := "/" + strings.TrimLeft(r.URL.EscapedPath(), "/")
	if !strings.HasSuffix(p, "/") {
		p += "/"
	}
	return p
}
