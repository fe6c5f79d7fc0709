package browse

import (
	"net/url"
	"slices"
	"strings"
)

// Breadcrumb links one ancestor of the current listing.
type Breadcrumb struct {
	// Up is the run of "../" that climbs from the listing page past this segment.
	Up      string
	Segment string
	// Href navigates to this segment's listing from the current page.
	Href string
}

// BuildBreadcrumbs returns one crumb per component of rel, root to leaf.
func BuildBreadcrumbs(rel string) []Breadcrumb {
	parts := components(rel)
	crumbs := make([]Breadcrumb, 0, len(parts))

	up := ""
	for i := len(parts) - 1; i >= 0; i-- {
		up += "../"
		crumbs = append(crumbs, Breadcrumb{
			Up:      up,
			Segment: parts[i],
			Href:    up + url.PathEscape(parts[i]) + "/",
		})
	}
	slices.Reverse(crumbs)

	return crumbs
}

func components(rel string) []string {
	var parts []string
	for _, p := range strings.Split(rel, "/") {
		if p == "" || p == "." {
			continue
		}
		parts = append(parts, p)
	}
	return parts
}
