package server

import (
	"embed"
	"html/template"
	"io/fs"

	"lanbrowse/internal/browse"
)

// assetPrefix is reserved for the server's own files. A root entry with
// this name is shadowed.
const assetPrefix = "/.lanbrowse/"

//go:embed static
var staticFiles embed.FS

func staticFS() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

const pageTemplates = `
{{define "head"}}<!DOCTYPE html>
<html lang="en">
  <head>
    <meta charset="utf-8">
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <title>{{.}}</title>
    <link rel="icon" type="image/svg+xml" href="{{assetURL "favicon.svg"}}">
    <link rel="stylesheet" href="{{assetURL "layout.css"}}">
  </head>
{{end}}

{{define "index"}}{{template "head" .Listing.Path}}
  <body>
    <nav class="breadcrumbs">
      <a href="{{.Listing.RootHref}}">root</a>
      {{- range .Listing.Breadcrumbs}}
      <span class="sep">/</span> <a href="{{.Href}}">{{.Segment}}</a>
      {{- end}}
    </nav>
    <table class="listing">
      <thead>
        <tr><th></th><th>Name</th><th>Modified</th><th class="size">Size</th></tr>
      </thead>
      <tbody>
        {{- if .Listing.Breadcrumbs}}
        <tr class="parent">
          <td><img class="icon" src="{{assetURL "folder.svg"}}" alt=""></td>
          <td><a href="../">..</a></td><td></td><td></td>
        </tr>
        {{- end}}
        {{- range .Listing.Entries}}
        <tr class="{{.Icon}}">
          <td><img class="icon" src="{{assetURL (printf "%s.svg" .Icon)}}" alt="{{.Icon}}"></td>
          <td><a href="{{.URL}}">{{.Name}}</a></td>
          <td>{{.Modified}}</td>
          <td class="size">{{.Size}}</td>
        </tr>
        {{- end}}
      </tbody>
    </table>
    <form class="upload" method="post" enctype="multipart/form-data">
      <input type="file" name="file" multiple required>
      <button type="submit">Upload</button>
      <span class="limit">max {{.UploadLimit}}</span>
    </form>
  </body>
</html>
{{end}}

{{define "error"}}{{template "head" .Title}}
  <body>
    <main class="error">
      <h1>{{.Title}}</h1>
      <p>{{.Message}}</p>
      <p><a href="/">Back to the root</a></p>
    </main>
  </body>
</html>
{{end}}
`

type indexPageData struct {
	Listing     *browse.Listing
	UploadLimit string
}

type errorPageData struct {
	Title   string
	Message string
}

func newPageTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"assetURL": func(name string) string {
			return assetPrefix + "static/" + name
		},
	}
	return template.New("pages").Funcs(funcs).Parse(pageTemplates)
}
