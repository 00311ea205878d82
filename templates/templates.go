// Package templates holds the dashboard's HTML views.
package templates

import (
	"embed"
	"html/template"
)

//go:embed *.html
var FS embed.FS

// Load parses every view. Templates are named by file name.
func Load() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"json": toJSON,
	}).ParseFS(FS, "*.html")
}

// Must is Load for program start-up.
func Must() *template.Template {
	return template.Must(Load())
}
