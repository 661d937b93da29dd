// Package prompttmpl holds the small helpers shared by every prompt
// template in the repo.
package prompttmpl

import (
	"strings"
	"text/template"
)

// MustParse parses a prompt template, panicking on error. Templates are
// compiled once at init, so a bad template fails fast at startup.
func MustParse(name, src string, funcs template.FuncMap) *template.Template {
	t := template.New(name).Option("missingkey=error")
	if funcs != nil {
		t = t.Funcs(funcs)
	}
	return template.Must(t.Parse(src))
}

// Render executes a template into a string.
func Render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
