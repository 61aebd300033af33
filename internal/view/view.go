// Package view renders the dashboard's HTML pages.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Pages lists every template Render accepts.
var Pages = []string{"index", "privacy", "terms", "classes", "class", "assignment", "todo", "error"}

// Page is the data every template receives. Data holds the page-specific
// values.
type Page struct {
	SiteTitle string
	SignedIn  bool
	Data      any
}

// ErrorData is the Data of the error page.
type ErrorData struct {
	Status     int
	Message    string
	SignInLink bool
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"due": formatDue,
}

func New() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template, len(Pages))}

	for _, name := range Pages {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templatesFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}

	return r, nil
}

// Render executes the named page into w. Nothing is written to w when
// rendering fails.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown template: %s", name)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("failed to render template %s: %w", name, err)
	}

	_, err := buf.WriteTo(w)
	return err
}

func formatDue(t *time.Time) string {
	if t == nil {
		return "No due date"
	}
	return t.UTC().Format("Mon Jan 2, 2006 15:04 UTC")
}
