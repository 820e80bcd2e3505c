// Package web renders the HTML pages through echo's Renderer and serves
// the embedded static assets.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded static assets rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Page names accepted by Renderer.Render.
const (
	PageHome     = "home"
	PageEvent    = "event"
	PageEnter    = "enter"
	PageNotFound = "notfound"
)

// Renderer executes one page template inside the shared layout.
type Renderer struct {
	pages map[string]*template.Template
}

// NewRenderer parses the layout and every page.
func NewRenderer() (*Renderer, error) {
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range []string{PageHome, PageEvent, PageEnter, PageNotFound} {
		t, err := template.New(name).Funcs(Funcs()).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data any, _ echo.Context) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, "layout", data)
}

// Funcs are the helpers available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"weekday":  func(t time.Time) string { return t.UTC().Format("Mon") },
		"day":      func(t time.Time) string { return t.UTC().Format("2") },
		"month":    func(t time.Time) string { return t.UTC().Format("Jan") },
		"year":     func(t time.Time) string { return t.UTC().Format("2006") },
		"longDate": func(t time.Time) string { return t.UTC().Format("Monday 2 January 2006") },
		"initials": Initials,
		"venue":    Venue,
	}
}

// Initials returns up to two upper-case initials of name, e.g. "YC" for
// "Yorkshire CC".
func Initials(name string) string {
	var out []rune
	for _, w := range strings.Fields(name) {
		out = append(out, []rune(strings.ToUpper(w))[0])
		if len(out) == 2 {
			break
		}
	}
	return string(out)
}

// Venue renders an optional venue, "TBC" when unset.
func Venue(v *string) string {
	if v == nil || strings.TrimSpace(*v) == "" {
		return "TBC"
	}
	return *v
}
