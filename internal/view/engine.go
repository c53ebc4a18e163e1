// Package view renders the blog's HTML pages. It implements fiber.Views over
// html/template with every page parsed together with the shared layout.
package view

import (
	"crypto/md5"
	"embed"
	"encoding/hex"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"path"
	"strings"
	"sync"
)

//go:embed templates/*.html
var templateFS embed.FS

const layoutFile = "layout.html"

// Engine holds one parsed template set per page.
type Engine struct {
	fsys  fs.FS
	mu    sync.RWMutex
	pages map[string]*template.Template
}

// New returns an engine over the embedded templates.
func New() *Engine {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	return NewFromFS(sub)
}

// NewFromFS returns an engine reading layout.html and the page files from fsys.
func NewFromFS(fsys fs.FS) *Engine {
	return &Engine{fsys: fsys}
}

// Funcs available to every template.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"gravatar": Gravatar,
		"safe":     func(s string) template.HTML { return template.HTML(s) },
		"nl2br": func(s string) template.HTML {
			return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
		},
	}
}

// Load parses the layout with each page.
func (e *Engine) Load() error {
	files, err := fs.Glob(e.fsys, "*.html")
	if err != nil {
		return err
	}

	pages := make(map[string]*template.Template, len(files))
	for _, f := range files {
		if f == layoutFile {
			continue
		}
		t, err := template.New(layoutFile).Funcs(Funcs()).ParseFS(e.fsys, layoutFile, f)
		if err != nil {
			return fmt.Errorf("parse %s: %w", f, err)
		}
		pages[strings.TrimSuffix(path.Base(f), ".html")] = t
	}

	e.mu.Lock()
	e.pages = pages
	e.mu.Unlock()
	return nil
}

// Render writes page name with binding. Layout names are ignored; every page shares
// the single layout.
func (e *Engine) Render(w io.Writer, name string, binding interface{}, _ ...string) error {
	e.mu.RLock()
	loaded := e.pages != nil
	e.mu.RUnlock()
	if !loaded {
		if err := e.Load(); err != nil {
			return err
		}
	}

	e.mu.RLock()
	t, ok := e.pages[name]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("view: template %q not found", name)
	}
	return t.ExecuteTemplate(w, "layout", binding)
}

// Gravatar returns the avatar URL for email: size 100, rating g, retro fallback.
func Gravatar(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	q := url.Values{}
	q.Set("s", "100")
	q.Set("d", "retro")
	q.Set("r", "g")
	return "https://www.gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?" + q.Encode()
}
