// Package view renders the HTML page shell.
package view

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// Placeholders replaced in the template.
const (
	titleMarker   = "<!--app-title-->"
	contentMarker = "<!--app-html-->"
)

// Page is the data rendered into the template.
type Page struct {
	Title   string
	Content string
}

// withDefaults fills the blank fields of p.
func (p Page) withDefaults() Page {
	if p.Title == "" {
		p.Title = "Hello"
	}
	if p.Content == "" {
		p.Content = "<h1>Hello World!</h1>"
	}
	return p
}

// Template renders a page from an HTML file. With caching on, the file is
// read once; otherwise every render reads it again so edits show up
// without a restart.
type Template struct {
	path  string
	cache bool

	mu  sync.Mutex
	src string
}

// NewTemplate creates a Template for the file at path.
func NewTemplate(path string, cache bool) *Template {
	return &Template{path: path, cache: cache}
}

// Render returns the template with the title and content markers replaced.
func (t *Template) Render(p Page) (string, error) {
	src, err := t.load()
	if err != nil {
		return "", err
	}
	p = p.withDefaults()
	out := strings.Replace(src, titleMarker, p.Title, 1)
	out = strings.Replace(out, contentMarker, p.Content, 1)
	return out, nil
}

func (t *Template) load() (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.cache && t.src != "" {
		return t.src, nil
	}
	b, err := os.ReadFile(t.path)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", t.path, err)
	}
	t.src = string(b)
	return t.src, nil
}
