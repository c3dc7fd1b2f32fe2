package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"

	"photocapture/internal/notice"
	"photocapture/internal/service/capture"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageView is everything the index page renders.
type PageView struct {
	Capture capture.View
	List    ListView
	Notices []notice.Notice
}

// ConfirmView asks for a destructive action to be confirmed.
type ConfirmView struct {
	Message string
	Action  string
}

type Renderer struct {
	templates *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

func (r *Renderer) Page(w io.Writer, page PageView) error {
	return r.templates.ExecuteTemplate(w, "page", page)
}

// List renders the snapshot list fragment alone.
func (r *Renderer) List(w io.Writer, list ListView) error {
	return r.templates.ExecuteTemplate(w, "list", list)
}

func (r *Renderer) Confirm(w io.Writer, confirm ConfirmView) error {
	return r.templates.ExecuteTemplate(w, "confirm", confirm)
}

// Static is the embedded asset tree served under /static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}
