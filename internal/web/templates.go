package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageFiles = map[string]string{
	"sheet":       "templates/sheet.html",
	"dice":        "templates/dice.html",
	"placeholder": "templates/placeholder.html",
	"log":         "templates/log.html",
}

type tab struct {
	Path  string
	Label string
}

var tabs = []tab{
	{"/", "Sheet"},
	{"/dice", "Dice"},
	{"/messages", "Messages"},
	{"/map", "Map"},
	{"/dm", "DM Tools"},
	{"/log", "Log"},
}

type page struct {
	Title  string
	Active string
	Clock  string
	Tabs   []tab
	Body   any
}

var textPolicy = bluemonday.StrictPolicy()

// timestampLayouts covers what SQLite and the seed document produce.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parsePages(funcs template.FuncMap) (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(pageFiles))
	for name, file := range pageFiles {
		t, err := template.New("base").Funcs(funcs).ParseFS(templateFS, "templates/layout.html", file)
		if err != nil {
			return nil, fmt.Errorf("parsing %s template: %w", name, err)
		}
		pages[name] = t
	}
	return pages, nil
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"ago":       s.ago,
		"clean":     clean,
		"highlight": highlight,
		"faces":     formatFaces,
	}
}

// ago renders a stored timestamp relative to now. Unparseable text is shown as is.
func (s *Server) ago(ts string) string {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return ""
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, ts); err == nil {
			return humanize.RelTime(t, s.now(), "ago", "from now")
		}
	}
	return ts
}

// clean strips every tag from user-authored text. The result is already escaped.
func clean(text string) template.HTML {
	return template.HTML(textPolicy.Sanitize(text))
}

// highlight turns the **match** markers of a search snippet into <mark> tags.
func highlight(snippet string) template.HTML {
	parts := strings.Split(textPolicy.Sanitize(snippet), "**")
	var b strings.Builder
	for i, p := range parts {
		if i%2 == 1 && i < len(parts)-1 {
			b.WriteString("<mark>" + p + "</mark>")
			continue
		}
		if i%2 == 1 {
			b.WriteString("**")
		}
		b.WriteString(p)
	}
	return template.HTML(b.String())
}

// formatFaces renders faces as "[3,5]".
func formatFaces(faces []int) string {
	out := make([]string, len(faces))
	for i, f := range faces {
		out[i] = strconv.Itoa(f)
	}
	return "[" + strings.Join(out, ",") + "]"
}

func (s *Server) render(w http.ResponseWriter, name, active, title string, body any) {
	t, ok := s.pages[name]
	if !ok {
		http.Error(w, "Unknown page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	err := t.ExecuteTemplate(&buf, "layout", page{
		Title:  title,
		Active: active,
		Clock:  s.now().Format("15:04:05"),
		Tabs:   tabs,
		Body:   body,
	})
	if err != nil {
		s.logger.Printf("[web] render %s: %v", name, err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	buf.WriteTo(w)
}
