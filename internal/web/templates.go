package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/justestif/moodtunes/internal/music"
)

// Templates holds one parsed template per page. Each page is a clone of
// the shared layouts with the page's own "content" block added.
type Templates struct {
	pages map[string]*template.Template
}

// NewTemplates parses layouts/*.html and pages/*.html from templatesFS.
// A nil filesystem yields a set with no pages.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{pages: make(map[string]*template.Template)}
	if templatesFS == nil {
		return t, nil
	}

	layouts, err := template.New("layouts").Funcs(templateFuncs).ParseFS(templatesFS, "layouts/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing layouts: %w", err)
	}

	files, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("finding pages: %w", err)
	}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")

		page, err := layouts.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning layouts for %s: %w", name, err)
		}
		if _, err := page.ParseFS(templatesFS, file); err != nil {
			return nil, fmt.Errorf("parsing page %s: %w", name, err)
		}
		t.pages[name] = page
	}
	return t, nil
}

// Render executes the base layout for page.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.pages[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}
	return tmpl.ExecuteTemplate(w, "base", data)
}

var moodColors = map[string]string{
	music.MoodHappy:     "hsl(45, 95%, 55%)",
	music.MoodSad:       "hsl(220, 60%, 50%)",
	music.MoodEnergetic: "hsl(15, 90%, 55%)",
	music.MoodRelaxed:   "hsl(160, 50%, 45%)",
	music.MoodAngry:     "hsl(0, 75%, 50%)",
	music.MoodNeutral:   "hsl(264, 20%, 55%)",
}

var templateFuncs = template.FuncMap{
	// moodColor falls back to the neutral accent for unknown moods.
	"moodColor": func(mood string) string {
		if c, ok := moodColors[mood]; ok {
			return c
		}
		return moodColors[music.MoodNeutral]
	},
	"year": func() int { return time.Now().Year() },
}

// PageData is shared by every page.
type PageData struct {
	Title       string
	User        *UserData
	Flash       *FlashMessage
	CurrentPath string
}

// UserData is the signed-in user shown in the top bar.
type UserData struct {
	ID      string
	Name    string
	IsAdmin bool
}

// FlashMessage is a one-shot notice; Type is one of success, error, warning or info.
type FlashMessage struct {
	Type    string
	Message string
}

// HomePageData feeds pages/home.html.
type HomePageData struct {
	PageData
	Moods          []string
	VAPIDPublicKey string
}

// LoginPageData feeds pages/login.html.
type LoginPageData struct {
	PageData
	LoginEnabled bool
}
