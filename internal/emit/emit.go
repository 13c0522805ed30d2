// Package emit renders the generated files of a CE project: the playback
// program, its makefile and .gitignore, and the convimg descriptor that turns
// resized frames into sprites.
//
// Every artifact is a pure function of its inputs; identical inputs produce
// identical bytes.
package emit

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/backmassage/calcanim/internal/project"
)

// ErrNoFrames is returned when there is nothing to animate.
var ErrNoFrames = errors.New("no frames to emit")

//go:embed templates
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"join": strings.Join,
	"yesno": func(b bool) string {
		if b {
			return "YES"
		}
		return "NO"
	},
}).ParseFS(templateFS, "templates/*.tmpl"))

// Params are the inputs of one project's artifacts.
type Params struct {
	VideoID        string
	Frames         []string // Sprite names (frame_1, frame_2, ...) in playback order.
	Width          int
	Height         int
	FPS            int
	EndOnLastFrame bool
	Archive        bool
	Compress       bool
	Debug          bool
}

// ParamsFor copies the emitter-relevant fields of c.
func ParamsFor(c project.Configuration, frames []string) Params {
	return Params{
		VideoID:        c.VideoID,
		Frames:         frames,
		Width:          c.Width,
		Height:         c.Height,
		FPS:            c.FPS,
		EndOnLastFrame: c.EndOnLastFrame,
		Archive:        c.Archive,
		Compress:       c.Compress,
		Debug:          c.Debug,
	}
}

// Artifacts are the rendered project files.
type Artifacts struct {
	MainSource []byte // src/main.c
	Makefile   []byte
	GitIgnore  []byte
}

// Size is the total byte count of all artifacts.
func (a Artifacts) Size() int64 {
	return int64(len(a.MainSource) + len(a.Makefile) + len(a.GitIgnore))
}

type makefileData struct {
	Params
	Name string
}

// Emit renders all project artifacts for p.
func Emit(p Params) (Artifacts, error) {
	if len(p.Frames) == 0 {
		return Artifacts{}, ErrNoFrames
	}
	main, err := render("main.c.tmpl", p)
	if err != nil {
		return Artifacts{}, err
	}
	mk, err := render("makefile.tmpl", makefileData{Params: p, Name: project.ProjectName(p.VideoID)})
	if err != nil {
		return Artifacts{}, err
	}
	gitignore, err := templateFS.ReadFile("templates/gitignore")
	if err != nil {
		return Artifacts{}, err
	}
	return Artifacts{MainSource: main, Makefile: mk, GitIgnore: gitignore}, nil
}

func render(name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
