package shaders

import (
	"bytes"
	"embed"
	"fmt"
	"image/color"
	"text/template"
)

//go:embed *.frag *.vert
var templateDir embed.FS

type Shaderer struct {
	templates *template.Template
}

func NewShaderer() (*Shaderer, error) {
	s := &Shaderer{}

	var err error

	s.templates, err = template.New("").Funcs(template.FuncMap{
		// colour channel to [0, 1]
		"div": func(c uint8) float32 { return float32(c) / 255 },
	}).ParseFS(templateDir, "*.frag", "*.vert")

	return s, err
}

// ShaderData contains stuff that gets passed to the shader
type ShaderData struct {
	PositionSlot int
	TexCoordSlot int
	NormalSlot   int
	ColourSlot   int
	Ambient      float32
	Tint         color.RGBA
}

func (s *Shaderer) GetShaderSource(name string, data *ShaderData) (string, error) {
	var b bytes.Buffer
	err := s.templates.ExecuteTemplate(&b, name, data)
	if err != nil {
		return "", fmt.Errorf("error while rendering template: %s", err)
	}

	return b.String(), nil
}

func (s *Shaderer) TemplateNames() []string {
	var names []string
	for _, t := range s.templates.Templates() {
		names = append(names, t.Name())
	}
	return names
}
