package config

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/fosdem/meshview/lib/utils"
	"github.com/fosdem/meshview/lib/vertex"
	"github.com/go-gl/mathgl/mgl32"
	yaml "github.com/goccy/go-yaml"
)

type Config struct {
	Window         WindowCfg
	ClearColour    string  `yaml:"clear_colour"`
	Ambient        float32 `yaml:"ambient"`
	ShaderDebugDir CfgPath `yaml:"shader_debug_dir"`
	Model          *ModelCfg
	Buffers        map[string]*BufferCfg
	Geometries     map[string]*GeometryCfg
	Api            *ApiCfg
	Watch          bool
}

func Parse(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %s", filename, err)
	}
	defer f.Close()

	absFilename, err := filepath.Abs(filename)
	if err != nil {
		return nil, fmt.Errorf("somehow, %s is malformed: %w", filename, err)
	}
	UnmarshalBase = filepath.Dir(absFilename)

	m := yaml.NewDecoder(f)
	cfg := &Config{}
	err = m.Decode(cfg)
	if err != nil {
		return nil, err
	}
	err = cfg.Validate()
	if err != nil {
		return nil, err
	}
	return cfg, err
}

func (c *Config) Validate() error {
	var err error
	err = c.Window.Validate()
	if err != nil {
		return fmt.Errorf("window is invalid: %w", err)
	}
	if c.Model == nil && len(c.Geometries) == 0 {
		return fmt.Errorf("at least a model or one geometry should be defined")
	}
	if c.Model != nil {
		err = c.Model.Validate()
		if err != nil {
			return fmt.Errorf("model is invalid: %w", err)
		}
	}
	for k, v := range c.Buffers {
		err = v.Validate()
		if err != nil {
			return fmt.Errorf("buffer %s is invalid: %w", k, err)
		}
	}
	for k, v := range c.Geometries {
		err = v.Validate()
		if err != nil {
			return fmt.Errorf("geometry %s is invalid: %w", k, err)
		}
		for slot, bufName := range v.Slots {
			if _, ok := c.Buffers[bufName]; !ok {
				return fmt.Errorf("geometry %s slot %d refers to non-existant buffer %s", k, slot, bufName)
			}
		}
	}
	if c.Ambient < 0 || c.Ambient > 1 {
		return fmt.Errorf("ambient must be between 0 and 1")
	}

	if c.ClearColour == "" {
		return fmt.Errorf("please set clear_colour in the config")
	}
	if !utils.ColourValidate(c.ClearColour) {
		return fmt.Errorf("%s is not a valid RGBA hex colour", c.ClearColour)
	}
	if c.Api != nil && c.Api.Bind == "" {
		return fmt.Errorf("api needs a bind address")
	}
	return nil
}

func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Window: %s (%dx%d)\n", c.Window.Title, c.Window.Width, c.Window.Height)

	if c.Model != nil {
		fmt.Fprintf(&b, "\nModel: %s\n", c.Model.Path)
	}

	b.WriteString("\nBuffers:\n")
	for _, k := range slices.Sorted(maps.Keys(c.Buffers)) {
		v := c.Buffers[k]
		fmt.Fprintf(&b, "  %s (%d vertices of width %d)\n", k, len(v.Data)/v.Width, v.Width)
	}

	b.WriteString("\nGeometries:\n")
	for _, k := range slices.Sorted(maps.Keys(c.Geometries)) {
		fmt.Fprintf(&b, "  %s\n", k)
	}

	return b.String()
}

type WindowCfg struct {
	Title  string
	Width  int
	Height int
}

func (w *WindowCfg) Validate() error {
	if w.Title == "" {
		w.Title = "meshview"
	}
	if w.Width <= 0 || w.Height <= 0 {
		return fmt.Errorf("width and height must be positive")
	}
	return nil
}

type ModelCfg struct {
	Path     CfgPath
	Texture  CfgPath
	Position Vec3Cfg
	// degrees per second around the Y axis
	Spin float32
}

func (m *ModelCfg) Validate() error {
	if m.Path == "" {
		return fmt.Errorf("model path must be specified")
	}
	return m.Position.Validate()
}

type BufferCfg struct {
	Width int
	Data  []float32
}

func (b *BufferCfg) Validate() error {
	if b.Width < 2 || b.Width > 4 {
		return fmt.Errorf("width must be 2, 3 or 4, not %d", b.Width)
	}
	if len(b.Data) == 0 {
		return fmt.Errorf("data must not be empty")
	}
	if len(b.Data)%b.Width != 0 {
		return fmt.Errorf("%d values do not split into vectors of %d", len(b.Data), b.Width)
	}
	return nil
}

type GeometryCfg struct {
	Slots       map[int]string
	VertexCount int `yaml:"vertex_count"`
	Texture     CfgPath
	Position    Vec3Cfg
}

// PositionSlot is the attribute slot every geometry must fill
const PositionSlot = 0

func (g *GeometryCfg) Validate() error {
	if len(g.Slots) == 0 {
		return fmt.Errorf("at least one slot should be filled")
	}
	if _, ok := g.Slots[PositionSlot]; !ok {
		return fmt.Errorf("no position buffer in slot %d", PositionSlot)
	}
	for slot := range g.Slots {
		if slot < 0 || slot >= vertex.DefaultCapacity {
			return fmt.Errorf("slot %d is outside [0, %d)", slot, vertex.DefaultCapacity)
		}
	}
	if g.VertexCount < 0 {
		return fmt.Errorf("vertex_count must be nonnegative")
	}
	return g.Position.Validate()
}

// Vec3Cfg is written as a three element list, empty means the origin
type Vec3Cfg []float32

func (v Vec3Cfg) Validate() error {
	if len(v) != 0 && len(v) != 3 {
		return fmt.Errorf("position needs 3 components, got %d", len(v))
	}
	return nil
}

func (v Vec3Cfg) Vec3() mgl32.Vec3 {
	if len(v) != 3 {
		return mgl32.Vec3{}
	}
	return mgl32.Vec3{v[0], v[1], v[2]}
}

type ApiCfg struct {
	Bind           string
	EnableProfiler bool `yaml:"enable_profiler"`
}
