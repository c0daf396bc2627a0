// Package geometry builds the geometries described in the config out of
// shared vertex buffers and keeps them in sync when the config changes.
package geometry

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/fosdem/meshview/lib/config"
	"github.com/fosdem/meshview/lib/device"
	"github.com/fosdem/meshview/lib/vertex"
	"github.com/go-gl/mathgl/mgl32"
)

type Geometry struct {
	Name     string
	Array    *vertex.Array
	Texture  string
	Position mgl32.Vec3

	vertexCount int
}

// VertexCount is the configured count, or the shortest attached stream
func (g *Geometry) VertexCount() int {
	if g.vertexCount > 0 {
		return g.vertexCount
	}
	n := -1
	for _, slot := range g.Array.Slots() {
		c := g.Array.Buffer(slot).VertexCount()
		if n < 0 || c < n {
			n = c
		}
	}
	return max(n, 0)
}

func (g *Geometry) HasSlot(slot int) bool {
	return g.Array.Buffer(slot) != nil
}

type Library struct {
	dev        device.Device
	buffers    map[string]*vertex.Buffer
	geometries map[string]*Geometry
	log        *slog.Logger
}

func New(dev device.Device) *Library {
	return &Library{
		dev:        dev,
		buffers:    make(map[string]*vertex.Buffer),
		geometries: make(map[string]*Geometry),
		log:        slog.With(slog.String("module", "geometry")),
	}
}

func check(cfg *config.Config) error {
	for name, g := range cfg.Geometries {
		err := g.Validate()
		if err != nil {
			return fmt.Errorf("geometry %s is invalid: %w", name, err)
		}
	}
	return nil
}

// Load makes the library match cfg. Buffers and geometries that keep their
// name are refilled in place, so only what changed is uploaded again on the
// next draw.
func (l *Library) Load(cfg *config.Config) error {
	err := check(cfg)
	if err != nil {
		return err
	}

	for name, bufCfg := range cfg.Buffers {
		b, ok := l.buffers[name]
		if !ok {
			b, err = vertex.NewBuffer(l.dev)
			if err != nil {
				return fmt.Errorf("buffer %s: %w", name, err)
			}
			l.buffers[name] = b
		} else if slices.Equal(b.Elements(), bufCfg.Data) && b.ComponentWidth() == bufCfg.Width {
			continue
		} else {
			b.Reset()
		}
		err = b.Append(bufCfg.Width, bufCfg.Data...)
		if err != nil {
			return fmt.Errorf("buffer %s: %w", name, err)
		}
	}

	for name, geomCfg := range cfg.Geometries {
		g, ok := l.geometries[name]
		if !ok {
			a, err := vertex.NewArray(l.dev)
			if err != nil {
				return fmt.Errorf("geometry %s: %w", name, err)
			}
			g = &Geometry{Name: name, Array: a}
			l.geometries[name] = g
		}
		g.Texture = string(geomCfg.Texture)
		g.Position = geomCfg.Position.Vec3()
		g.vertexCount = geomCfg.VertexCount

		for slot := range g.Array.Capacity() {
			var want *vertex.Buffer
			if bufName, ok := geomCfg.Slots[slot]; ok {
				want = l.buffers[bufName]
			}
			if g.Array.Buffer(slot) == want {
				continue
			}
			err = g.Array.SetBuffer(slot, want)
			if err != nil {
				return fmt.Errorf("geometry %s: %w", name, err)
			}
		}
	}

	for name, g := range l.geometries {
		if _, ok := cfg.Geometries[name]; !ok {
			l.log.Info(fmt.Sprintf("Dropping geometry %s", name))
			g.Array.Release()
			delete(l.geometries, name)
		}
	}
	for name, b := range l.buffers {
		if _, ok := cfg.Buffers[name]; !ok {
			b.Release()
			delete(l.buffers, name)
		}
	}
	return nil
}

func (l *Library) Geometry(name string) *Geometry {
	return l.geometries[name]
}

func (l *Library) Names() []string {
	return slices.Sorted(maps.Keys(l.geometries))
}

func (l *Library) Buffer(name string) *vertex.Buffer {
	return l.buffers[name]
}

func (l *Library) bufferName(b *vertex.Buffer) string {
	for name, candidate := range l.buffers {
		if candidate == b {
			return name
		}
	}
	return ""
}

type SlotInfo struct {
	Slot   int    `json:"slot"`
	Buffer string `json:"buffer"`
	Width  int    `json:"width"`
}

type GeometryInfo struct {
	Name        string     `json:"name"`
	VertexCount int        `json:"vertex_count"`
	Stale       bool       `json:"stale"`
	Slots       []SlotInfo `json:"slots"`
}

// Snapshot describes every geometry, sorted by name
func (l *Library) Snapshot() []GeometryInfo {
	var out []GeometryInfo
	for _, name := range l.Names() {
		g := l.geometries[name]
		info := GeometryInfo{
			Name:        name,
			VertexCount: g.VertexCount(),
			Stale:       g.Array.Stale(),
		}
		for _, slot := range g.Array.Slots() {
			b := g.Array.Buffer(slot)
			info.Slots = append(info.Slots, SlotInfo{
				Slot:   slot,
				Buffer: l.bufferName(b),
				Width:  b.ComponentWidth(),
			})
		}
		out = append(out, info)
	}
	return out
}

func (l *Library) Close() {
	for name, g := range l.geometries {
		g.Array.Release()
		delete(l.geometries, name)
	}
	for name, b := range l.buffers {
		b.Release()
		delete(l.buffers, name)
	}
}
