// Package objimport loads Wavefront OBJ models straight into device
// vertex arrays.
package objimport

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh is a flat triangle list: every three entries form one triangle.
// TexCoords and Normals are either empty or as long as Positions.
type Mesh struct {
	Positions []mgl32.Vec3
	TexCoords []mgl32.Vec2
	Normals   []mgl32.Vec3
}

func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

type faceVertex struct {
	v, vt, vn int
}

type parser struct {
	positions []mgl32.Vec3
	texCoords []mgl32.Vec2
	normals   []mgl32.Vec3

	faces        []faceVertex
	anyTexCoords bool
	anyNormals   bool
}

// Parse reads OBJ geometry. Polygons are fanned into triangles; materials,
// groups and smoothing are ignored.
func Parse(r io.Reader) (*Mesh, error) {
	p := &parser{}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		var err error
		switch fields[0] {
		case "v":
			err = p.vertex(fields[1:])
		case "vt":
			err = p.texCoord(fields[1:])
		case "vn":
			err = p.normal(fields[1:])
		case "f":
			err = p.face(fields[1:])
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return p.mesh(), nil
}

func parseFloats(fields []string, min, max int) ([]float32, error) {
	if len(fields) < min || len(fields) > max {
		return nil, fmt.Errorf("expected %d to %d values, got %d", min, max, len(fields))
	}
	out := make([]float32, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", f)
		}
		out[i] = float32(v)
	}
	return out, nil
}

func (p *parser) vertex(fields []string) error {
	v, err := parseFloats(fields, 3, 4)
	if err != nil {
		return err
	}
	p.positions = append(p.positions, mgl32.Vec3{v[0], v[1], v[2]})
	return nil
}

func (p *parser) texCoord(fields []string) error {
	v, err := parseFloats(fields, 1, 3)
	if err != nil {
		return err
	}
	uv := mgl32.Vec2{v[0], 0}
	if len(v) > 1 {
		uv[1] = v[1]
	}
	p.texCoords = append(p.texCoords, uv)
	return nil
}

func (p *parser) normal(fields []string) error {
	v, err := parseFloats(fields, 3, 3)
	if err != nil {
		return err
	}
	p.normals = append(p.normals, mgl32.Vec3{v[0], v[1], v[2]})
	return nil
}

// resolveIndex turns a 1-based or negative OBJ reference into a 0-based index
func resolveIndex(s string, count int, kind string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("bad %s index %q", kind, s)
	}
	switch {
	case i > 0 && i <= count:
		return i - 1, nil
	case i < 0 && -i <= count:
		return count + i, nil
	}
	return 0, fmt.Errorf("%s index %d out of range (have %d)", kind, i, count)
}

func (p *parser) faceVertex(s string) (faceVertex, error) {
	fv := faceVertex{vt: -1, vn: -1}
	parts := strings.Split(s, "/")
	if len(parts) > 3 {
		return fv, fmt.Errorf("bad face vertex %q", s)
	}

	var err error
	fv.v, err = resolveIndex(parts[0], len(p.positions), "vertex")
	if err != nil {
		return fv, err
	}
	if len(parts) > 1 && parts[1] != "" {
		fv.vt, err = resolveIndex(parts[1], len(p.texCoords), "texture coordinate")
		if err != nil {
			return fv, err
		}
		p.anyTexCoords = true
	}
	if len(parts) > 2 && parts[2] != "" {
		fv.vn, err = resolveIndex(parts[2], len(p.normals), "normal")
		if err != nil {
			return fv, err
		}
		p.anyNormals = true
	}
	return fv, nil
}

func (p *parser) face(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("face needs at least 3 vertices, got %d", len(fields))
	}
	polygon := make([]faceVertex, len(fields))
	for i, f := range fields {
		fv, err := p.faceVertex(f)
		if err != nil {
			return err
		}
		polygon[i] = fv
	}
	for i := 1; i+1 < len(polygon); i++ {
		p.faces = append(p.faces, polygon[0], polygon[i], polygon[i+1])
	}
	return nil
}

func (p *parser) mesh() *Mesh {
	m := &Mesh{
		Positions: make([]mgl32.Vec3, len(p.faces)),
	}
	if p.anyTexCoords {
		m.TexCoords = make([]mgl32.Vec2, len(p.faces))
	}
	if p.anyNormals {
		m.Normals = make([]mgl32.Vec3, len(p.faces))
	}
	for i, fv := range p.faces {
		m.Positions[i] = p.positions[fv.v]
		if p.anyTexCoords && fv.vt >= 0 {
			// OBJ puts v=0 at the bottom of the image, GL textures start at the top
			m.TexCoords[i] = mgl32.Vec2{p.texCoords[fv.vt][0], 1 - p.texCoords[fv.vt][1]}
		}
		if p.anyNormals && fv.vn >= 0 {
			m.Normals[i] = p.normals[fv.vn]
		}
	}
	return m
}
