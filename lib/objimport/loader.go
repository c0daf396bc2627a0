package objimport

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fosdem/meshview/lib/device"
	"github.com/fosdem/meshview/lib/geometry"
	"github.com/fosdem/meshview/lib/vertex"
)

// Loader builds vertex arrays from OBJ files and owns them until Close
type Loader struct {
	dev    device.Device
	arrays []*vertex.Array
	log    *slog.Logger
}

func New(dev device.Device) *Loader {
	return &Loader{
		dev: dev,
		log: slog.With(slog.String("module", "objimport")),
	}
}

// Import satisfies vertex.Importer
func (l *Loader) Import(path string) (uint32, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	mesh, err := Parse(f)
	if err != nil {
		return 0, 0, fmt.Errorf("could not parse %s: %w", path, err)
	}

	a, err := l.Build(mesh)
	if err != nil {
		return 0, 0, fmt.Errorf("could not build %s: %w", path, err)
	}

	id, err := a.Resolve()
	if err != nil {
		return 0, 0, err
	}
	l.log.Info(fmt.Sprintf("Imported %s: %d vertices", path, mesh.VertexCount()))
	return id, a.VertexCount(), nil
}

// Build attaches the mesh streams to a new vertex array at the standard
// slots. The array stays owned by the loader.
func (l *Loader) Build(mesh *Mesh) (*vertex.Array, error) {
	if mesh.VertexCount() == 0 {
		return nil, fmt.Errorf("mesh has no faces")
	}

	a, err := vertex.NewArray(l.dev)
	if err != nil {
		return nil, err
	}

	attach := func(slot int, fill func(b *vertex.Buffer) error) error {
		b, err := vertex.NewBuffer(l.dev)
		if err != nil {
			return err
		}
		defer b.Release()
		if err := fill(b); err != nil {
			return err
		}
		return a.SetBuffer(slot, b)
	}

	err = attach(geometry.SlotPosition, func(b *vertex.Buffer) error {
		for _, p := range mesh.Positions {
			if err := b.Append3(p); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil && len(mesh.TexCoords) > 0 {
		err = attach(geometry.SlotTexCoord, func(b *vertex.Buffer) error {
			for _, uv := range mesh.TexCoords {
				if err := b.Append2(uv); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err == nil && len(mesh.Normals) > 0 {
		err = attach(geometry.SlotNormal, func(b *vertex.Buffer) error {
			for _, n := range mesh.Normals {
				if err := b.Append3(n); err != nil {
					return err
				}
			}
			return nil
		})
	}
	if err != nil {
		a.Release()
		return nil, err
	}

	a.SetVertexCount(mesh.VertexCount())
	l.arrays = append(l.arrays, a)
	return a, nil
}

// Close frees every array and buffer the loader built
func (l *Loader) Close() {
	for _, a := range l.arrays {
		a.Release()
	}
	l.arrays = nil
}

// Slots lists the attribute slots filled for the array with the given
// device id, as returned by Import.
func (l *Loader) Slots(id uint32) []int {
	for _, a := range l.arrays {
		if a.ID() == id {
			return a.Slots()
		}
	}
	return nil
}
