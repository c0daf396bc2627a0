// Package vertex keeps CPU-side vertex data and uploads it to the device
// only when a draw actually needs it.
package vertex

import (
	"fmt"
	"slices"

	"github.com/fosdem/meshview/lib/device"
	"github.com/go-gl/mathgl/mgl32"
)

// Buffer is one attribute stream (positions, colours, texcoords...) stored
// as flat floats. It is shared by the arrays that reference it and freed
// on the device when the last reference is released.
type Buffer struct {
	dev      device.Device
	id       uint32
	elements []float32
	width    int
	stale    bool
	refs     int

	// bumped on every change to the contents or width
	generation uint64
}

// NewBuffer allocates the device buffer up front. The caller holds the
// first reference.
func NewBuffer(dev device.Device) (*Buffer, error) {
	id := dev.GenBuffer()
	if id == 0 {
		return nil, fmt.Errorf("could not generate vertex buffer: %w", ErrResourceAllocation)
	}
	return &Buffer{
		dev:   dev,
		id:    id,
		stale: true,
		refs:  1,
	}, nil
}

func (b *Buffer) Append2(v mgl32.Vec2) error {
	return b.Append(2, v[:]...)
}

func (b *Buffer) Append3(v mgl32.Vec3) error {
	return b.Append(3, v[:]...)
}

func (b *Buffer) Append4(v mgl32.Vec4) error {
	return b.Append(4, v[:]...)
}

// Append pushes a run of vectors of the given width. len(values) must be a
// multiple of width.
func (b *Buffer) Append(width int, values ...float32) error {
	if width < 2 || width > 4 {
		return fmt.Errorf("unsupported component width %d", width)
	}
	if len(values)%width != 0 {
		return fmt.Errorf("%d values do not split into vectors of %d", len(values), width)
	}
	if b.width != 0 && b.width != width {
		return fmt.Errorf("cannot append width %d to buffer of width %d: %w", width, b.width, ErrMixedWidth)
	}
	b.elements = append(b.elements, values...)
	b.width = width
	b.stale = true
	b.generation++
	return nil
}

// Reset drops all data so the buffer can be refilled, possibly with a
// different width. The device copy is kept until the next Resolve.
func (b *Buffer) Reset() {
	b.elements = b.elements[:0]
	b.width = 0
	b.stale = true
	b.generation++
}

func (b *Buffer) ComponentWidth() int {
	return b.width
}

func (b *Buffer) Len() int {
	return len(b.elements)
}

func (b *Buffer) VertexCount() int {
	if b.width == 0 {
		return 0
	}
	return len(b.elements) / b.width
}

func (b *Buffer) Elements() []float32 {
	return slices.Clone(b.elements)
}

func (b *Buffer) Stale() bool {
	return b.stale
}

// Generation changes whenever the data or width changes. Arrays compare it
// with what they last bound, since the stale flag is cleared by whichever
// array resolves the buffer first.
func (b *Buffer) Generation() uint64 {
	return b.generation
}

// ID is the device handle without syncing anything
func (b *Buffer) ID() uint32 {
	return b.id
}

// Resolve uploads the elements if they changed since the last upload and
// returns the device handle.
func (b *Buffer) Resolve() (uint32, error) {
	if b.refs <= 0 {
		panic("resolving a released vertex buffer")
	}
	if b.stale {
		if len(b.elements) == 0 {
			return 0, fmt.Errorf("buffer %d: %w", b.id, ErrEmptyBuffer)
		}
		b.dev.UploadFloats(b.id, b.elements)
		b.stale = false
	}
	return b.id, nil
}

func (b *Buffer) Retain() {
	if b.refs <= 0 {
		panic("retaining a released vertex buffer")
	}
	b.refs++
}

// Release drops one reference; the last one deletes the device buffer.
func (b *Buffer) Release() {
	if b.refs <= 0 {
		panic("vertex buffer released more times than retained")
	}
	b.refs--
	if b.refs == 0 {
		b.dev.DeleteBuffer(b.id)
		b.elements = nil
	}
}

func (b *Buffer) Refs() int {
	return b.refs
}
