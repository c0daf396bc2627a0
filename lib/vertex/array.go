package vertex

import (
	"fmt"

	"github.com/fosdem/meshview/lib/device"
)

const DefaultCapacity = 20

// Importer builds a vertex array from a model file by itself and hands back
// the device handle and the number of vertices to draw.
type Importer interface {
	Import(path string) (id uint32, vertexCount int, err error)
}

// Array ties buffers to attribute slots. The slot at index i feeds
// attribute location i. Device state is rebuilt on the first Resolve after
// anything changed.
type Array struct {
	dev         device.Device
	id          uint32
	slots       []*Buffer
	bound       []uint64
	enabled     []bool
	stale       bool
	vertexCount int
	imported    bool
	released    bool
}

func NewArray(dev device.Device) (*Array, error) {
	return NewArrayWithCapacity(dev, DefaultCapacity)
}

func NewArrayWithCapacity(dev device.Device, capacity int) (*Array, error) {
	if capacity < 0 {
		return nil, fmt.Errorf("negative capacity %d", capacity)
	}
	id := dev.GenVertexArray()
	if id == 0 {
		return nil, fmt.Errorf("could not generate vertex array: %w", ErrResourceAllocation)
	}
	return &Array{
		dev:     dev,
		id:      id,
		slots:   make([]*Buffer, capacity),
		bound:   make([]uint64, capacity),
		enabled: make([]bool, capacity),
		stale:   true,
	}, nil
}

// ImportArray wraps a vertex array the importer already built. It has no
// slots of its own and is never stale; the importer keeps ownership of the
// device resources behind it.
func ImportArray(importer Importer, path string) (*Array, error) {
	id, count, err := importer.Import(path)
	if err != nil {
		return nil, fmt.Errorf("could not import %s: %w (%w)", path, ErrResourceAllocation, err)
	}
	if id == 0 {
		return nil, fmt.Errorf("importer returned no vertex array for %s: %w", path, ErrResourceAllocation)
	}
	return &Array{
		id:          id,
		vertexCount: count,
		imported:    true,
	}, nil
}

func (a *Array) Capacity() int {
	return len(a.slots)
}

// SetBuffer puts buf into slot, replacing whatever was there. A nil buf
// clears the slot, which disables the attribute on the next Resolve.
func (a *Array) SetBuffer(slot int, buf *Buffer) error {
	if slot < 0 || slot >= len(a.slots) {
		return fmt.Errorf("slot %d not in [0, %d): %w", slot, len(a.slots), ErrOutOfRange)
	}
	if buf != nil {
		buf.Retain()
	}
	if prev := a.slots[slot]; prev != nil {
		prev.Release()
	}
	a.slots[slot] = buf
	a.stale = true
	return nil
}

func (a *Array) Buffer(slot int) *Buffer {
	if slot < 0 || slot >= len(a.slots) {
		return nil
	}
	return a.slots[slot]
}

// Slots lists the occupied slot indices in ascending order
func (a *Array) Slots() []int {
	var occupied []int
	for i, b := range a.slots {
		if b != nil {
			occupied = append(occupied, i)
		}
	}
	return occupied
}

// Stale reports whether the next Resolve will touch the device
func (a *Array) Stale() bool {
	if a.stale {
		return true
	}
	for i, b := range a.slots {
		if b != nil && (b.Stale() || b.Generation() != a.bound[i]) {
			return true
		}
	}
	return false
}

// Resolve syncs every attached buffer and rebinds the attribute slots if
// anything changed, then returns the handle to bind for drawing.
func (a *Array) Resolve() (uint32, error) {
	if a.released {
		panic("resolving a released vertex array")
	}
	if !a.Stale() {
		return a.id, nil
	}

	a.dev.BindVertexArray(a.id)
	defer a.dev.BindVertexArray(0)

	for i, b := range a.slots {
		index := uint32(i)
		if b == nil {
			if a.enabled[i] {
				a.dev.DisableAttribute(index)
				a.enabled[i] = false
			}
			continue
		}

		bufID, err := b.Resolve()
		if err != nil {
			return 0, fmt.Errorf("slot %d: %w", i, err)
		}
		a.dev.BindAttribute(index, bufID, b.ComponentWidth())
		a.dev.EnableAttribute(index)
		a.enabled[i] = true
		a.bound[i] = b.Generation()
	}

	a.stale = false
	return a.id, nil
}

// ID is the device handle without syncing anything
func (a *Array) ID() uint32 {
	return a.id
}

func (a *Array) VertexCount() int {
	return a.vertexCount
}

// SetVertexCount records how many vertices a draw should use. Arrays built
// slot by slot start at zero.
func (a *Array) SetVertexCount(n int) {
	a.vertexCount = n
}

func (a *Array) Imported() bool {
	return a.imported
}

// Release drops the references to every attached buffer and deletes the
// vertex array. Imported arrays belong to their importer and are left alone.
func (a *Array) Release() {
	if a.released {
		return
	}
	a.released = true
	for i, b := range a.slots {
		if b != nil {
			b.Release()
			a.slots[i] = nil
		}
	}
	if !a.imported {
		a.dev.DeleteVertexArray(a.id)
	}
}
