package vertex

import (
	"errors"
	"testing"

	"github.com/fosdem/meshview/lib/device/devicetest"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFilledBuffer(t *testing.T, dev *devicetest.Recorder, width int, values ...float32) *Buffer {
	t.Helper()
	b, err := NewBuffer(dev)
	require.NoError(t, err)
	require.NoError(t, b.Append(width, values...))
	return b
}

func boundIndices(dev *devicetest.Recorder) []uint32 {
	var out []uint32
	for _, c := range dev.Filter("bind-attribute") {
		out = append(out, c.Index)
	}
	return out
}

func TestArrayTriangle(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, a.Capacity())

	positions, err := NewBuffer(dev)
	require.NoError(t, err)
	require.NoError(t, positions.Append3(mgl32.Vec3{0, 0.5, 0}))
	require.NoError(t, positions.Append3(mgl32.Vec3{-0.5, -0.5, 0}))
	require.NoError(t, positions.Append3(mgl32.Vec3{0.5, -0.5, 0}))
	require.NoError(t, a.SetBuffer(0, positions))
	positions.Release()

	dev.Reset()
	id, err := a.Resolve()
	require.NoError(t, err)
	assert.Equal(t, a.ID(), id)

	assert.Equal(t, []devicetest.Call{
		{Op: "upload", ID: positions.ID(), Floats: 9},
		{Op: "bind-attribute", ID: positions.ID(), Index: 0, Width: 3},
	}, dev.Filter("upload", "bind-attribute"))
	assert.True(t, dev.Enabled(0))

	dev.Reset()
	again, err := a.Resolve()
	require.NoError(t, err)
	assert.Equal(t, id, again)
	assert.Empty(t, dev.Calls)
}

func TestArrayAllocationFailure(t *testing.T) {
	dev := devicetest.New()
	dev.FailArrays = true

	a, err := NewArray(dev)
	assert.Nil(t, a)
	assert.ErrorIs(t, err, ErrResourceAllocation)
}

func TestArraySlotRange(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	b := newFilledBuffer(t, dev, 2, 1, 2)

	assert.ErrorIs(t, a.SetBuffer(20, b), ErrOutOfRange)
	assert.ErrorIs(t, a.SetBuffer(-1, b), ErrOutOfRange)
	assert.NoError(t, a.SetBuffer(19, b))
	assert.Same(t, b, a.Buffer(19))
	assert.Nil(t, a.Buffer(20))
	assert.Equal(t, 2, b.Refs())
}

func TestArraySlotIsolation(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	b := newFilledBuffer(t, dev, 3, 1, 2, 3)
	c := newFilledBuffer(t, dev, 4, 1, 2, 3, 4)

	require.NoError(t, a.SetBuffer(3, b))
	require.NoError(t, a.SetBuffer(5, c))
	assert.Same(t, b, a.Buffer(3))
	assert.Same(t, c, a.Buffer(5))
	assert.Equal(t, []int{3, 5}, a.Slots())

	_, err = a.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []devicetest.Call{
		{Op: "bind-attribute", ID: b.ID(), Index: 3, Width: 3},
		{Op: "bind-attribute", ID: c.ID(), Index: 5, Width: 4},
	}, dev.Filter("bind-attribute"))
}

func TestArrayResolvesInSlotOrder(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)

	require.NoError(t, a.SetBuffer(5, newFilledBuffer(t, dev, 2, 1, 2)))
	require.NoError(t, a.SetBuffer(1, newFilledBuffer(t, dev, 2, 3, 4)))
	require.NoError(t, a.SetBuffer(12, newFilledBuffer(t, dev, 2, 5, 6)))

	dev.Reset()
	_, err = a.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []uint32{1, 5, 12}, boundIndices(dev))

	uploads := dev.Filter("upload")
	require.Len(t, uploads, 3)
	assert.Equal(t, a.Buffer(1).ID(), uploads[0].ID)
	assert.Equal(t, a.Buffer(5).ID(), uploads[1].ID)
	assert.Equal(t, a.Buffer(12).ID(), uploads[2].ID)
}

func TestArrayAppendMakesArrayStale(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	positions := newFilledBuffer(t, dev, 3, 0, 0, 0)
	colours := newFilledBuffer(t, dev, 4, 1, 0, 0, 1)
	require.NoError(t, a.SetBuffer(0, positions))
	require.NoError(t, a.SetBuffer(2, colours))

	_, err = a.Resolve()
	require.NoError(t, err)
	assert.False(t, a.Stale())

	require.NoError(t, colours.Append4(mgl32.Vec4{0, 1, 0, 1}))
	assert.True(t, a.Stale())

	dev.Reset()
	_, err = a.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0, 2}, boundIndices(dev))
	assert.Equal(t, []devicetest.Call{
		{Op: "upload", ID: colours.ID(), Floats: 8},
	}, dev.Filter("upload"))
	assert.False(t, a.Stale())
}

func TestSharedBufferRebindsEveryArray(t *testing.T) {
	dev := devicetest.New()
	first, err := NewArray(dev)
	require.NoError(t, err)
	second, err := NewArray(dev)
	require.NoError(t, err)
	palette := newFilledBuffer(t, dev, 3, 1, 0, 0, 0, 1, 0)
	require.NoError(t, first.SetBuffer(1, palette))
	require.NoError(t, second.SetBuffer(1, palette))
	palette.Release()

	_, err = first.Resolve()
	require.NoError(t, err)
	_, err = second.Resolve()
	require.NoError(t, err)

	palette.Reset()
	require.NoError(t, palette.Append(4, 1, 0, 0, 1, 0, 1, 0, 1))
	assert.True(t, first.Stale())
	assert.True(t, second.Stale())

	dev.Reset()
	_, err = first.Resolve()
	require.NoError(t, err)
	assert.False(t, palette.Stale())
	assert.True(t, second.Stale())

	_, err = second.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []devicetest.Call{
		{Op: "upload", ID: palette.ID(), Floats: 8},
		{Op: "bind-attribute", ID: palette.ID(), Index: 1, Width: 4},
		{Op: "bind-attribute", ID: palette.ID(), Index: 1, Width: 4},
	}, dev.Filter("upload", "bind-attribute"))

	dev.Reset()
	_, err = first.Resolve()
	require.NoError(t, err)
	_, err = second.Resolve()
	require.NoError(t, err)
	assert.Empty(t, dev.Calls)
}

func TestArraySetBufferMakesArrayStale(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	b := newFilledBuffer(t, dev, 2, 1, 1)
	require.NoError(t, a.SetBuffer(0, b))
	_, err = a.Resolve()
	require.NoError(t, err)

	require.NoError(t, a.SetBuffer(0, b))
	assert.True(t, a.Stale())
	assert.Equal(t, 2, b.Refs())

	dev.Reset()
	_, err = a.Resolve()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, boundIndices(dev))
	assert.Equal(t, 0, dev.Count("upload"))
}

func TestArrayClearedSlotIsDisabled(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	require.NoError(t, a.SetBuffer(0, newFilledBuffer(t, dev, 3, 1, 2, 3)))
	require.NoError(t, a.SetBuffer(1, newFilledBuffer(t, dev, 2, 1, 2)))
	_, err = a.Resolve()
	require.NoError(t, err)
	assert.True(t, dev.Enabled(1))

	require.NoError(t, a.SetBuffer(1, nil))
	dev.Reset()
	_, err = a.Resolve()
	require.NoError(t, err)

	assert.False(t, dev.Enabled(1))
	assert.Equal(t, []devicetest.Call{{Op: "disable", Index: 1}}, dev.Filter("disable"))
	assert.Equal(t, []uint32{0}, boundIndices(dev))

	// only once
	require.NoError(t, a.SetBuffer(0, a.Buffer(0)))
	dev.Reset()
	_, err = a.Resolve()
	require.NoError(t, err)
	assert.Zero(t, dev.Count("disable"))
}

func TestArrayEmptyBufferAbortsResolve(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	empty, err := NewBuffer(dev)
	require.NoError(t, err)
	require.NoError(t, a.SetBuffer(4, empty))

	_, err = a.Resolve()
	assert.ErrorIs(t, err, ErrEmptyBuffer)
	assert.True(t, a.Stale())

	require.NoError(t, empty.Append2(mgl32.Vec2{1, 2}))
	_, err = a.Resolve()
	assert.NoError(t, err)
	assert.False(t, a.Stale())
}

func TestArrayUnboundAfterResolve(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	require.NoError(t, a.SetBuffer(0, newFilledBuffer(t, dev, 2, 1, 2)))

	dev.Reset()
	_, err = a.Resolve()
	require.NoError(t, err)
	binds := dev.Filter("bind-array")
	require.Len(t, binds, 2)
	assert.Equal(t, a.ID(), binds[0].ID)
	assert.Equal(t, uint32(0), binds[1].ID)
}

func TestSharedBufferReleasedOnce(t *testing.T) {
	dev := devicetest.New()
	palette := newFilledBuffer(t, dev, 4, 1, 0, 0, 1)
	first, err := NewArray(dev)
	require.NoError(t, err)
	second, err := NewArray(dev)
	require.NoError(t, err)

	require.NoError(t, first.SetBuffer(1, palette))
	require.NoError(t, second.SetBuffer(1, palette))
	palette.Release()
	assert.Equal(t, 2, palette.Refs())

	first.Release()
	assert.Equal(t, 0, dev.Deleted(palette.ID()))
	assert.Equal(t, 1, dev.Deleted(first.ID()))

	second.Release()
	second.Release()
	assert.Equal(t, 1, dev.Deleted(palette.ID()))
	assert.Equal(t, 1, dev.Deleted(second.ID()))
}

func TestReplacingSlotReleasesPrevious(t *testing.T) {
	dev := devicetest.New()
	a, err := NewArray(dev)
	require.NoError(t, err)
	old := newFilledBuffer(t, dev, 2, 1, 2)
	require.NoError(t, a.SetBuffer(0, old))
	old.Release()

	require.NoError(t, a.SetBuffer(0, newFilledBuffer(t, dev, 2, 3, 4)))
	assert.Equal(t, 1, dev.Deleted(old.ID()))
}

type fakeImporter struct {
	id    uint32
	count int
	err   error
}

func (f *fakeImporter) Import(path string) (uint32, int, error) {
	return f.id, f.count, f.err
}

func TestImportArray(t *testing.T) {
	a, err := ImportArray(&fakeImporter{id: 42, count: 3600}, "car.obj")
	require.NoError(t, err)
	assert.True(t, a.Imported())
	assert.Equal(t, 3600, a.VertexCount())
	assert.False(t, a.Stale())

	id, err := a.Resolve()
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	assert.ErrorIs(t, a.SetBuffer(0, nil), ErrOutOfRange)
	a.Release()
}

func TestImportArrayFailures(t *testing.T) {
	cause := errors.New("no such file")
	_, err := ImportArray(&fakeImporter{err: cause}, "missing.obj")
	assert.ErrorIs(t, err, ErrResourceAllocation)
	assert.ErrorIs(t, err, cause)

	_, err = ImportArray(&fakeImporter{}, "empty.obj")
	assert.ErrorIs(t, err, ErrResourceAllocation)
}
