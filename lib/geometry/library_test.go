package geometry

import (
	"testing"

	"github.com/fosdem/meshview/lib/config"
	"github.com/fosdem/meshview/lib/device/devicetest"
	"github.com/jhenstridge/go-inotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoTriangles() *config.Config {
	return &config.Config{
		Buffers: map[string]*config.BufferCfg{
			"left":    {Width: 3, Data: []float32{-1, 0, 0, -0.5, 1, 0, 0, 0, 0}},
			"right":   {Width: 3, Data: []float32{0, 0, 0, 0.5, 1, 0, 1, 0, 0}},
			"palette": {Width: 4, Data: []float32{1, 0, 0, 1, 0, 1, 0, 1, 0, 0, 1, 1}},
		},
		Geometries: map[string]*config.GeometryCfg{
			"left":  {Slots: map[int]string{SlotPosition: "left", SlotColour: "palette"}},
			"right": {Slots: map[int]string{SlotPosition: "right", SlotColour: "palette"}, VertexCount: 2},
		},
	}
}

func resolveAll(t *testing.T, l *Library) {
	t.Helper()
	for _, name := range l.Names() {
		_, err := l.Geometry(name).Array.Resolve()
		require.NoError(t, err)
	}
}

func TestLibrarySharesBuffers(t *testing.T) {
	dev := devicetest.New()
	l := New(dev)
	require.NoError(t, l.Load(twoTriangles()))

	assert.Equal(t, []string{"left", "right"}, l.Names())
	palette := l.Buffer("palette")
	assert.Same(t, palette, l.Geometry("left").Array.Buffer(SlotColour))
	assert.Same(t, palette, l.Geometry("right").Array.Buffer(SlotColour))
	assert.Equal(t, 3, palette.Refs())

	assert.Equal(t, 3, l.Geometry("left").VertexCount())
	assert.Equal(t, 2, l.Geometry("right").VertexCount())
	assert.True(t, l.Geometry("left").HasSlot(SlotColour))
	assert.False(t, l.Geometry("left").HasSlot(SlotNormal))

	resolveAll(t, l)
	assert.Equal(t, 3, dev.Count("upload"))
}

func TestLibraryReloadUploadsOnlyChanges(t *testing.T) {
	dev := devicetest.New()
	l := New(dev)
	require.NoError(t, l.Load(twoTriangles()))
	resolveAll(t, l)

	cfg := twoTriangles()
	cfg.Buffers["palette"].Data = []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}
	dev.Reset()
	require.NoError(t, l.Load(cfg))
	assert.Empty(t, dev.Calls)

	resolveAll(t, l)
	uploads := dev.Filter("upload")
	require.Len(t, uploads, 1)
	assert.Equal(t, l.Buffer("palette").ID(), uploads[0].ID)
	assert.Equal(t, 4, dev.Count("bind-attribute"))

	dev.Reset()
	require.NoError(t, l.Load(cfg))
	resolveAll(t, l)
	assert.Empty(t, dev.Calls)
}

func TestLibraryReloadWidthChangeRebindsAllUsers(t *testing.T) {
	dev := devicetest.New()
	l := New(dev)
	require.NoError(t, l.Load(twoTriangles()))
	resolveAll(t, l)

	cfg := twoTriangles()
	cfg.Buffers["palette"] = &config.BufferCfg{Width: 3, Data: []float32{1, 0, 0, 0, 1, 0, 0, 0, 1}}
	require.NoError(t, l.Load(cfg))

	dev.Reset()
	resolveAll(t, l)
	palette := l.Buffer("palette").ID()
	var paletteBinds []devicetest.Call
	for _, c := range dev.Filter("bind-attribute") {
		if c.ID == palette {
			paletteBinds = append(paletteBinds, c)
		}
	}
	assert.Equal(t, []devicetest.Call{
		{Op: "bind-attribute", ID: palette, Index: SlotColour, Width: 3},
		{Op: "bind-attribute", ID: palette, Index: SlotColour, Width: 3},
	}, paletteBinds)
	assert.Equal(t, 1, dev.Count("upload"))
}

func TestLibraryReloadRewiresAndDrops(t *testing.T) {
	dev := devicetest.New()
	l := New(dev)
	require.NoError(t, l.Load(twoTriangles()))
	resolveAll(t, l)
	rightBuf := l.Buffer("right")
	rightArray := l.Geometry("right").Array

	cfg := twoTriangles()
	delete(cfg.Geometries, "right")
	delete(cfg.Buffers, "right")
	cfg.Geometries["left"].Slots = map[int]string{SlotPosition: "left"}
	require.NoError(t, l.Load(cfg))

	assert.Equal(t, []string{"left"}, l.Names())
	assert.Nil(t, l.Buffer("right"))
	assert.Equal(t, 1, dev.Deleted(rightBuf.ID()))
	assert.Equal(t, 1, dev.Deleted(rightArray.ID()))
	assert.Equal(t, 1, l.Buffer("palette").Refs())

	dev.Reset()
	resolveAll(t, l)
	assert.Equal(t, []devicetest.Call{{Op: "disable", Index: SlotColour}}, dev.Filter("disable"))
}

func TestLibraryRequiresPositions(t *testing.T) {
	l := New(devicetest.New())
	cfg := twoTriangles()
	cfg.Geometries["left"].Slots = map[int]string{SlotColour: "palette"}
	err := l.Load(cfg)
	assert.ErrorContains(t, err, "no position buffer")
	assert.Empty(t, l.Names())
}

func TestLibrarySnapshot(t *testing.T) {
	l := New(devicetest.New())
	require.NoError(t, l.Load(twoTriangles()))

	snap := l.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, GeometryInfo{
		Name:        "left",
		VertexCount: 3,
		Stale:       true,
		Slots: []SlotInfo{
			{Slot: SlotPosition, Buffer: "left", Width: 3},
			{Slot: SlotColour, Buffer: "palette", Width: 4},
		},
	}, snap[0])

	resolveAll(t, l)
	assert.False(t, l.Snapshot()[1].Stale)
}

func TestLibraryClose(t *testing.T) {
	dev := devicetest.New()
	l := New(dev)
	require.NoError(t, l.Load(twoTriangles()))
	palette := l.Buffer("palette")

	l.Close()
	assert.Equal(t, 1, dev.Deleted(palette.ID()))
	assert.Equal(t, 3, dev.Count("delete-buffer"))
	assert.Equal(t, 2, dev.Count("delete-array"))
	assert.Empty(t, l.Names())
}

func TestWatcherFiltersEvents(t *testing.T) {
	w := &Watcher{path: "/etc/meshview/meshview.yaml"}

	assert.True(t, w.relevant(inotify.Event{Mask: inotify.IN_CLOSE_WRITE, Name: "/etc/meshview/meshview.yaml"}))
	assert.True(t, w.relevant(inotify.Event{Mask: inotify.IN_MOVED_TO, Name: "/etc/meshview/meshview.yaml"}))
	assert.False(t, w.relevant(inotify.Event{Mask: inotify.IN_MODIFY, Name: "/etc/meshview/meshview.yaml"}))
	assert.False(t, w.relevant(inotify.Event{Mask: inotify.IN_CLOSE_WRITE, Name: "/etc/meshview/other.yaml"}))
}

func TestWatcherKeepsNewestReload(t *testing.T) {
	w := &Watcher{Reloads: make(chan *config.Config, 1)}
	first := &config.Config{Watch: true}
	second := &config.Config{}

	w.offer(first)
	w.offer(second)
	assert.Same(t, second, <-w.Reloads)
	assert.Empty(t, w.Reloads)
}
