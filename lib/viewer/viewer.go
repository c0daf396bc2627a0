// Package viewer owns the window and the render loop. Everything in here
// runs on the locked main thread.
package viewer

import (
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"slices"

	"github.com/fosdem/meshview/lib/api"
	"github.com/fosdem/meshview/lib/config"
	"github.com/fosdem/meshview/lib/device"
	"github.com/fosdem/meshview/lib/geometry"
	"github.com/fosdem/meshview/lib/kbdctl"
	mlog "github.com/fosdem/meshview/lib/log"
	"github.com/fosdem/meshview/lib/metrics"
	"github.com/fosdem/meshview/lib/objimport"
	"github.com/fosdem/meshview/lib/rendering"
	"github.com/fosdem/meshview/lib/rendering/shaders"
	"github.com/fosdem/meshview/lib/stats"
	"github.com/fosdem/meshview/lib/utils"
	"github.com/fosdem/meshview/lib/vertex"
	"github.com/fosdem/meshview/lib/window"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"golang.org/x/sys/unix"
)

var eye = mgl32.Vec3{0, 0, 3}

type Viewer struct {
	yaw, pitch float32
	spin       float32
	shutdown   bool

	white    uint32
	textures map[string]uint32
	failed   map[*vertex.Array]bool
	log      *slog.Logger
}

func newViewer() *Viewer {
	return &Viewer{
		textures: make(map[string]uint32),
		failed:   make(map[*vertex.Array]bool),
		log:      mlog.Module("viewer"),
	}
}

// Nudge turns everything on screen, in radians
func (v *Viewer) Nudge(dx, dy float32) {
	v.yaw += dx
	v.pitch += dy
}

func (v *Viewer) RequestShutdown() {
	v.shutdown = true
}

func modelMatrix(pos mgl32.Vec3, yaw, pitch float32) mgl32.Mat4 {
	return mgl32.Translate3D(pos.X(), pos.Y(), pos.Z()).
		Mul4(mgl32.HomogRotate3DX(pitch)).
		Mul4(mgl32.HomogRotate3DY(yaw))
}

// advance moves the model spin forward by dt seconds at degPerSec
func (v *Viewer) advance(degPerSec float32, dt float32) float32 {
	v.spin += mgl32.DegToRad(degPerSec) * dt
	return v.yaw + v.spin
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func (v *Viewer) texture(path string) uint32 {
	if path == "" {
		return v.white
	}
	if tex, ok := v.textures[path]; ok {
		return tex
	}
	tex, err := rendering.LoadTexture(path)
	if err != nil {
		v.log.Error(fmt.Sprintf("Using a white texture instead: %s", err))
		tex = v.white
	}
	v.textures[path] = tex
	return tex
}

type drawable struct {
	array     *vertex.Array
	count     int
	model     mgl32.Mat4
	texture   uint32
	hasColour bool
	hasNormal bool
}

func (v *Viewer) draw(p *shaders.Program, d *drawable) {
	if d.count == 0 {
		return
	}
	id, err := d.array.Resolve()
	if err != nil {
		if !v.failed[d.array] {
			v.log.Error(fmt.Sprintf("Not drawing: %s", err))
			v.failed[d.array] = true
		}
		return
	}
	delete(v.failed, d.array)

	gl.UniformMatrix4fv(p.ModelUniform, 1, false, &d.model[0])
	gl.Uniform1i(p.HasColourUniform, boolInt(d.hasColour))
	gl.Uniform1i(p.HasNormalUniform, boolInt(d.hasNormal))
	gl.BindTexture(gl.TEXTURE_2D, d.texture)

	gl.BindVertexArray(id)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(d.count))
	gl.BindVertexArray(0)
}

func (v *Viewer) reload(lib *geometry.Library, cfg *config.Config, s *stats.Stats) {
	err := lib.Load(cfg)
	if err != nil {
		v.log.Error(fmt.Sprintf("Could not reload geometries: %s", err))
		metrics.GeometryReloads.WithLabelValues("failed").Inc()
		return
	}
	v.log.Info(fmt.Sprintf("Reloaded %d geometries", len(lib.Names())))
	metrics.GeometryReloads.WithLabelValues("ok").Inc()
	s.Reloaded()
}

func (v *Viewer) deleteTextures() {
	seen := map[uint32]bool{v.white: true}
	ids := []uint32{v.white}
	for _, tex := range v.textures {
		if !seen[tex] {
			seen[tex] = true
			ids = append(ids, tex)
		}
	}
	gl.DeleteTextures(int32(len(ids)), &ids[0])
}

func MakeWindowAndRender(cfg *config.Config, cfgPath string) {
	win, err := window.New(&cfg.Window)
	if err != nil {
		log.Fatalf("could not open window: %s", err)
	}
	defer win.Destroy()

	err = rendering.Init()
	if err != nil {
		log.Fatalf("could not initialise renderer: %s", err)
	}
	win.LogContext()

	dev := device.NewInstrumented("gl", rendering.GLDevice{})

	program, err := shaders.BuildGLProgram(&shaders.ShaderData{
		PositionSlot: geometry.SlotPosition,
		TexCoordSlot: geometry.SlotTexCoord,
		NormalSlot:   geometry.SlotNormal,
		ColourSlot:   geometry.SlotColour,
		Ambient:      cfg.Ambient,
		Tint:         color.RGBA{R: 255, G: 255, B: 255, A: 255},
	}, string(cfg.ShaderDebugDir))
	if err != nil {
		log.Fatalf("could not init GL program: %s", err)
	}
	defer program.Delete()

	v := newViewer()
	v.white, err = rendering.WhiteTexture()
	if err != nil {
		log.Fatalf("could not create fallback texture: %s", err)
	}
	defer v.deleteTextures()

	lib := geometry.New(dev)
	err = lib.Load(cfg)
	if err != nil {
		log.Fatalf("could not build geometries: %s", err)
	}
	defer lib.Close()

	loader := objimport.New(dev)
	defer loader.Close()

	var model *drawable
	if cfg.Model != nil {
		a, err := vertex.ImportArray(loader, string(cfg.Model.Path))
		if err != nil {
			log.Fatalf("could not import model: %s", err)
		}
		defer a.Release()
		slots := loader.Slots(a.ID())
		model = &drawable{
			array:     a,
			count:     a.VertexCount(),
			texture:   v.texture(string(cfg.Model.Texture)),
			hasColour: slices.Contains(slots, geometry.SlotColour),
			hasNormal: slices.Contains(slots, geometry.SlotNormal),
		}
	}

	var reloads <-chan *config.Config
	if cfg.Watch {
		watcher, err := geometry.Watch(cfgPath)
		if err != nil {
			v.log.Warn(fmt.Sprintf("Not watching the config: %s", err))
		} else {
			defer watcher.Close()
			reloads = watcher.Reloads
		}
	}

	s := stats.New()
	theApi := api.ServeInBackground(cfg.Api, s)

	kbdctl.SetupShortcutKeys(v, win.Window)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, unix.SIGINT, unix.SIGTERM)
	defer signal.Stop(signals)

	r, g, b, a := utils.ColourFloats(utils.ColourParse(cfg.ClearColour))
	gl.Enable(gl.DEPTH_TEST)
	gl.UseProgram(program.ID)
	gl.Uniform1i(program.TextureUniform, 0)
	gl.ActiveTexture(gl.TEXTURE0)

	view := mgl32.LookAtV(eye, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	gl.UniformMatrix4fv(program.ViewUniform, 1, false, &view[0])

	var deltaTimer utils.DeltaTimer
	for !v.shutdown {
		dt := float32(deltaTimer.Next().Seconds())

		select {
		case newCfg, ok := <-reloads:
			if ok {
				v.reload(lib, newCfg, s)
			} else {
				reloads = nil
			}
		case sig := <-signals:
			v.log.Info(fmt.Sprintf("Got %s, exiting", sig))
			v.shutdown = true
		default:
		}

		width, height := win.GetFramebufferSize()
		gl.Viewport(0, 0, int32(width), int32(height))
		gl.ClearColor(r, g, b, a)
		gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)

		projection := mgl32.Perspective(mgl32.DegToRad(45), win.Aspect(), 0.1, 100)
		gl.UniformMatrix4fv(program.ProjectionUniform, 1, false, &projection[0])

		for _, name := range lib.Names() {
			geom := lib.Geometry(name)
			v.draw(program, &drawable{
				array:     geom.Array,
				count:     geom.VertexCount(),
				model:     modelMatrix(geom.Position, v.yaw, v.pitch),
				texture:   v.texture(geom.Texture),
				hasColour: geom.HasSlot(geometry.SlotColour),
				hasNormal: geom.HasSlot(geometry.SlotNormal),
			})
		}
		if model != nil {
			model.model = modelMatrix(cfg.Model.Position.Vec3(), v.advance(cfg.Model.Spin, dt), v.pitch)
			v.draw(program, model)
		}

		s.Update(lib, rendering.TextureUploadCounter)
		win.SwapBuffers()
		if win.ShouldClose() || theApi.ShutdownRequested() {
			v.shutdown = true
		}
		kbdctl.Poll()
	}
	v.log.Info("Shutting down")
}
