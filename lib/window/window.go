package window

import (
	"fmt"
	"log/slog"

	"github.com/fosdem/meshview/lib/config"
	mlog "github.com/fosdem/meshview/lib/log"
	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
)

type Window struct {
	*glfw.Window
	log *slog.Logger
}

// New opens a window with a current GL 4.1 core context. Call it from the
// locked main thread.
func New(cfg *config.WindowCfg) (*Window, error) {
	w := &Window{log: mlog.Module("window")}
	w.log.Debug("Initializing window")
	if err := glfw.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize glfw: %w", err)
	}

	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	window, err := glfw.CreateWindow(cfg.Width, cfg.Height, cfg.Title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, fmt.Errorf("could not create window: %w", err)
	}

	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	w.Window = window
	return w, nil
}

// LogContext reports the driver behind the context; gl.Init must have run
func (w *Window) LogContext() {
	vendor := gl.GoStr(gl.GetString(gl.VENDOR))
	renderer := gl.GoStr(gl.GetString(gl.RENDERER))
	version := gl.GoStr(gl.GetString(gl.VERSION))

	w.log.Info(fmt.Sprintf("OpenGL version %s / %s / %s", vendor, renderer, version))
}

func (w *Window) Aspect() float32 {
	width, height := w.GetFramebufferSize()
	if height == 0 {
		return 1
	}
	return float32(width) / float32(height)
}

func (w *Window) Destroy() {
	w.Window.Destroy()
	glfw.Terminate()
}
