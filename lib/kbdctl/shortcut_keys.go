package kbdctl

import (
	"log/slog"

	"github.com/go-gl/glfw/v3.3/glfw"
)

// Controls is what the keyboard can change in the viewer
type Controls interface {
	Nudge(dx, dy float32)
	RequestShutdown()
}

const nudgeStep = 0.25

func SetupShortcutKeys(c Controls, w *glfw.Window) {
	w.SetKeyCallback(keyCallback(c))
}

func Poll() {
	glfw.PollEvents()
}

func keyCallback(c Controls) glfw.KeyCallback {
	log := slog.With(slog.String("module", "kbdctl"))

	return func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		if action == glfw.Release {
			if key == glfw.KeyQ &&
				mods&glfw.ModControl != 0 &&
				mods&glfw.ModShift != 0 {
				log.Info("told to quit, exiting")
				c.RequestShutdown()
			}
			return
		}
		switch key {
		case glfw.KeyUp:
			log.Debug("Up")
			c.Nudge(0, nudgeStep)
		case glfw.KeyDown:
			log.Debug("Down")
			c.Nudge(0, -nudgeStep)
		case glfw.KeyLeft:
			log.Debug("Left")
			c.Nudge(-nudgeStep, 0)
		case glfw.KeyRight:
			log.Debug("Right")
			c.Nudge(nudgeStep, 0)
		}
	}
}
