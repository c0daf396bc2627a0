package main

import (
	"flag"
	"log"
	"log/slog"
	"runtime"

	"github.com/fosdem/meshview/lib/config"
	mlog "github.com/fosdem/meshview/lib/log"
	"github.com/fosdem/meshview/lib/viewer"
)

func init() {
	// The OpenGL stuff must be in one thread
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "Log debug messages")
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatalf("Usage: meshview [-debug] <config file>")
	}

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	mlog.Install(level)

	cfg, err := config.Parse(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	viewer.MakeWindowAndRender(cfg, flag.Arg(0))
}
