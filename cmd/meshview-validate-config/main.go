package main

import (
	"fmt"
	"log"
	"os"

	"github.com/fosdem/meshview/lib/config"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatalf("Usage: %s <config file>...", os.Args[0])
	}

	failed := false
	for _, path := range os.Args[1:] {
		cfg, err := config.Parse(path)
		if err != nil {
			fmt.Printf("%s: config invalid: %s\n", path, err)
			failed = true
			continue
		}
		fmt.Printf("%s: config valid!\n\n%s\n", path, cfg)
	}
	if failed {
		os.Exit(1)
	}
}
