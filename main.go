package main

import (
	"os"

	"github.com/TheSilvered/Cursors/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
