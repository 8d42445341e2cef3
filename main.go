package main

import (
	"os"

	"github.com/andreero0/nestsync-timeline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
