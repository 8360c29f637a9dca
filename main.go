package main

import (
	"os"

	"github.com/toxscout/toxscout/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
