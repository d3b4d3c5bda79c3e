package main

import (
	"os"

	"github.com/abhisek/sentcraft/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
