package main

import (
	"os"

	"github.com/pwoprurho/rurho-qubic-hackhathon/internal/app"
)

func main() {
	if err := app.BuildRoot().Execute(); err != nil {
		os.Exit(1)
	}
}
