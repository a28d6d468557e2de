package main

import (
	"os"

	"github.com/Hollywood0805/Validation-engine-Backend/cmd/editcheck/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
