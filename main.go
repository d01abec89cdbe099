package main

import (
	"os"

	"github.com/jwcloud365/SimpleWebDBApp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
