package main

import (
	"os"

	"github.com/alfosobral/UniParking/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
