package main

import (
	"os"

	"github.com/anchorsec/anchor/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
