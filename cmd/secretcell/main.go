package main

import (
	"os"

	"github.com/saylorsolutions/secretcell/cmd/internal"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr, nil); err != nil {
		internal.Fatal("Error: %v", err)
	}
}
