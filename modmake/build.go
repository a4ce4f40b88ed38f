package main

import (
	. "github.com/saylorsolutions/modmake"
)

const (
	secretcellVersion = "0.1.0"
)

func main() {
	b := NewBuild()
	b.Generate().DependsOnRunner("tidy", "", Go().ModTidy())

	// The settings store uses SQLite through cgo, so cross-compiled variants need a C toolchain for the target.
	secretcell := NewAppBuild("secretcell", "cmd/secretcell", secretcellVersion)
	secretcell.Build(func(gb *GoBuild) {
		gb.
			StripDebugSymbols().
			SetVariable("main", "version", secretcellVersion).
			CgoEnabled(true)
	})
	secretcell.Variant("linux", "amd64")
	secretcell.Variant("darwin", "arm64")
	b.ImportApp(secretcell)

	b.Execute()
}
