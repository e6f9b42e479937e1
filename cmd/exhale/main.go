// Package main is the single-binary entrypoint for Exhale.
// Exhale turns smoke-free time into levels, streaks and achievements.
package main

import "github.com/exhale-app/exhale/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
