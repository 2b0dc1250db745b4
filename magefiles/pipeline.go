//go:build mage

package main

import (
	"os"
	"os/exec"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Fetch builds the CLI and runs the fetch stage with default settings.
func Fetch() error {
	mg.Deps(Build, Init)
	return runBinary("fetch")
}

// Appraise builds the CLI and appraises the current card.
func Appraise() error {
	mg.Deps(Build)
	return runBinary("appraise")
}

func runBinary(args ...string) error {
	cmd := exec.Command(filepath.Join(binDir, binName), args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	return cmd.Run()
}