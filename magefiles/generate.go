//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Generate builds the CLI and produces public/news-data.json.
func Generate() error {
	mg.Deps(Init, Build)
	return sh.RunV(binPath(), "generate")
}

// Check builds the CLI and verifies the API key with one request.
func Check() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "check")
}

// Show prints the Neutral edition of the current dataset.
func Show() error {
	mg.Deps(Build)
	return sh.RunV(binPath(), "show")
}
