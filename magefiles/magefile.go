//go:build mage

// Package main provides build targets for cratemover using Mage.
//
// Usage:
//
//	mage build      Compile the cratemover binary to bin/ with version info
//	mage test       Run all tests
//	mage testRace   Run all tests with the race detector
//	mage lint       Run golangci-lint
//	mage clean      Remove build artifacts
//	mage install    Install cratemover to GOPATH/bin
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "cratemover"
	binaryDir  = "bin"
	cmdDir     = "./cmd/cratemover"
	buildPkg   = "github.com/matzehuels/cratemover/pkg/buildinfo"
)

// Build compiles the cratemover binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV("go", "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test runs all tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// TestRace runs all tests with the race detector.
func TestRace() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV("golangci-lint", "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV("go", "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output("go", "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// ldflags stamps the version, commit and build date into pkg/buildinfo.
// Outside a git checkout the defaults ("dev", "none") are kept.
func ldflags() string {
	version, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil {
		version = "dev"
	}
	commit, err := sh.Output("git", "rev-parse", "HEAD")
	if err != nil {
		commit = "none"
	}
	flags := []string{
		fmt.Sprintf("-X %s.Version=%s", buildPkg, strings.TrimSpace(version)),
		fmt.Sprintf("-X %s.Commit=%s", buildPkg, strings.TrimSpace(commit)),
		fmt.Sprintf("-X %s.Date=%s", buildPkg, time.Now().UTC().Format(time.RFC3339)),
	}
	return strings.Join(flags, " ")
}
