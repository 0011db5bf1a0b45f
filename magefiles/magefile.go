// Package main provides build targets for the notechain project using Mage.
//
// Usage:
//
//	mage build          Compile notechain binary to bin/
//	mage test:unit      Run unit tests
//	mage test:all       Run all tests verbosely with the race detector
//	mage lint           Run golangci-lint
//	mage clean          Remove build artifacts
//	mage install        Install notechain to GOPATH/bin
//	mage stats          Print Go LOC for production and test code
package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binGo      = "go"
	binLint    = "golangci-lint"
	binaryName = "notechain"
	binaryDir  = "bin"
	cmdDir     = "./cmd/notechain"
	versionVar = "github.com/mesh-intelligence/notechain/internal/cli.Version"
)

// ldflags stamps the version from NOTECHAIN_VERSION when set.
func ldflags() string {
	v := os.Getenv("NOTECHAIN_VERSION")
	if v == "" {
		return ""
	}
	return fmt.Sprintf("-X %s=%s", versionVar, v)
}

// Build compiles the notechain binary to bin/.
func Build() error {
	if err := os.MkdirAll(binaryDir, 0o755); err != nil {
		return err
	}
	return sh.RunV(binGo, "build", "-v", "-ldflags", ldflags(), "-o", filepath.Join(binaryDir, binaryName), cmdDir)
}

// Test groups test targets.
type Test mg.Namespace

// Unit runs the package tests.
func (Test) Unit() error {
	return sh.RunV(binGo, "test", "./...")
}

// All runs every test verbosely with the race detector.
func (Test) All() error {
	return sh.RunV(binGo, "test", "-v", "-race", "./...")
}

// Lint runs golangci-lint.
func Lint() error {
	return sh.RunV(binLint, "run", "./...")
}

// Clean removes build artifacts.
func Clean() error {
	if err := os.RemoveAll(binaryDir); err != nil {
		return err
	}
	return sh.RunV(binGo, "clean")
}

// Install builds and copies the binary to GOPATH/bin.
func Install() error {
	mg.Deps(Build)
	gopath, err := sh.Output(binGo, "env", "GOPATH")
	if err != nil {
		return err
	}
	src := filepath.Join(binaryDir, binaryName)
	dst := filepath.Join(gopath, "bin", binaryName)
	return sh.Copy(dst, src)
}

// Stats prints Go lines of code.
func Stats() error {
	var prodLines, testLines int

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path == "vendor" || path == ".git" || path == binaryDir || strings.HasPrefix(path, "_") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasPrefix(path, "magefiles") {
			return nil
		}
		count, countErr := countLines(path)
		if countErr != nil {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") {
			testLines += count
		} else {
			prodLines += count
		}
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	fmt.Printf("Lines of code (Go, total):      %d\n", prodLines+testLines)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
