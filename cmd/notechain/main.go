// Package main provides the notechain CLI.
package main

import "github.com/mesh-intelligence/notechain/internal/cli"

func main() {
	cli.Execute()
}
