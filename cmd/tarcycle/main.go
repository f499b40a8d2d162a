// Tarcycle maintains rotating incremental backup chains with GNU tar.
package main

import (
	"github.com/tarcycle/tarcycle/cmd/tarcycle/internal/cli"
)

func main() {
	cli.Execute()
}
