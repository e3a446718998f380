// main is the entry point for the flowpulse CLI.
package main

import (
	"fmt"
	"os"

	"github.com/huangsam/flowpulse/cmd"
	"github.com/huangsam/flowpulse/internal/iocache"
)

func main() {
	err := cmd.Execute()
	iocache.CloseStore()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
