// Package main is the entry point for the nearcap packet capture agent.
package main

import (
	"fmt"
	"os"

	"github.com/nearcap/nearcap/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
