// Package main provides the entry point for the datasetctl CLI.
package main

import (
	"fmt"
	"os"

	"github.com/on-the-ground/ymir_dataset/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
