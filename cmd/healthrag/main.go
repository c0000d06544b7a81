// Package main provides the entry point for the healthrag CLI.
package main

import (
	"os"

	"github.com/CloudAIX/healthcare-rag-system/cmd/healthrag/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
