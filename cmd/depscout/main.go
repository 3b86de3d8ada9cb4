package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx := context.Background()
	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "run":
		runDetect(ctx, os.Args[2:])
	case "inspect":
		runInspect(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`depscout - Dependency detection for archives loaded by a running process

Usage:
  depscout <command> [options]

Commands:
  run       Read code-source locations from stdin and emit dependency-detected events
  inspect   Print the detection attributes of a single archive

Use "depscout <command> --help" for more information about a command.`)
}
