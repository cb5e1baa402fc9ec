// Command acquiesce is a small CLI over the render and parse packages,
// grounded on the teacher's llm/tools command (flag.NewFlagSet-per-
// subcommand, positional-argument fallback, log.Fatalf on hard errors).
package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "render":
		runRender(os.Args[2:])
	case "parse":
		runParse(os.Args[2:])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: acquiesce <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  render  Render a chat-completion request against a model repository")
	fmt.Println("  parse   Feed model output through an envelope's streaming parser")
	fmt.Println("\nUse 'acquiesce <command> -h' for more information about a command.")
}
