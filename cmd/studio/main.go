// Command studio serves the visual site builder and works with its
// projects from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/livetemplate/studio/cmd/studio/commands"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "serve":
		err = commands.ServeCommand(args)
	case "export":
		err = commands.ExportCommand(args)
	case "import":
		err = commands.ImportCommand(args)
	case "publish":
		err = commands.PublishCommand(args)
	case "version":
		fmt.Printf("studio version %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("studio - Visual site builder")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  studio serve [directory]              Start the builder server")
	fmt.Println("  studio export [directory] [-o FILE]   Write the project as a zip archive")
	fmt.Println("  studio import <file> [--target=T]     Replace a pane with a file's content")
	fmt.Println("  studio publish [directory] [--list]   Publish the project and print its URL")
	fmt.Println("  studio version                        Show version")
	fmt.Println("  studio help                           Show this help")
	fmt.Println()
	fmt.Println("Common flags:")
	fmt.Println("  -c, --config FILE   Use FILE instead of <directory>/studio.yaml")
	fmt.Println("  --project NAME      Work on project NAME")
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  studio serve                          # Serve the project in the current directory")
	fmt.Println("  studio serve --port 3000 --memory     # Throwaway session, nothing persisted")
	fmt.Println("  studio serve --watch inbox            # Import files dropped into ./inbox")
	fmt.Println("  studio import notes.md                # Render markdown into the HTML pane")
	fmt.Println("  studio import logo.png --target=favicon")
	fmt.Println("  studio export -o site.zip")
	fmt.Println("  studio publish --list")
}
