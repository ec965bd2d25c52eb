package main

import (
	"fmt"
	"io"
	"os"
	"strings"
)

func main() {
	if len(os.Args) < 2 {
		printMainUsage(os.Stdout)
		os.Exit(0)
	}

	// Stream Deck launches plugins with single-dash flags and no
	// subcommand.
	if strings.HasPrefix(os.Args[1], "-") && !isHelpArg(os.Args[1]) {
		os.Exit(runDaemon(os.Args[1:]))
	}

	switch os.Args[1] {
	case "daemon":
		os.Exit(runDaemon(os.Args[2:]))
	case "status":
		os.Exit(runStatus(os.Args[2:]))
	case "config":
		os.Exit(runConfig(os.Args[2:]))
	case "mcp":
		os.Exit(runMCP(os.Args[2:]))
	case "help", "-h", "--help":
		printMainUsage(os.Stdout)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printMainUsage(os.Stderr)
		os.Exit(2)
	}
}

func isHelpArg(arg string) bool {
	return arg == "help" || arg == "-h" || arg == "--help"
}

func printMainUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workrooms <command> [options]")
	fmt.Fprintln(w, "       workrooms -port N -pluginUUID U -registerEvent E -info JSON")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "The second form is how the Stream Deck application starts the plugin.")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  daemon              Run the plugin (same flags as above)")
	fmt.Fprintln(w, "  status              Show live action state from the running plugin")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  config validate     Validate configuration")
	fmt.Fprintln(w, "  config print        Print configuration")
	fmt.Fprintln(w, "  config explain      Explain a config value")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "  mcp serve           Start MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'workrooms <command> --help' for command-specific options.")
}
