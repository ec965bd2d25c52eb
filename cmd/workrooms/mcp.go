package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
	"github.com/pgriess/streamdeck-workrooms/internal/mcp"
)

func printMCPUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: workrooms mcp <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve    Start the MCP server (stdio transport)")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Run 'workrooms mcp <command> --help' for command-specific options.")
}

func runMCP(args []string) int {
	if len(args) == 0 {
		printMCPUsage(os.Stderr)
		return 2
	}

	switch args[0] {
	case "serve":
		return runMCPServe(args[1:])
	case "help", "-h", "--help":
		printMCPUsage(os.Stdout)
		return 0
	default:
		fmt.Fprintf(os.Stderr, "Unknown mcp command: %s\n\n", args[0])
		printMCPUsage(os.Stderr)
		return 2
	}
}

func runMCPServe(args []string) int {
	if len(args) > 0 && isHelpArg(args[0]) {
		fmt.Fprintln(os.Stdout, "Usage: workrooms mcp serve")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Start the MCP server on stdio. It reads live state from the running")
		fmt.Fprintln(os.Stdout, "Stream Deck plugin through its status socket.")
		fmt.Fprintln(os.Stdout, "")
		fmt.Fprintln(os.Stdout, "Example (Claude Code):")
		fmt.Fprintln(os.Stdout, "  claude mcp add workrooms -- workrooms mcp serve")
		return 0
	}
	if len(args) > 0 {
		fmt.Fprintln(os.Stderr, "mcp serve takes no arguments")
		return 2
	}

	res, err := loadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	server := mcp.NewServer(ipc.NewClient(), res.Config.ErrorsURL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx); err != nil && ctx.Err() == nil {
		fmt.Fprintf(os.Stderr, "error: MCP server: %v\n", err)
		return 1
	}
	return 0
}
