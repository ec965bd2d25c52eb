// Package mcp exposes the daemon's live state to agents over the Model
// Context Protocol. The server is a separate process started with
// "workrooms mcp serve"; it reads state from the running plugin over the
// status socket and never talks to the Stream Deck itself.
package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
)

const (
	ServerName    = "streamdeck-workrooms"
	ServerVersion = "0.1.0"
)

// StateSource is the daemon side of the server. *ipc.Client satisfies it.
type StateSource interface {
	GetStatus() (*ipc.StatusData, error)
	GetActions() (*ipc.ActionsData, error)
}

// Server is the MCP server for the workrooms daemon.
type Server struct {
	mcpServer *mcpsdk.Server
	source    StateSource
	errorsURL string
}

// NewServer creates a server reading from source. errorsURL is the base of
// the error help links returned by explain_error.
func NewServer(source StateSource, errorsURL string) *Server {
	s := &Server{
		source:    source,
		errorsURL: errorsURL,
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)

	s.registerTools()
	return s
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_action_states",
		Description: "Report the state of the Stream Deck actions (mic, camera, hand, call): whether each key is on screen, the state currently displayed, the most recent browser observation, and whether a toggle is waiting to take effect.",
	}, s.handleGetActionStates)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "get_daemon_status",
		Description: "Report plugin health: version, uptime, whether the Stream Deck connection is live, time of the last browser poll, and analytics queue counters.",
	}, s.handleGetDaemonStatus)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "explain_error",
		Description: "Explain an error code (E1-E4) shown as a Stream Deck key title and return the help page for it.",
	}, s.handleExplainError)
}
