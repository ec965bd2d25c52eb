package mcp

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
)

var errorDescriptions = map[action.ErrorCode]string{
	action.ErrQueryStatus:       "The browser query script exited with an error. Check that the browser is running and the Workrooms tab is open.",
	action.ErrQueryDOM:          "The query ran but could not find this control on the Workrooms page. The page layout may have changed.",
	action.ErrScriptingDisabled: "The browser refuses JavaScript from Apple Events. Enable View > Developer > Allow JavaScript from Apple Events.",
	action.ErrQueryException:    "The query script could not be run, timed out, or returned output that could not be read.",
}

func (s *Server) handleGetActionStates(_ context.Context, _ *mcpsdk.CallToolRequest, args GetActionStatesInput) (*mcpsdk.CallToolResult, GetActionStatesOutput, error) {
	var only action.Action
	filter := strings.TrimSpace(args.Action) != ""
	if filter {
		a, ok := action.Parse(args.Action)
		if !ok {
			return nil, GetActionStatesOutput{}, fmt.Errorf("unknown action %q (want mic, camera, hand or call)", args.Action)
		}
		only = a
	}

	data, err := s.source.GetActions()
	if err != nil {
		return nil, GetActionStatesOutput{}, err
	}

	out := GetActionStatesOutput{Actions: make([]ActionState, 0, len(data.Actions))}
	for _, info := range data.Actions {
		if filter && info.Name != only.String() {
			continue
		}
		out.Actions = append(out.Actions, toActionState(info))
	}
	return nil, out, nil
}

func (s *Server) handleGetDaemonStatus(_ context.Context, _ *mcpsdk.CallToolRequest, _ GetDaemonStatusInput) (*mcpsdk.CallToolResult, GetDaemonStatusOutput, error) {
	status, err := s.source.GetStatus()
	if err != nil {
		return nil, GetDaemonStatusOutput{}, err
	}
	return nil, toDaemonStatus(*status), nil
}

func (s *Server) handleExplainError(_ context.Context, _ *mcpsdk.CallToolRequest, args ExplainErrorInput) (*mcpsdk.CallToolResult, ExplainErrorOutput, error) {
	code, ok := action.ParseErrorCode(strings.ToUpper(strings.TrimSpace(args.Code)))
	if !ok || code == action.NoError {
		return nil, ExplainErrorOutput{}, fmt.Errorf("unknown error code %q", args.Code)
	}
	return nil, ExplainErrorOutput{
		Code:        code.String(),
		Description: errorDescriptions[code],
		HelpURL:     s.errorsURL + "#" + strings.ToLower(code.String()),
	}, nil
}
