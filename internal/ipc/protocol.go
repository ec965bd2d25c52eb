package ipc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
)

// CommandType represents different IPC command types
type CommandType string

const (
	CommandGetStatus  CommandType = "GET_STATUS"
	CommandGetActions CommandType = "GET_ACTIONS"
)

// Request represents an IPC request from client to server
type Request struct {
	Command CommandType     `json:"command"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response represents an IPC response from server to client
type Response struct {
	Status string          `json:"status"` // "OK" or "ERROR"
	Data   json.RawMessage `json:"data,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// StatusData represents the data returned by GET_STATUS
type StatusData struct {
	PluginVersion  string        `json:"plugin_version,omitempty"`
	UptimeSeconds  int64         `json:"uptime_seconds"`
	Connected      bool          `json:"connected"`
	EventsReceived uint64        `json:"events_received"`
	LastPoll       time.Time     `json:"last_poll,omitzero"`
	Analytics      metrics.Stats `json:"analytics"`
}

// StateInfo is the wire form of an action.State.
type StateInfo struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ActionInfo describes one action slot.
type ActionInfo struct {
	Name          string    `json:"name"`
	Visible       bool      `json:"visible"`
	Current       StateInfo `json:"current"`
	Next          StateInfo `json:"next"`
	NextChangedAt time.Time `json:"next_changed_at,omitzero"`
	PendingToggle bool      `json:"pending_toggle"`
	ToggledAt     time.Time `json:"toggled_at,omitzero"`
}

// ActionsData represents the data returned by GET_ACTIONS
type ActionsData struct {
	Actions []ActionInfo `json:"actions"`
}

// NewActionsData renders table records in slot order.
func NewActionsData(records [action.Count]action.Record) ActionsData {
	out := ActionsData{Actions: make([]ActionInfo, 0, action.Count)}
	for _, a := range action.All {
		r := records[a.Slot()]
		out.Actions = append(out.Actions, ActionInfo{
			Name:          a.String(),
			Visible:       r.Active(),
			Current:       stateInfo(r.Current),
			Next:          stateInfo(r.Next),
			NextChangedAt: r.NextTime,
			PendingToggle: !r.ActionTime.IsZero(),
			ToggledAt:     r.ActionTime,
		})
	}
	return out
}

func stateInfo(s action.State) StateInfo {
	status := s.Status.String()
	if s.Status == action.StatusAbsent {
		status = "ABSENT"
	}
	return StateInfo{Status: status, Error: s.Error.String()}
}

// NewOKResponse creates a successful response with optional data
func NewOKResponse(data interface{}) (*Response, error) {
	var dataBytes json.RawMessage
	if data != nil {
		bytes, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal response data: %w", err)
		}
		dataBytes = bytes
	}

	return &Response{
		Status: "OK",
		Data:   dataBytes,
	}, nil
}

// NewErrorResponse creates an error response with a message
func NewErrorResponse(errMsg string) *Response {
	return &Response{
		Status: "ERROR",
		Error:  errMsg,
	}
}

// ParseRequest parses a request from JSON bytes
func ParseRequest(data []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request: %w", err)
	}
	return &req, nil
}

// Marshal converts a response to JSON bytes
func (r *Response) Marshal() ([]byte, error) {
	return json.Marshal(r)
}
