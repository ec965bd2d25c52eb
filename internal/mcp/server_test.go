package mcp

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
)

type fakeSource struct {
	status  ipc.StatusData
	actions ipc.ActionsData
	err     error
}

func (f *fakeSource) GetStatus() (*ipc.StatusData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.status, nil
}

func (f *fakeSource) GetActions() (*ipc.ActionsData, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &f.actions, nil
}

const testErrorsURL = "https://example.com/wiki/Errors"

func newTestServer(src StateSource) *Server {
	return NewServer(src, testErrorsURL)
}

func TestGetActionStates(t *testing.T) {
	tbl := action.NewTable()
	tbl.Appear(action.Camera, "ctx-camera")
	src := &fakeSource{actions: ipc.NewActionsData(tbl.Snapshots())}
	s := newTestServer(src)

	tests := []struct {
		name   string
		action string
		want   []string
	}{
		{"all", "", []string{"mic", "camera", "hand", "call"}},
		{"bare name", "camera", []string{"camera"}},
		{"identifier", "com.example.workrooms.hand", []string{"hand"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := s.handleGetActionStates(context.Background(), nil, GetActionStatesInput{Action: tt.action})
			if err != nil {
				t.Fatalf("handleGetActionStates() error: %v", err)
			}
			var got []string
			for _, a := range out.Actions {
				got = append(got, a.Name)
			}
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("actions = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetActionStates_Fields(t *testing.T) {
	tbl := action.NewTable()
	toggled := time.Date(2024, 3, 4, 5, 6, 7, 0, time.UTC)
	tbl.Appear(action.Mic, "ctx-mic")
	tbl.Update(action.Mic, func(r *action.Record) {
		r.Current = action.State{Status: action.StatusUnknown, Error: action.ErrScriptingDisabled}
		r.Next = r.Current
	})
	tbl.MarkToggled(action.Mic, action.StatusUnknown, toggled)
	s := newTestServer(&fakeSource{actions: ipc.NewActionsData(tbl.Snapshots())})

	_, out, err := s.handleGetActionStates(context.Background(), nil, GetActionStatesInput{Action: "mic"})
	if err != nil {
		t.Fatalf("handleGetActionStates() error: %v", err)
	}
	if len(out.Actions) != 1 {
		t.Fatalf("len(actions) = %d, want 1", len(out.Actions))
	}
	got := out.Actions[0]
	want := ActionState{
		Name:          "mic",
		Visible:       true,
		Current:       "UNKNOWN",
		CurrentError:  "E3",
		Next:          "UNKNOWN",
		NextError:     "E3",
		PendingToggle: true,
		ToggledAt:     "2024-03-04T05:06:07Z",
	}
	if got != want {
		t.Fatalf("action = %+v, want %+v", got, want)
	}
}

func TestGetActionStates_UnknownAction(t *testing.T) {
	s := newTestServer(&fakeSource{})
	_, _, err := s.handleGetActionStates(context.Background(), nil, GetActionStatesInput{Action: "volume"})
	if err == nil || !strings.Contains(err.Error(), "unknown action") {
		t.Fatalf("error = %v, want unknown action", err)
	}
}

func TestGetDaemonStatus(t *testing.T) {
	src := &fakeSource{status: ipc.StatusData{PluginVersion: "1.0.0", Connected: true}}
	s := newTestServer(src)

	_, out, err := s.handleGetDaemonStatus(context.Background(), nil, GetDaemonStatusInput{})
	if err != nil {
		t.Fatalf("handleGetDaemonStatus() error: %v", err)
	}
	if out.PluginVersion != "1.0.0" || !out.Connected {
		t.Fatalf("status = %+v", out)
	}
	if out.LastPoll != "" {
		t.Fatalf("LastPoll = %q, want empty for zero time", out.LastPoll)
	}
}

func TestHandlersSurfaceSourceErrors(t *testing.T) {
	down := errors.New("failed to connect to daemon")
	s := newTestServer(&fakeSource{err: down})

	if _, _, err := s.handleGetDaemonStatus(context.Background(), nil, GetDaemonStatusInput{}); !errors.Is(err, down) {
		t.Errorf("handleGetDaemonStatus() error = %v, want %v", err, down)
	}
	if _, _, err := s.handleGetActionStates(context.Background(), nil, GetActionStatesInput{}); !errors.Is(err, down) {
		t.Errorf("handleGetActionStates() error = %v, want %v", err, down)
	}
}

func TestExplainError(t *testing.T) {
	s := newTestServer(&fakeSource{})

	tests := []struct {
		code    string
		wantURL string
		wantErr bool
	}{
		{"E2", testErrorsURL + "#e2", false},
		{" e3 ", testErrorsURL + "#e3", false},
		{"E4", testErrorsURL + "#e4", false},
		{"E9", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		_, out, err := s.handleExplainError(context.Background(), nil, ExplainErrorInput{Code: tt.code})
		if (err != nil) != tt.wantErr {
			t.Fatalf("handleExplainError(%q) error = %v, wantErr %v", tt.code, err, tt.wantErr)
		}
		if tt.wantErr {
			continue
		}
		if out.HelpURL != tt.wantURL {
			t.Errorf("handleExplainError(%q).HelpURL = %q, want %q", tt.code, out.HelpURL, tt.wantURL)
		}
		if out.Description == "" {
			t.Errorf("handleExplainError(%q) has no description", tt.code)
		}
	}
}
