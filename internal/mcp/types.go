package mcp

import (
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
)

// GetActionStatesInput is the input for the get_action_states tool.
type GetActionStatesInput struct {
	Action string `json:"action,omitempty" jsonschema:"Optional action name (mic, camera, hand, call). When omitted every action is returned."`
}

// ActionState describes one action. Times are RFC 3339 and empty when unset.
type ActionState struct {
	Name          string `json:"name"`
	Visible       bool   `json:"visible"`
	Current       string `json:"current"`
	CurrentError  string `json:"current_error,omitempty"`
	Next          string `json:"next"`
	NextError     string `json:"next_error,omitempty"`
	NextChangedAt string `json:"next_changed_at,omitempty"`
	PendingToggle bool   `json:"pending_toggle"`
	ToggledAt     string `json:"toggled_at,omitempty"`
}

// GetActionStatesOutput is the output for the get_action_states tool.
type GetActionStatesOutput struct {
	Actions []ActionState `json:"actions"`
}

// GetDaemonStatusInput is the input for the get_daemon_status tool.
type GetDaemonStatusInput struct{}

// GetDaemonStatusOutput is the output for the get_daemon_status tool.
type GetDaemonStatusOutput struct {
	PluginVersion    string `json:"plugin_version,omitempty"`
	UptimeSeconds    int64  `json:"uptime_seconds"`
	Connected        bool   `json:"connected"`
	EventsReceived   uint64 `json:"events_received"`
	LastPoll         string `json:"last_poll,omitempty"`
	AnalyticsEnabled bool   `json:"analytics_enabled"`
	AnalyticsQueued  int    `json:"analytics_queued"`
	AnalyticsSent    uint64 `json:"analytics_sent"`
	AnalyticsFailed  uint64 `json:"analytics_failed"`
	AnalyticsDropped uint64 `json:"analytics_dropped"`
}

// ExplainErrorInput is the input for the explain_error tool.
type ExplainErrorInput struct {
	Code string `json:"code" jsonschema:"required,Error code shown on a Stream Deck key (E1, E2, E3 or E4)"`
}

// ExplainErrorOutput is the output for the explain_error tool.
type ExplainErrorOutput struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	HelpURL     string `json:"help_url"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func toActionState(info ipc.ActionInfo) ActionState {
	return ActionState{
		Name:          info.Name,
		Visible:       info.Visible,
		Current:       info.Current.Status,
		CurrentError:  info.Current.Error,
		Next:          info.Next.Status,
		NextError:     info.Next.Error,
		NextChangedAt: formatTime(info.NextChangedAt),
		PendingToggle: info.PendingToggle,
		ToggledAt:     formatTime(info.ToggledAt),
	}
}

func toDaemonStatus(st ipc.StatusData) GetDaemonStatusOutput {
	return GetDaemonStatusOutput{
		PluginVersion:    st.PluginVersion,
		UptimeSeconds:    st.UptimeSeconds,
		Connected:        st.Connected,
		EventsReceived:   st.EventsReceived,
		LastPoll:         formatTime(st.LastPoll),
		AnalyticsEnabled: st.Analytics.Enabled,
		AnalyticsQueued:  st.Analytics.Queued,
		AnalyticsSent:    st.Analytics.Sent,
		AnalyticsFailed:  st.Analytics.Failed,
		AnalyticsDropped: st.Analytics.Dropped,
	}
}
