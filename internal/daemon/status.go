package daemon

import (
	"time"

	"github.com/pgriess/streamdeck-workrooms/internal/action"
	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
	"github.com/pgriess/streamdeck-workrooms/internal/metrics"
)

// Task names used with the Supervisor.
const (
	TaskPoll    = "poll"
	TaskSession = "session"
	TaskMetrics = "metrics"
	TaskIPC     = "ipc"
)

// StatusView answers status socket queries from live daemon state.
type StatusView struct {
	Version    string
	Started    time.Time
	Table      *action.Table
	Supervisor *Supervisor
	Poller     *Poller
	Session    interface{ Received() uint64 }
	Analytics  interface{ Stats() metrics.Stats }
	Now        func() time.Time
}

// Status implements ipc.StatusProvider.
func (v *StatusView) Status() ipc.StatusData {
	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	out := ipc.StatusData{
		PluginVersion: v.Version,
		UptimeSeconds: int64(now().Sub(v.Started).Seconds()),
	}
	if v.Supervisor != nil {
		out.Connected = v.Supervisor.Running(TaskSession)
	}
	if v.Session != nil {
		out.EventsReceived = v.Session.Received()
	}
	if v.Poller != nil {
		out.LastPoll = v.Poller.LastPoll()
	}
	if v.Analytics != nil {
		out.Analytics = v.Analytics.Stats()
	}
	return out
}

// Actions implements ipc.StatusProvider.
func (v *StatusView) Actions() ipc.ActionsData {
	return ipc.NewActionsData(v.Table.Snapshots())
}
