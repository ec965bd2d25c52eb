package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/pgriess/streamdeck-workrooms/internal/ipc"
)

type statusReport struct {
	Status  *ipc.StatusData  `json:"status"`
	Actions *ipc.ActionsData `json:"actions"`
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: workrooms status [--json]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show live action state from the running plugin via its status socket.")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Flags:")
		fs.PrintDefaults()
	}
	jsonOut := fs.Bool("json", false, "Output raw status as JSON")
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client := ipc.NewClient()
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	actions, err := client.GetActions()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(statusReport{Status: status, Actions: actions}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	styled := term.IsTerminal(int(os.Stdout.Fd()))
	renderStatus(os.Stdout, status, actions, time.Now(), styled)
	return 0
}

type statusStyles struct {
	label lipgloss.Style
	on    lipgloss.Style
	off   lipgloss.Style
	dim   lipgloss.Style
	err   lipgloss.Style
}

func newStatusStyles(styled bool) statusStyles {
	if !styled {
		plain := lipgloss.NewStyle()
		return statusStyles{label: plain, on: plain, off: plain, dim: plain, err: plain}
	}
	return statusStyles{
		label: lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Bold(true),
		on:    lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		off:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		dim:   lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		err:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
	}
}

func renderStatus(w io.Writer, status *ipc.StatusData, actions *ipc.ActionsData, now time.Time, styled bool) {
	st := newStatusStyles(styled)

	uptime := time.Duration(status.UptimeSeconds) * time.Second
	connected := st.off.Render("no")
	if status.Connected {
		connected = st.on.Render("yes")
	}
	lastPoll := st.dim.Render("never")
	if !status.LastPoll.IsZero() {
		lastPoll = humanize.RelTime(status.LastPoll, now, "ago", "from now")
	}
	version := status.PluginVersion
	if version == "" {
		version = "unknown"
	}

	fmt.Fprintf(w, "%s %s\n", st.label.Render("version:  "), version)
	fmt.Fprintf(w, "%s %s\n", st.label.Render("uptime:   "), uptime.String())
	fmt.Fprintf(w, "%s %s\n", st.label.Render("connected:"), connected)
	fmt.Fprintf(w, "%s %s\n", st.label.Render("events:   "), humanize.Comma(int64(status.EventsReceived)))
	fmt.Fprintf(w, "%s %s\n", st.label.Render("last poll:"), lastPoll)

	a := status.Analytics
	if a.Enabled {
		fmt.Fprintf(w, "%s sent %s, failed %s, dropped %s, queued %d\n",
			st.label.Render("analytics:"),
			humanize.Comma(int64(a.Sent)),
			humanize.Comma(int64(a.Failed)),
			humanize.Comma(int64(a.Dropped)),
			a.Queued)
	} else {
		fmt.Fprintf(w, "%s %s\n", st.label.Render("analytics:"), st.dim.Render("disabled"))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-8s %-10s %-10s %s\n", "ACTION", "SHOWN", "OBSERVED", "NOTES")
	for _, info := range actions.Actions {
		var notes []string
		if !info.Visible {
			notes = append(notes, "not on deck")
		}
		if info.PendingToggle {
			notes = append(notes, "toggled "+humanize.RelTime(info.ToggledAt, now, "ago", "from now"))
		}
		fmt.Fprintf(w, "%-8s %s %s %s\n",
			info.Name,
			padRender(stateStyle(st, info.Current), describeState(info.Current), 10),
			padRender(stateStyle(st, info.Next), describeState(info.Next), 10),
			st.dim.Render(strings.Join(notes, "; ")))
	}
}

func describeState(s ipc.StateInfo) string {
	if s.Error != "" {
		return s.Status + " " + s.Error
	}
	return s.Status
}

func stateStyle(st statusStyles, s ipc.StateInfo) lipgloss.Style {
	switch {
	case s.Error != "":
		return st.err
	case s.Status == "ON":
		return st.on
	case s.Status == "OFF":
		return st.off
	default:
		return st.dim
	}
}

// padRender pads before styling so escape sequences do not skew columns.
func padRender(style lipgloss.Style, text string, width int) string {
	return style.Render(fmt.Sprintf("%-*s", width, text))
}
