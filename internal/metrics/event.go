// Package metrics collects usage events and forwards them to a Google
// Analytics Measurement Protocol (v1) collector.
//
// Producers call Collect, which never blocks. A single drain loop sends
// queued events one at a time in submission order. Delivery is best
// effort: transport failures are logged and the event is dropped.
package metrics

import (
	"strconv"
	"time"
)

// Event is a flat set of Measurement Protocol parameters. The sink adds
// the base parameters (protocol version, tracking id, client id, app).
type Event map[string]string

// Collector accepts events. Implementations must not block.
type Collector interface {
	Collect(ev Event)
}

// Discard is a Collector that drops every event.
type Discard struct{}

// Collect implements Collector.
func (Discard) Collect(Event) {}

// Hit builds a generic event ("t=event") with a category and action.
func Hit(category, action string) Event {
	return Event{"t": "event", "ec": category, "ea": action}
}

// Timing builds a user timing hit with the duration in milliseconds.
func Timing(category, variable string, d time.Duration) Event {
	return Event{
		"t":   "timing",
		"utc": category,
		"utv": variable,
		"utt": strconv.FormatInt(d.Milliseconds(), 10),
	}
}

// Exception builds a non-fatal exception hit.
func Exception(description string) Event {
	return Event{"t": "exception", "exd": description, "exf": "0"}
}

// Launch is sent once at startup.
func Launch() Event {
	return Hit("System", "Launch")
}
