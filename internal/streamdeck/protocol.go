// Package streamdeck speaks the Stream Deck plugin WebSocket protocol:
// JSON text frames exchanged with the Stream Deck application over a
// local connection.
//
// See https://developer.elgato.com/documentation/stream-deck/sdk.
package streamdeck

import (
	"encoding/json"
	"fmt"
)

// EventType names an inbound event or an outbound command.
type EventType string

// Inbound events handled by the daemon. Everything else is ignored.
const (
	EventWillAppear    EventType = "willAppear"
	EventWillDisappear EventType = "willDisappear"
	EventKeyUp         EventType = "keyUp"
	EventKeyDown       EventType = "keyDown"
)

// Outbound commands.
const (
	CommandSetImage EventType = "setImage"
	CommandSetTitle EventType = "setTitle"
	CommandOpenURL  EventType = "openUrl"
)

// Event is an inbound frame. Global events (device connection,
// application launch, settings) carry no Action.
type Event struct {
	Event   EventType       `json:"event"`
	Action  string          `json:"action,omitempty"`
	Context string          `json:"context,omitempty"`
	Device  string          `json:"device,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseEvent decodes a single inbound frame.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Event{}, fmt.Errorf("failed to parse event: %w", err)
	}
	if ev.Event == "" {
		return Event{}, fmt.Errorf("failed to parse event: missing event name")
	}
	return ev, nil
}

// Command is an outbound frame addressed to one on-screen context.
type Command struct {
	Event   EventType `json:"event"`
	Context string    `json:"context"`
	Payload any       `json:"payload"`
}

// ImagePayload is the payload of setImage.
type ImagePayload struct {
	Image string `json:"image"`
}

// TitlePayload is the payload of setTitle. A nil Title clears the title.
type TitlePayload struct {
	Title *string `json:"title"`
}

// URLPayload is the payload of openUrl.
type URLPayload struct {
	URL string `json:"url"`
}

// SetImage builds a setImage command. image is a data URI.
func SetImage(context, image string) Command {
	return Command{Event: CommandSetImage, Context: context, Payload: ImagePayload{Image: image}}
}

// SetTitle builds a setTitle command. An empty title clears it.
func SetTitle(context, title string) Command {
	p := TitlePayload{}
	if title != "" {
		p.Title = &title
	}
	return Command{Event: CommandSetTitle, Context: context, Payload: p}
}

// OpenURL builds an openUrl command.
func OpenURL(context, url string) Command {
	return Command{Event: CommandOpenURL, Context: context, Payload: URLPayload{URL: url}}
}

// Registration is the handshake frame sent immediately after connecting.
type Registration struct {
	Event string `json:"event"`
	UUID  string `json:"uuid"`
}

// Info is the subset of the -info launch argument the daemon uses.
type Info struct {
	Application struct {
		Platform string `json:"platform"`
		Version  string `json:"version"`
	} `json:"application"`
	Plugin struct {
		UUID    string `json:"uuid"`
		Version string `json:"version"`
	} `json:"plugin"`
	Devices []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
		Type int    `json:"type"`
	} `json:"devices"`
}

// ParseInfo decodes the -info launch argument. An empty string yields a
// zero Info.
func ParseInfo(raw string) (Info, error) {
	var info Info
	if raw == "" {
		return info, nil
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return Info{}, fmt.Errorf("failed to parse -info: %w", err)
	}
	return info, nil
}
