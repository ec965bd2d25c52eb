package streamdeck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// ErrClosed is returned by Receive when the Stream Deck application
// closed the connection normally (for example on quit).
var ErrClosed = errors.New("stream deck connection closed")

// maxFrameSize bounds inbound frames. Settings payloads can exceed the
// library default of 32 KiB.
const maxFrameSize = 1 << 20

// Sender writes commands to the control surface.
type Sender interface {
	Send(ctx context.Context, cmd Command) error
}

// Receiver reads events from the control surface. Only one goroutine may
// receive from a connection.
type Receiver interface {
	Receive(ctx context.Context) (Event, error)
}

// ProtocolError reports an inbound frame that could not be interpreted.
// The connection itself is still usable.
type ProtocolError struct {
	Frame []byte
	Err   error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error: %v", e.Err)
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// Client is a connection to the Stream Deck application. Send may be
// called from any goroutine; each frame is written whole.
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// Dial connects to the Stream Deck application listening on the local
// port passed to the plugin at launch.
func Dial(ctx context.Context, port int) (*Client, error) {
	return DialURL(ctx, fmt.Sprintf("ws://127.0.0.1:%d", port))
}

// DialURL connects to an explicit WebSocket URL.
func DialURL(ctx context.Context, url string) (*Client, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	conn.SetReadLimit(maxFrameSize)
	return &Client{conn: conn}, nil
}

// Register sends the handshake frame. It must be the first frame written.
func (c *Client) Register(ctx context.Context, event, uuid string) error {
	return c.write(ctx, Registration{Event: event, UUID: uuid})
}

// Send writes one command frame.
func (c *Client) Send(ctx context.Context, cmd Command) error {
	return c.write(ctx, cmd)
}

func (c *Client) write(ctx context.Context, v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := wsjson.Write(ctx, c.conn, v); err != nil {
		return closeError("send", err)
	}
	return nil
}

// Receive blocks for the next inbound event. Undecodable frames are
// reported as *ProtocolError; any other error means the connection is
// unusable.
func (c *Client) Receive(ctx context.Context) (Event, error) {
	typ, data, err := c.conn.Read(ctx)
	if err != nil {
		return Event{}, closeError("receive", err)
	}
	if typ != websocket.MessageText {
		return Event{}, &ProtocolError{Frame: data, Err: fmt.Errorf("unexpected %v frame", typ)}
	}
	ev, err := ParseEvent(data)
	if err != nil {
		return Event{}, &ProtocolError{Frame: data, Err: err}
	}
	return ev, nil
}

// Close closes the connection with a normal closure status.
func (c *Client) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "")
}

// closeError maps a normal close, including the application exiting
// without a close frame, onto ErrClosed.
func closeError(op string, err error) error {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", op, ErrClosed)
	}
	return fmt.Errorf("%s: %w", op, err)
}
