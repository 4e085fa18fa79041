// Package client streams pose data to a repcount server and reads its
// replies and events over WebSocket.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-repcount/pkg/pose"
	"github.com/teslashibe/go-repcount/pkg/protocol"
)

const (
	handshakeTimeout = 10 * time.Second
	writeWait        = 10 * time.Second
	readWait         = 120 * time.Second
)

// Client is one WebSocket connection to /ws/pose or /ws/events. Writes
// are safe for concurrent use; reads must come from one goroutine.
type Client struct {
	ws   *websocket.Conn
	wsMu sync.Mutex

	logger *slog.Logger
}

// Dial connects to url (e.g. ws://localhost:8090/ws/pose).
func Dial(ctx context.Context, url string, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dialer := websocket.Dialer{
		HandshakeTimeout: handshakeTimeout,
	}

	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	c := &Client{ws: ws, logger: logger.With("url", url)}

	// Answer server pings under the write lock
	ws.SetPingHandler(func(appData string) error {
		c.wsMu.Lock()
		defer c.wsMu.Unlock()
		return ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(writeWait))
	})
	ws.SetReadDeadline(time.Now().Add(readWait))

	return c, nil
}

// Send writes a protocol message.
func (c *Client) Send(msg *protocol.Message) error {
	data, err := msg.Bytes()
	if err != nil {
		return err
	}

	c.wsMu.Lock()
	defer c.wsMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to send %s: %w", msg.Type, err)
	}
	return nil
}

// SendFrame sends a pose frame.
func (c *Client) SendFrame(f pose.Frame) error {
	msg, err := protocol.NewPoseMessage(f)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// SendSample sends a scalar sample.
func (c *Client) SendSample(s pose.Sample) error {
	msg, err := protocol.NewSampleMessage(s)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// Control sends a session action. exercise is used only by start.
func (c *Client) Control(action, exercise string) error {
	msg, err := protocol.NewControlMessage(action, exercise)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// Ping sends a ping; the pong arrives through Read.
func (c *Client) Ping(id string) error {
	msg, err := protocol.NewPingMessage(id)
	if err != nil {
		return err
	}
	return c.Send(msg)
}

// Read blocks for the next server message.
func (c *Client) Read() (*protocol.Message, error) {
	_, data, err := c.ws.ReadMessage()
	if err != nil {
		return nil, err
	}
	c.ws.SetReadDeadline(time.Now().Add(readWait))
	return protocol.ParseMessage(data)
}

// Events reads messages until the connection closes or ctx is done,
// delivering them on the returned channel. The channel is closed on exit.
func (c *Client) Events(ctx context.Context) <-chan *protocol.Message {
	out := make(chan *protocol.Message, 64)
	go func() {
		defer close(out)
		for {
			msg, err := c.Read()
			if err != nil {
				if ctx.Err() == nil {
					c.logger.Debug("event stream closed", "error", err)
				}
				return
			}
			select {
			case out <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close sends a close frame and closes the connection.
func (c *Client) Close() error {
	c.wsMu.Lock()
	c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
	c.wsMu.Unlock()
	return c.ws.Close()
}
