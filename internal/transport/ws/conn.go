// Package ws implements the chat transport over a WebSocket connection.
package ws

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/ircwire/internal/irc"
)

// Conn is an irc.Transport over a WebSocket connection. One inbound text
// message may carry several protocol lines; they are split on CRLF and
// delivered individually. Outbound lines get CRLF appended.
type Conn struct {
	url         string
	dialTimeout time.Duration
	log         *zerolog.Logger

	mu     sync.Mutex
	ws     *websocket.Conn
	closed bool // Close was requested by our side
}

// New builds a transport for the given ws:// or wss:// URL.
func New(url string, dialTimeout time.Duration, logger *zerolog.Logger) *Conn {
	return &Conn{
		url:         url,
		dialTimeout: dialTimeout,
		log:         logger,
	}
}

// Connect dials the chat endpoint, reports the opened event with the
// handshake response headers, and starts the read loop that feeds inbound
// lines and the eventual closed event to the handler.
func (c *Conn) Connect(ctx context.Context, h irc.TransportHandler) error {
	dialCtx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()

	conn, resp, err := websocket.Dial(dialCtx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	// Chat messages are short lines; the default 32KiB limit is generous
	// but tag-heavy lines can exceed it.
	conn.SetReadLimit(1 << 20)

	c.mu.Lock()
	c.ws = conn
	c.closed = false
	c.mu.Unlock()

	c.log.Debug().Str("url", c.url).Msg("websocket connected")

	headers := map[string][]string{}
	if resp != nil {
		headers = map[string][]string(resp.Header)
	}
	h.TransportOpened(headers)

	go c.readLoop(conn, h)
	return nil
}

// Send writes one protocol line, appending the CRLF terminator.
func (c *Conn) Send(ctx context.Context, line string) error {
	c.mu.Lock()
	conn := c.ws
	c.mu.Unlock()
	if conn == nil {
		return errors.New("ws: not connected")
	}
	return conn.Write(ctx, websocket.MessageText, []byte(line+"\r\n"))
}

// Close tears the connection down from our side. The read loop observes the
// closure and reports it to the handler as client-initiated.
func (c *Conn) Close() error {
	c.mu.Lock()
	conn := c.ws
	c.closed = true
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close(websocket.StatusNormalClosure, "closing")
}

func (c *Conn) readLoop(conn *websocket.Conn, h irc.TransportHandler) {
	for {
		_, data, err := conn.Read(context.Background())
		if err != nil {
			c.mu.Lock()
			intentional := c.closed
			c.ws = nil
			c.mu.Unlock()

			serverInitiated := !intentional
			if serverInitiated {
				c.log.Warn().Err(err).Msg("websocket read failed")
			}
			h.TransportClosed(serverInitiated)
			return
		}

		for _, line := range strings.Split(string(data), "\n") {
			if line = strings.TrimSuffix(line, "\r"); line == "" {
				continue
			}
			h.TransportLine(line)
		}
	}
}
