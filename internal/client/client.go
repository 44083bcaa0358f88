// Package client talks to a captcha server over TCP.
//
// Replies carry no framing, so each call reads what the server wrote for
// that step of the exchange. Calls must follow the protocol order: request
// a challenge, then Answer it, before issuing the next command.
package client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/thruflo/captcha/internal/protocol"
)

// promptBufferSize bounds a challenge prompt read.
const promptBufferSize = 512

// ErrUnexpectedReply is returned when the server answers with something
// other than a verdict.
var ErrUnexpectedReply = errors.New("unexpected reply")

// Client is a connection to a captcha server.
type Client struct {
	conn net.Conn
}

// Dial connects to the server at addr.
func Dial(ctx context.Context, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	return New(conn), nil
}

// New wraps an established connection.
func New(conn net.Conn) *Client {
	return &Client{conn: conn}
}

// Close closes the connection without sending DISCONNECT.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Stats returns the server's "Success: N\nFailed: M\n" report.
func (c *Client) Stats(ctx context.Context) (string, error) {
	if err := c.command(ctx, protocol.Stats); err != nil {
		return "", err
	}

	// The report is complete once both lines have arrived.
	var report []byte
	buf := make([]byte, protocol.StatsBufferSize)
	for bytes.Count(report, []byte("\n")) < 2 {
		n, err := c.conn.Read(buf)
		report = append(report, buf[:n]...)
		if err != nil {
			return "", fmt.Errorf("failed to read stats: %w", err)
		}
		if len(report) > protocol.StatsBufferSize {
			return "", fmt.Errorf("%w: stats report too long", ErrUnexpectedReply)
		}
	}
	return string(report), nil
}

// Math requests a math challenge and returns its prompt, e.g. "3 + 4".
func (c *Client) Math(ctx context.Context) (string, error) {
	if err := c.command(ctx, protocol.CaptchaMath); err != nil {
		return "", err
	}
	return c.readOnce("math prompt", promptBufferSize)
}

// EvenOdd requests an even/odd challenge and returns its prompt, e.g. "2,3,4,".
func (c *Client) EvenOdd(ctx context.Context) (string, error) {
	if err := c.command(ctx, protocol.CaptchaEvenOdd); err != nil {
		return "", err
	}
	return c.readOnce("even/odd prompt", promptBufferSize)
}

// Answer sends the answer to the outstanding challenge and reports the
// verdict.
func (c *Client) Answer(ctx context.Context, answer string) (bool, error) {
	c.applyDeadline(ctx)
	if _, err := io.WriteString(c.conn, answer); err != nil {
		return false, fmt.Errorf("failed to send answer: %w", err)
	}

	reply, err := c.readOnce("verdict", protocol.ResultBufferSize)
	if err != nil {
		return false, err
	}
	switch reply {
	case protocol.Success:
		return true, nil
	case protocol.Failed:
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnexpectedReply, reply)
	}
}

// Disconnect ends the session and closes the connection.
func (c *Client) Disconnect(ctx context.Context) error {
	err := c.command(ctx, protocol.Disconnect)
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

// Shutdown stops the server and closes the connection.
func (c *Client) Shutdown(ctx context.Context) error {
	err := c.command(ctx, protocol.ServerShutdown)
	if cerr := c.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

func (c *Client) command(ctx context.Context, cmd protocol.Command) error {
	c.applyDeadline(ctx)
	if _, err := c.conn.Write([]byte{byte(cmd)}); err != nil {
		return fmt.Errorf("failed to send %s: %w", cmd, err)
	}
	return nil
}

func (c *Client) readOnce(what string, size int) (string, error) {
	buf := make([]byte, size)
	n, err := c.conn.Read(buf)
	if n == 0 && err != nil {
		return "", fmt.Errorf("failed to read %s: %w", what, err)
	}
	return string(buf[:n]), nil
}

// applyDeadline bounds the next reads and writes by ctx.
func (c *Client) applyDeadline(ctx context.Context) {
	// A context without deadline yields the zero time, which clears it.
	deadline, _ := ctx.Deadline()
	c.conn.SetDeadline(deadline)
}
