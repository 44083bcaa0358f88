package client

import (
	"context"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thruflo/captcha/internal/protocol"
)

// scriptedServer runs fn against the server end of an in-memory pipe.
func scriptedServer(t *testing.T, fn func(conn net.Conn)) *Client {
	t.Helper()

	serverConn, clientConn := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer serverConn.Close()
		fn(serverConn)
	}()
	t.Cleanup(func() {
		clientConn.Close()
		<-done
	})
	return New(clientConn)
}

func readCommand(t *testing.T, conn net.Conn) protocol.Command {
	var b [1]byte
	_, err := io.ReadFull(conn, b[:])
	if err != nil {
		t.Errorf("read command: %v", err)
	}
	return protocol.Command(b[0])
}

func TestClient_Stats(t *testing.T) {
	c := scriptedServer(t, func(conn net.Conn) {
		assert.Equal(t, protocol.Stats, readCommand(t, conn))
		// Split across writes; the client waits for both lines.
		io.WriteString(conn, "Success: 2\nFai")
		io.WriteString(conn, "led: 1\n")
	})

	report, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Success: 2\nFailed: 1\n", report)
}

func TestClient_MathExchange(t *testing.T) {
	c := scriptedServer(t, func(conn net.Conn) {
		assert.Equal(t, protocol.CaptchaMath, readCommand(t, conn))
		io.WriteString(conn, "3 + 4")

		buf := make([]byte, 10)
		n, _ := conn.Read(buf)
		assert.Equal(t, "7", string(buf[:n]))
		io.WriteString(conn, protocol.Success)
	})

	ctx := context.Background()
	prompt, err := c.Math(ctx)
	require.NoError(t, err)
	assert.Equal(t, "3 + 4", prompt)

	answer, err := SolveMath(prompt)
	require.NoError(t, err)
	ok, err := c.Answer(ctx, answer)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_EvenOddFailed(t *testing.T) {
	c := scriptedServer(t, func(conn net.Conn) {
		assert.Equal(t, protocol.CaptchaEvenOdd, readCommand(t, conn))
		io.WriteString(conn, "2,3,4,")

		buf := make([]byte, 4)
		n, _ := io.ReadFull(conn, buf)
		assert.Equal(t, "011\n", string(buf[:n]))
		io.WriteString(conn, protocol.Failed)
	})

	ctx := context.Background()
	prompt, err := c.EvenOdd(ctx)
	require.NoError(t, err)
	assert.Equal(t, "2,3,4,", prompt)

	ok, err := c.Answer(ctx, "011\n")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_UnexpectedVerdict(t *testing.T) {
	c := scriptedServer(t, func(conn net.Conn) {
		buf := make([]byte, 10)
		conn.Read(buf)
		io.WriteString(conn, "Maybe")
	})

	_, err := c.Answer(context.Background(), "7")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedReply)
}

func TestClient_VerdictReadIsBounded(t *testing.T) {
	c := scriptedServer(t, func(conn net.Conn) {
		buf := make([]byte, 10)
		conn.Read(buf)
		io.WriteString(conn, strings.Repeat("x", 2*protocol.ResultBufferSize))
	})

	_, err := c.Answer(context.Background(), "7")
	require.ErrorIs(t, err, ErrUnexpectedReply)
	assert.Contains(t, err.Error(), strconv.Quote(strings.Repeat("x", protocol.ResultBufferSize)))
	assert.NotContains(t, err.Error(), strings.Repeat("x", protocol.ResultBufferSize+1))
}

func TestClient_DisconnectAndShutdown(t *testing.T) {
	tests := []struct {
		name string
		call func(*Client) error
		want protocol.Command
	}{
		{"disconnect", func(c *Client) error { return c.Disconnect(context.Background()) }, protocol.Disconnect},
		{"shutdown", func(c *Client) error { return c.Shutdown(context.Background()) }, protocol.ServerShutdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := make(chan protocol.Command, 1)
			c := scriptedServer(t, func(conn net.Conn) {
				got <- readCommand(t, conn)
			})

			require.NoError(t, tt.call(c))
			assert.Equal(t, tt.want, <-got)
		})
	}
}

func TestClient_ReadAfterServerClosed(t *testing.T) {
	c := scriptedServer(t, func(conn net.Conn) {
		readCommand(t, conn)
	})

	_, err := c.Math(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read math prompt")
}
