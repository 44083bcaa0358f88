package server

import (
	"errors"
	"io"
	"net"

	"github.com/google/uuid"
	"github.com/thruflo/captcha/internal/logging"
	"github.com/thruflo/captcha/internal/protocol"
)

// connState is the per-connection protocol state.
type connState int

const (
	stateAwaitingCommand connState = iota
	stateDisconnected
	stateShutdown
)

// peer is the client currently being served.
type peer struct {
	conn net.Conn
	host string
	log  *logging.Logger
}

// serveConn reads one command byte per turn until the client disconnects
// or asks for shutdown. The connection is closed on return.
func (s *Server) serveConn(conn net.Conn, host string) connState {
	p := &peer{
		conn: conn,
		host: host,
		log: s.logger.WithFields(map[string]interface{}{
			"conn":   uuid.NewString(),
			"remote": conn.RemoteAddr().String(),
		}),
	}
	defer s.closeConn()

	p.log.Info("client connected")

	state := stateAwaitingCommand
	for state == stateAwaitingCommand {
		state = s.dispatch(p)
	}

	if state == stateDisconnected {
		p.log.Info("client disconnected")
	}
	return state
}

// dispatch consumes exactly one command byte and runs its handler.
func (s *Server) dispatch(p *peer) connState {
	var buf [1]byte
	if _, err := io.ReadFull(p.conn, buf[:]); err != nil {
		if !errors.Is(err, io.EOF) && !s.isStopped() {
			p.log.Warn("failed to read command", "error", err)
		}
		return stateDisconnected
	}

	cmd := protocol.Command(buf[0])
	p.log.Debug("command received", "command", cmd.String())

	var err error
	switch cmd {
	case protocol.Stats:
		err = s.sendStats(p)
	case protocol.CaptchaMath:
		err = s.sendMathCaptcha(p)
	case protocol.CaptchaEvenOdd:
		err = s.sendEvenOddCaptcha(p)
	case protocol.Disconnect, 0:
		return stateDisconnected
	case protocol.ServerShutdown:
		return stateShutdown
	default:
		p.log.Error("invalid option code", "code", buf[0])
		return stateAwaitingCommand
	}

	if err != nil {
		if !s.isStopped() {
			p.log.Warn("exchange aborted", "command", cmd.String(), "error", err)
		}
		return stateDisconnected
	}
	return stateAwaitingCommand
}
