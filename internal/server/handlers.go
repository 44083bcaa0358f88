package server

import (
	"fmt"
	"io"

	"github.com/thruflo/captcha/internal/challenge"
	"github.com/thruflo/captcha/internal/eventlog"
	"github.com/thruflo/captcha/internal/protocol"
)

func (s *Server) sendStats(p *peer) error {
	return send(p, s.stats.Report())
}

// sendMathCaptcha runs one math exchange. An answer that cannot be read
// aborts the exchange without touching the counters.
func (s *Server) sendMathCaptcha(p *peer) error {
	conn, err := s.activeConn()
	if err != nil {
		return err
	}

	m := challenge.NewMath(s.source)
	if err := send(p, m.Prompt()); err != nil {
		return err
	}

	buf := make([]byte, challenge.MathBufferSize)
	n, err := conn.Read(buf)
	if n == 0 && err != nil {
		return fmt.Errorf("failed to read math answer: %w", err)
	}

	return s.conclude(p, "math", m.Verify(buf[:n]))
}

// sendEvenOddCaptcha runs one even/odd exchange. At least one byte per
// number must arrive; the optional terminator byte is not interpreted.
func (s *Server) sendEvenOddCaptcha(p *peer) error {
	conn, err := s.activeConn()
	if err != nil {
		return err
	}

	e := challenge.NewEvenOdd(s.source, s.evenOddSize)
	if err := send(p, e.Prompt()); err != nil {
		return err
	}

	buf := make([]byte, e.AnswerSize())
	n, err := io.ReadAtLeast(conn, buf, e.Len())
	if err != nil {
		return fmt.Errorf("failed to read even/odd answer: %w", err)
	}

	ok, mismatch := e.Verify(buf[:n])
	if !ok {
		p.log.Debug("even/odd mismatch", "position", mismatch)
	}
	return s.conclude(p, "even_odd", ok)
}

// conclude records the verdict, commits the stat file and replies.
func (s *Server) conclude(p *peer, kind string, ok bool) error {
	if ok {
		if err := s.stats.RecordSuccess(); err != nil {
			p.log.Warn("unable to write stat file", "path", s.stats.Path(), "error", err)
		}
		s.limiter.recordSuccess(p.host)
		p.log.Info("challenge passed", "kind", kind)
		return send(p, protocol.Success)
	}

	if err := s.stats.RecordFailure(); err != nil {
		p.log.Warn("unable to write stat file", "path", s.stats.Path(), "error", err)
	}
	if err := s.events.Append(eventlog.FailedAttempt); err != nil {
		p.log.Warn("unable to write to log file", "path", s.events.Path(), "error", err)
	}
	if blockedFor := s.limiter.recordFailure(p.host); blockedFor > 0 {
		p.log.Warn("host blocked after repeated failures", "remote", p.host, "block_time", blockedFor)
	}
	p.log.Info("challenge failed", "kind", kind)
	return send(p, protocol.Failed)
}

func send(p *peer, msg string) error {
	if _, err := io.WriteString(p.conn, msg); err != nil {
		return fmt.Errorf("failed to send to client: %w", err)
	}
	return nil
}
