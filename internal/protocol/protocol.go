// Package protocol defines the captcha wire protocol: one command byte per
// turn from the client, plain text replies from the server, no framing.
package protocol

import "fmt"

// Command is a single-byte opcode sent by the client.
type Command byte

// Command codes. A zero byte is read as the peer going away.
const (
	Stats          Command = 0x01
	CaptchaMath    Command = 0x02
	CaptchaEvenOdd Command = 0x03
	Disconnect     Command = 0x04
	ServerShutdown Command = 0x05
)

// Fixed replies to a challenge answer.
const (
	Success = "Success"
	Failed  = "Failed"
)

// StatsBufferSize bounds the stats report; "Success: 4294967295\nFailed: 4294967295\n" fits.
const StatsBufferSize = 64

// ResultBufferSize bounds a challenge verdict.
const ResultBufferSize = 16

func (c Command) String() string {
	switch c {
	case Stats:
		return "stats"
	case CaptchaMath:
		return "captcha_math"
	case CaptchaEvenOdd:
		return "captcha_even_odd"
	case Disconnect:
		return "disconnect"
	case ServerShutdown:
		return "server_shutdown"
	default:
		return fmt.Sprintf("unknown(0x%02x)", byte(c))
	}
}
