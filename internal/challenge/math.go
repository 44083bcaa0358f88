package challenge

import (
	"fmt"
	"strconv"

	"github.com/thruflo/captcha/internal/numeric"
)

// MathBufferSize bounds both the rendered math prompt and the answer read
// back from the client. "255 + 255" is the longest prompt.
const MathBufferSize = 10

// Math is an addition challenge.
type Math struct {
	A uint8
	B uint8
}

// NewMath draws two operands from src.
func NewMath(src Source) Math {
	return Math{A: src.Uint8(), B: src.Uint8()}
}

// Sum returns the expected answer.
func (m Math) Sum() int {
	return int(m.A) + int(m.B)
}

// Prompt renders the challenge as sent on the wire.
func (m Math) Prompt() string {
	return fmt.Sprintf("%d + %d", m.A, m.B)
}

// Verify reports whether answer is the correct sum. One trailing line
// ending is tolerated; any other non-digit byte fails the challenge.
func (m Math) Verify(answer []byte) bool {
	if len(answer) > MathBufferSize {
		answer = answer[:MathBufferSize]
	}
	s := numeric.TrimNewline(string(answer))
	if !numeric.Valid(s) {
		return false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return false
	}
	return n == m.Sum()
}
