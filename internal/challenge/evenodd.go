package challenge

import (
	"strconv"
	"strings"
)

// Size is the number of entries in an even/odd challenge.
const Size = 10

// EvenOdd is a parity challenge. Mask[i] is Numbers[i] mod 2.
type EvenOdd struct {
	Numbers []uint8
	Mask    []uint8
}

// NewEvenOdd draws n numbers from src.
func NewEvenOdd(src Source, n int) EvenOdd {
	numbers := make([]uint8, n)
	for i := range numbers {
		numbers[i] = src.Uint8()
	}
	return EvenOddFrom(numbers)
}

// EvenOddFrom builds a challenge over fixed numbers.
func EvenOddFrom(numbers []uint8) EvenOdd {
	mask := make([]uint8, len(numbers))
	for i, n := range numbers {
		mask[i] = n % 2
	}
	return EvenOdd{Numbers: numbers, Mask: mask}
}

// Len returns the number of entries.
func (e EvenOdd) Len() int {
	return len(e.Numbers)
}

// AnswerSize is the number of bytes read back from the client: one digit
// per entry plus a terminator that is not interpreted.
func (e EvenOdd) AnswerSize() int {
	return len(e.Numbers) + 1
}

// Prompt renders the numbers with every entry followed by a comma.
func (e EvenOdd) Prompt() string {
	var sb strings.Builder
	for _, n := range e.Numbers {
		sb.WriteString(strconv.Itoa(int(n)))
		sb.WriteByte(',')
	}
	return sb.String()
}

// Verify checks answer position by position and stops at the first
// mismatch, whose index is returned. A fully matching answer returns -1.
// Missing bytes never match.
func (e EvenOdd) Verify(answer []byte) (bool, int) {
	for i, want := range e.Mask {
		if i >= len(answer) || int(answer[i])-'0' != int(want) {
			return false, i
		}
	}
	return true, -1
}
