package client

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseMath splits a "<a> + <b>" prompt into its operands.
func ParseMath(prompt string) (int, int, error) {
	left, right, ok := strings.Cut(prompt, " + ")
	if !ok {
		return 0, 0, fmt.Errorf("invalid math prompt %q", prompt)
	}
	a, err := strconv.Atoi(left)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid math prompt %q: %w", prompt, err)
	}
	b, err := strconv.Atoi(right)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid math prompt %q: %w", prompt, err)
	}
	return a, b, nil
}

// SolveMath returns the answer to a math prompt.
func SolveMath(prompt string) (string, error) {
	a, b, err := ParseMath(prompt)
	if err != nil {
		return "", err
	}
	return strconv.Itoa(a + b), nil
}

// ParseEvenOdd parses a comma-terminated list such as "2,3,4,".
func ParseEvenOdd(prompt string) ([]int, error) {
	body, ok := strings.CutSuffix(prompt, ",")
	if !ok || body == "" {
		return nil, fmt.Errorf("invalid even/odd prompt %q", prompt)
	}

	fields := strings.Split(body, ",")
	numbers := make([]int, len(fields))
	for i, f := range fields {
		n, err := strconv.Atoi(f)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid even/odd prompt %q: entry %d", prompt, i)
		}
		numbers[i] = n
	}
	return numbers, nil
}

// SolveEvenOdd returns one digit per number, '0' for even and '1' for odd,
// followed by the newline terminator the server reads along with them.
func SolveEvenOdd(prompt string) (string, error) {
	numbers, err := ParseEvenOdd(prompt)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, n := range numbers {
		sb.WriteByte(byte('0' + n%2))
	}
	sb.WriteByte('\n')
	return sb.String(), nil
}
