package lineedit

import (
	"bufio"
	"io"
)

// MaxLineSize bounds a single piped line; long enough for large request
// bodies.
const MaxLineSize = 16 << 20

// Scanner reads lines from a non-interactive source such as a pipe or a
// script file. It shows no prompt and keeps no history.
type Scanner struct {
	scanner *bufio.Scanner
}

// NewScanner wraps r.
func NewScanner(r io.Reader) *Scanner {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), MaxLineSize)
	return &Scanner{scanner: sc}
}

// ReadLine returns the next line, or io.EOF once r is exhausted.
func (s *Scanner) ReadLine(string) (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Close is a no-op; it exists so Scanner and Editor share a shape.
func (s *Scanner) Close() error {
	return nil
}
