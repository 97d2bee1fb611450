package otp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

type line struct {
	text string
	err  error
}

// PromptSource asks the operator for each code. An empty answer skips the
// attempt.
type PromptSource struct {
	in  *bufio.Reader
	out io.Writer
	// a read abandoned by a cancelled Next is picked up by the next call
	pending chan line
}

func NewPromptSource(in io.Reader, out io.Writer) *PromptSource {
	return &PromptSource{in: bufio.NewReader(in), out: out}
}

func (s *PromptSource) Next(ctx context.Context) (string, bool, error) {
	fmt.Fprint(s.out, "Enter the verification code (leave empty to skip): ")

	if s.pending == nil {
		ch := make(chan line, 1)
		s.pending = ch
		go func() {
			text, err := s.in.ReadString('\n')
			ch <- line{text: text, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		return "", false, ctx.Err()
	case l := <-s.pending:
		s.pending = nil
		code := strings.TrimSpace(l.text)
		if l.err != nil && code == "" {
			if errors.Is(l.err, io.EOF) {
				return "", false, ErrExhausted
			}
			return "", false, fmt.Errorf("failed to read code: %w", l.err)
		}
		return code, code != "", nil
	}
}

func (s *PromptSource) Clear(context.Context) error {
	return nil
}
