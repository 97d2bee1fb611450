package otp

import (
	"context"
	"errors"
	"regexp"
)

// ErrExhausted means the source can never produce another code, for example
// the prompt's input was closed.
var ErrExhausted = errors.New("OTP source exhausted")

var codePattern = regexp.MustCompile(`^\d{6}$`)

// Valid reports whether code is exactly six decimal digits.
func Valid(code string) bool {
	return codePattern.MatchString(code)
}

//go:generate mockgen -source $GOFILE -destination source_mocks.go -package $GOPACKAGE

type Source interface {
	// Next returns the next code to try. ok is false when none is
	// available yet and the caller should poll again later.
	Next(ctx context.Context) (code string, ok bool, err error)
	// Clear discards the code last returned so it is never replayed.
	Clear(ctx context.Context) error
}
