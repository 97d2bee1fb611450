package otp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/pquerna/otp/totp"

	"github.com/helixml/cookiegen/api/pkg/system"
)

// TOTPSource generates codes from an authenticator secret. A code that was
// already handed out is never offered twice, so a rejected code means
// waiting for the next time step.
type TOTPSource struct {
	secret string
	clock  system.Clock

	mu   sync.Mutex
	last string
	used map[string]bool
}

func NewTOTPSource(secret string, clock system.Clock) *TOTPSource {
	return &TOTPSource{
		secret: strings.ToUpper(strings.ReplaceAll(secret, " ", "")),
		clock:  clock,
		used:   map[string]bool{},
	}
}

func (s *TOTPSource) Next(context.Context) (string, bool, error) {
	code, err := totp.GenerateCode(s.secret, s.clock.Now())
	if err != nil {
		return "", false, fmt.Errorf("failed to generate TOTP code: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.used[code] {
		return "", false, nil
	}
	s.last = code
	return code, true, nil
}

func (s *TOTPSource) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last != "" {
		s.used[s.last] = true
		s.last = ""
	}
	return nil
}
