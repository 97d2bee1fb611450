package mfa

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/classifier"
	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/otp"
	"github.com/helixml/cookiegen/api/pkg/reporter"
	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

// detectAttempts bounds how long a page that is still loading after the
// password step may stay unclassified.
const detectAttempts = 3

var afterPassword = classifier.Context{PasswordSubmitted: true}

// Machine resolves one second-factor challenge. It is single use per
// challenge and never re-enters itself.
type Machine struct {
	classifier *classifier.Classifier
	reporter   reporter.Reporter
	source     otp.Source
	clock      system.Clock
	timing     config.Timing
	mode       types.OperatingMode
}

func New(
	c *classifier.Classifier,
	r reporter.Reporter,
	source otp.Source,
	clock system.Clock,
	timing config.Timing,
	mode types.OperatingMode,
) *Machine {
	return &Machine{
		classifier: c,
		reporter:   r,
		source:     source,
		clock:      clock,
		timing:     timing,
		mode:       mode,
	}
}

// Detect classifies the page reached after a password submission, giving a
// slow page a few polls to settle into something recognisable.
func (m *Machine) Detect(ctx context.Context, s browser.Session) types.PageState {
	state := m.classifier.Classify(ctx, s, afterPassword)
	for i := 1; i < detectAttempts && state.Kind == types.PageKindUnclassified; i++ {
		if err := m.clock.Sleep(ctx, m.timing.ChallengePoll); err != nil {
			return state
		}
		state = m.classifier.Classify(ctx, s, afterPassword)
	}
	return state
}

// Run drives the challenge shown on the page to completion. It returns nil
// only once the target page has been observed.
func (m *Machine) Run(ctx context.Context, s browser.Session, state types.PageState) error {
	log.Info().Str("method", string(state.Method)).Str("mode", m.mode.String()).Msg("second factor required")

	switch {
	case state.IsOtp():
		return m.runOtp(ctx, s)
	case state.IsPush():
		return m.runPush(ctx, s)
	default:
		return types.NewAuthError(types.AuthErrorUnknown2FAPage, string(state.Method))
	}
}

func (m *Machine) currentURL(ctx context.Context, s browser.Session) string {
	url, err := s.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return url
}

func (m *Machine) wait(ctx context.Context, d time.Duration) error {
	if err := m.clock.Sleep(ctx, d); err != nil {
		return types.GenericError("interrupted", err)
	}
	return nil
}
