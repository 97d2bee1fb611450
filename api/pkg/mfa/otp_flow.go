package mfa

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/formdriver"
	"github.com/helixml/cookiegen/api/pkg/otp"
	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

const malformedOtpMessage = "The code must be exactly 6 digits."

var errOtpBudget = errors.New("OTP budget spent waiting for a code")

// errMalformedOtp is returned for codes rejected before reaching the page
var errMalformedOtp = types.NewAuthError(types.AuthErrorInvalidOtp, "malformed code")

func (m *Machine) maxOtpAttempts() int {
	if m.mode.IsAttended() {
		return m.timing.OtpAttemptsAttended
	}
	return m.timing.OtpAttempts
}

func (m *Machine) runOtp(ctx context.Context, s browser.Session) error {
	m.reporter.Report(ctx, types.StatusEvent{
		Method:       types.Ptr(types.MfaMethodOtp),
		Message:      types.Ptr("2FA required: enter the OTP sent to your phone"),
		CurrentURL:   types.Ptr(m.currentURL(ctx, s)),
		ShowOtpModal: types.Ptr(true),
	})

	maxAttempts := m.maxOtpAttempts()
	deadline := m.clock.Now().Add(m.timing.OtpBudget)
	attempts := 0

	for {
		if !m.clock.Now().Before(deadline) {
			return types.GenericError("timed out waiting for a valid OTP", nil)
		}
		if err := m.wait(ctx, m.timing.OtpPoll); err != nil {
			return err
		}

		state := m.classifier.Classify(ctx, s, afterPassword)
		switch {
		case state.IsOnTarget():
			m.otpSucceeded(ctx, s)
			return nil
		case state.Kind == types.PageKindUnclassified:
			// left the challenge, possibly mid redirect
			if err := m.wait(ctx, m.timing.OtpTransition); err != nil {
				return err
			}
			if m.classifier.Classify(ctx, s, afterPassword).IsOnTarget() {
				m.otpSucceeded(ctx, s)
				return nil
			}
			continue
		case !state.IsOtp():
			log.Debug().Str("state", state.String()).Msg("not on the OTP challenge, waiting")
			continue
		}

		code, ok, err := m.nextOtp(ctx, deadline)
		if err != nil {
			if errors.Is(err, otp.ErrExhausted) || ctx.Err() != nil {
				return types.GenericError("no OTP available", err)
			}
			if errors.Is(err, errOtpBudget) {
				return types.GenericError("timed out waiting for a valid OTP", nil)
			}
			log.Warn().Err(err).Msg("failed to fetch OTP, will retry")
			continue
		}
		if !ok {
			continue
		}

		// the page may have moved on while the code was awaited
		state = m.classifier.Classify(ctx, s, afterPassword)
		if state.IsOnTarget() {
			m.otpSucceeded(ctx, s)
			return nil
		}
		if !state.IsOtp() {
			log.Info().Str("state", state.String()).Msg("OTP challenge gone before the code arrived, not submitting")
			continue
		}

		attempts++
		log.Info().
			Str("otp", system.MaskSecret(code)).
			Int("attempt", attempts).
			Int("max_attempts", maxAttempts).
			Str("remaining", humanize.RelTime(m.clock.Now(), deadline, "left", "over")).
			Msg("submitting OTP")

		success, err := m.SubmitOtp(ctx, s, code)
		m.clearOtp(ctx)

		var authErr *types.AuthError
		switch {
		case errors.As(err, &authErr) && authErr.Kind == types.AuthErrorInvalidOtp:
			m.reportInvalidOtp(ctx, s, authErr)
		case err != nil:
			return err
		case success:
			m.otpSucceeded(ctx, s)
			return nil
		}

		if attempts >= maxAttempts {
			return types.GenericError(fmt.Sprintf("max attempts (%d) reached", maxAttempts), nil)
		}
	}
}

// nextOtp bounds the source by what is left of the OTP budget.
func (m *Machine) nextOtp(ctx context.Context, deadline time.Time) (string, bool, error) {
	bounded, cancel := context.WithTimeout(ctx, deadline.Sub(m.clock.Now()))
	defer cancel()

	code, ok, err := m.source.Next(bounded)
	if err != nil && ctx.Err() == nil && bounded.Err() != nil {
		return "", false, errOtpBudget
	}
	return code, ok, err
}

// SubmitOtp enters a single code and judges the outcome. It returns true
// once the target is reached, InvalidOtp when the provider shows the
// challenge again, and false for anything in between.
func (m *Machine) SubmitOtp(ctx context.Context, s browser.Session, code string) (bool, error) {
	if !otp.Valid(code) {
		return false, errMalformedOtp
	}

	before := m.currentURL(ctx, s)
	if !formdriver.FillAndSubmit(ctx, s, formdriver.RoleOtp, code) {
		log.Warn().Str("url", before).Msg("OTP field disappeared before the code could be entered")
		return false, nil
	}
	if err := m.wait(ctx, m.timing.OtpSettle); err != nil {
		return false, err
	}

	state := m.classifier.Classify(ctx, s, afterPassword)
	switch {
	case state.IsOnTarget():
		return true, nil
	case state.IsOtp():
		return false, types.NewAuthError(types.AuthErrorInvalidOtp, "challenge shown again")
	}

	after := m.currentURL(ctx, s)
	log.Debug().Str("before", before).Str("after", after).Str("state", state.String()).Msg("OTP submitted, page in transition")
	m.reporter.Report(ctx, types.StatusEvent{
		Message:    types.Ptr("OTP submitted, waiting for verification"),
		CurrentURL: types.Ptr(after),
	})
	return false, nil
}

func (m *Machine) reportInvalidOtp(ctx context.Context, s browser.Session, err *types.AuthError) {
	event := types.StatusForError(err, m.currentURL(ctx, s))
	if err == errMalformedOtp {
		event.OtpError = types.Ptr(malformedOtpMessage)
	}
	m.reporter.Report(ctx, event)
}

func (m *Machine) clearOtp(ctx context.Context) {
	if err := m.source.Clear(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to clear OTP")
	}
}

func (m *Machine) otpSucceeded(ctx context.Context, s browser.Session) {
	m.reporter.Report(ctx, types.StatusEvent{
		Message:      types.Ptr("OTP verification successful"),
		CurrentURL:   types.Ptr(m.currentURL(ctx, s)),
		ShowOtpModal: types.Ptr(false),
	})
}
