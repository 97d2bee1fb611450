package mfa

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/types"
)

// runPush waits for the user to act on the push prompt. It is only entered
// from a classified push challenge, so falling back to the login form at any
// tick is read as a denial. Everything else is waited out until the timeout.
func (m *Machine) runPush(ctx context.Context, s browser.Session) error {
	deadline := m.clock.Now().Add(m.timing.PushTimeout)
	var last types.PageState

	for m.clock.Now().Before(deadline) {
		state := m.classifier.Classify(ctx, s, afterPassword)
		changed := state != last
		last = state

		poll := m.timing.TransitionPoll
		switch {
		case state.IsOnTarget():
			m.reporter.Report(ctx, types.StatusEvent{
				Message:    types.Ptr("Push notification approved, authentication successful"),
				CurrentURL: types.Ptr(m.currentURL(ctx, s)),
			})
			return nil
		case state.IsPush():
			poll = m.timing.PushPoll
			if changed {
				m.reporter.Report(ctx, types.StatusEvent{
					Method:       types.Ptr(types.MfaMethodPush),
					Message:      types.Ptr("Push notification sent. Approve it on your device to continue"),
					CurrentURL:   types.Ptr(m.currentURL(ctx, s)),
					ShowOtpModal: types.Ptr(false),
				})
			}
		case state.Kind == types.PageKindNeedsFullLogin:
			return types.NewAuthError(types.AuthErrorPushDenied, "returned to sign-in after push prompt")
		default:
			if changed {
				log.Debug().Str("state", state.String()).Msg("still waiting for push approval")
			}
		}

		if err := m.wait(ctx, poll); err != nil {
			return err
		}
	}

	return types.GenericError("timeout waiting for redirect", nil)
}
