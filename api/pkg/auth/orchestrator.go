package auth

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/classifier"
	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/formdriver"
	"github.com/helixml/cookiegen/api/pkg/mfa"
	"github.com/helixml/cookiegen/api/pkg/reporter"
	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

// terminalReportTimeout bounds the final status update, which is sent even
// when the run context has been cancelled.
const terminalReportTimeout = 5 * time.Second

type CookieSink interface {
	Write(records []types.CookieRecord) error
}

type Orchestrator struct {
	target      config.Target
	credentials config.Credentials
	timing      config.Timing
	classifier  *classifier.Classifier
	mfa         *mfa.Machine
	reporter    reporter.Reporter
	sink        CookieSink
	clock       system.Clock
}

func New(
	cfg *config.Config,
	c *classifier.Classifier,
	m *mfa.Machine,
	r reporter.Reporter,
	sink CookieSink,
	clock system.Clock,
) *Orchestrator {
	return &Orchestrator{
		target:      cfg.Target,
		credentials: cfg.Credentials,
		timing:      cfg.Timing,
		classifier:  c,
		mfa:         m,
		reporter:    r,
		sink:        sink,
		clock:       clock,
	}
}

// Run authenticates the session against the target and saves its cookies.
// Any failure comes back as a *types.AuthError and has been reported exactly
// once. The caller owns the session and closes it.
func (o *Orchestrator) Run(ctx context.Context, s browser.Session) error {
	err := o.run(ctx, s)
	if err == nil {
		return nil
	}

	authErr := types.AsAuthError(err)
	reportCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), terminalReportTimeout)
	defer cancel()
	o.reporter.Report(reportCtx, types.StatusForError(authErr, o.currentURL(reportCtx, s)))
	return authErr
}

func (o *Orchestrator) run(ctx context.Context, s browser.Session) error {
	state, err := o.openTarget(ctx, s)
	if err != nil {
		return err
	}

	onTarget := state.IsOnTarget()
	switch state.Kind {
	case types.PageKindOnTarget:
		o.reporter.Report(ctx, types.StatusMessage("Already signed in"))
	case types.PageKindNeedsFullLogin:
		onTarget, err = o.fullAuth(ctx, s)
	case types.PageKindNeedsReAuth:
		onTarget, err = o.reAuthWithFallback(ctx, s)
	default:
		log.Info().Str("state", state.String()).Msg("unrecognised start page, attempting full sign-in")
		onTarget, err = o.fullAuth(ctx, s)
	}
	if err != nil {
		return err
	}

	if !onTarget {
		log.Info().Msg("not on target after sign-in, navigating once more")
		state, err = o.openTarget(ctx, s)
		if err != nil {
			return err
		}
		if !state.IsOnTarget() {
			return types.GenericError("target not reachable after authentication: "+state.String(), nil)
		}
	}

	return o.saveCookies(ctx, s)
}

func (o *Orchestrator) openTarget(ctx context.Context, s browser.Session) (types.PageState, error) {
	o.reporter.Report(ctx, types.StatusMessage("Opening target page"))
	if err := s.Navigate(ctx, o.target.URL); err != nil {
		return types.StateUnclassified, types.GenericError("navigation failed", err)
	}
	if err := o.wait(ctx, o.timing.NavigationSettle); err != nil {
		return types.StateUnclassified, err
	}
	return o.classifier.Classify(ctx, s, classifier.Context{}), nil
}

func (o *Orchestrator) reAuthWithFallback(ctx context.Context, s browser.Session) (bool, error) {
	onTarget, err := o.reAuth(ctx, s)
	if err != nil {
		authErr := types.AsAuthError(err)
		if !authErr.Retriable() || ctx.Err() != nil {
			return false, authErr
		}
		log.Warn().Err(err).Msg("re-authentication failed, falling back to full sign-in")
	} else if onTarget {
		return true, nil
	} else {
		log.Info().Msg("re-authentication did not reach the target, falling back to full sign-in")
	}

	state, err := o.openTarget(ctx, s)
	if err != nil {
		return false, err
	}
	if state.IsOnTarget() {
		return true, nil
	}
	return o.fullAuth(ctx, s)
}

func (o *Orchestrator) fullAuth(ctx context.Context, s browser.Session) (bool, error) {
	o.reporter.Report(ctx, types.StatusMessage("Signing in"))

	if formdriver.FillAndSubmit(ctx, s, formdriver.RoleEmail, o.credentials.Email) {
		if err := o.wait(ctx, o.timing.EmailSettle); err != nil {
			return false, err
		}
		if classifier.InvalidEmailShown(ctx, s) {
			return false, types.NewAuthError(types.AuthErrorInvalidEmail, "")
		}
	} else {
		// the provider may remember the account and open on the password step
		log.Info().Str("url", o.currentURL(ctx, s)).Msg("email field not found, checking for the password step")
	}
	// some accounts skip the password step
	if o.classifier.Classify(ctx, s, classifier.Context{}).IsOnTarget() {
		return true, nil
	}

	if !formdriver.FillAndSubmit(ctx, s, formdriver.RolePassword, o.credentials.Password) {
		return false, types.GenericError("password field not found", nil)
	}
	if err := o.wait(ctx, o.timing.PasswordSettle); err != nil {
		return false, err
	}

	if classifier.InvalidEmailShown(ctx, s) {
		return false, types.NewAuthError(types.AuthErrorInvalidEmail, "")
	}
	return o.afterPassword(ctx, s)
}

// reAuth is the optimistic fast path for a session that only needs the
// password again. false without an error means the outcome was ambiguous.
func (o *Orchestrator) reAuth(ctx context.Context, s browser.Session) (bool, error) {
	o.reporter.Report(ctx, types.StatusMessage("Re-authentication required"))

	if !formdriver.FillAndSubmit(ctx, s, formdriver.RolePassword, o.credentials.Password) {
		log.Warn().Msg("no password field on re-authentication page")
		return false, nil
	}
	if err := o.wait(ctx, o.timing.ReAuthSettle); err != nil {
		return false, err
	}
	return o.afterPassword(ctx, s)
}

func (o *Orchestrator) afterPassword(ctx context.Context, s browser.Session) (bool, error) {
	if classifier.IncorrectPasswordShown(ctx, s) {
		return false, types.NewAuthError(types.AuthErrorIncorrectPassword, "")
	}

	state := o.mfa.Detect(ctx, s)
	switch {
	case state.IsOnTarget():
		return true, nil
	case state.Is2FA() && state.Method != types.MfaMethodUnknown:
		if err := o.mfa.Run(ctx, s, state); err != nil {
			return false, err
		}
		return true, nil
	case state.Is2FA(), state.Kind == types.PageKindUnknownAuthPage:
		o.reporter.Report(ctx, types.StatusEvent{
			Method:     types.Ptr(types.MfaMethodUnknown),
			Message:    types.Ptr("Two-factor authentication required: " + string(types.MfaMethodUnknown)),
			CurrentURL: types.Ptr(o.currentURL(ctx, s)),
		})
		return false, types.NewAuthError(types.AuthErrorUnknown2FAPage, o.currentURL(ctx, s))
	}

	log.Debug().Str("state", state.String()).Msg("no challenge after password")
	return false, nil
}

func (o *Orchestrator) saveCookies(ctx context.Context, s browser.Session) error {
	records, err := s.Cookies(ctx)
	if err != nil {
		return types.GenericError("failed to read cookies", err)
	}
	if err := o.sink.Write(records); err != nil {
		return types.GenericError("failed to save cookies", err)
	}
	o.reporter.Report(ctx, types.StatusEvent{
		Message:    types.Ptr("Authentication successful, cookies saved"),
		CurrentURL: types.Ptr(o.currentURL(ctx, s)),
	})
	return nil
}

func (o *Orchestrator) currentURL(ctx context.Context, s browser.Session) string {
	url, err := s.CurrentURL(ctx)
	if err != nil {
		return ""
	}
	return url
}

func (o *Orchestrator) wait(ctx context.Context, d time.Duration) error {
	if err := o.clock.Sleep(ctx, d); err != nil {
		return types.GenericError("interrupted", err)
	}
	return nil
}
