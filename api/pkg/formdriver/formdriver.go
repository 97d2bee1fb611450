package formdriver

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/classifier"
)

type Role string

const (
	RoleEmail    Role = "email"
	RolePassword Role = "password"
	RoleOtp      Role = "otp"
)

type candidates struct {
	fields  []string
	submits []string
}

// First match wins in both lists, order matters.
var roles = map[Role]candidates{
	RoleEmail: {
		fields: []string{`#ap_email`, `input[name="email"]`, `input[type="email"]`},
		submits: []string{
			`input#continue`,
			`button#continue`,
			`input[name="continue"]`,
		},
	},
	RolePassword: {
		fields: []string{`#ap_password`, `input[name="password"]`, `input[type="password"]`},
		submits: []string{
			`input#signInSubmit`,
			`button#signInSubmit`,
			`button[name="signIn"]`,
			`input[type="submit"]`,
		},
	},
	RoleOtp: {
		fields: []string{
			`#auth-mfa-otpcode`,
			`input[name="otpCode"]`,
			`input[name="code"]`,
			`input[type="tel"]`,
			`input[inputmode="numeric"]`,
			`input[placeholder*="code"]`,
			`input[placeholder*="otp"]`,
			`input[type="number"]`,
		},
		submits: []string{
			`#cvf-submit-otp-button span input`,
			`input.a-button-input[type="submit"]`,
			`button[type="submit"]`,
			`input[type="submit"]`,
		},
	},
}

// FillAndSubmit writes value into the first field found for role and then
// submits it, pressing Enter when no submit control exists. It returns
// whether the value was written. Submission is best effort and only logged.
// The page changes underneath the caller, who must classify again.
func FillAndSubmit(ctx context.Context, s browser.Session, role Role, value string) bool {
	c, ok := roles[role]
	if !ok {
		log.Error().Str("role", string(role)).Msg("unknown form role")
		return false
	}

	if role == RolePassword && classifier.PasskeyPromptShown(ctx, s) {
		log.Info().Msg("passkey prompt visible, continuing with password")
	}

	field, selector := first(ctx, s, c.fields)
	if field == nil {
		log.Warn().Str("role", string(role)).Msg("no input field found")
		return false
	}
	if err := field.SetValue(ctx, value); err != nil {
		log.Warn().Err(err).Str("role", string(role)).Str("selector", selector).Msg("failed to fill field")
		return false
	}
	log.Debug().Str("role", string(role)).Str("selector", selector).Msg("filled field")

	submit(ctx, s, role, c.submits)
	return true
}

func submit(ctx context.Context, s browser.Session, role Role, selectors []string) {
	button, selector := first(ctx, s, selectors)
	if button != nil {
		err := button.Click(ctx)
		if err == nil {
			log.Debug().Str("role", string(role)).Str("selector", selector).Msg("clicked submit")
			return
		}
		log.Warn().Err(err).Str("role", string(role)).Str("selector", selector).Msg("submit click failed, pressing enter")
	}

	if err := s.PressEnter(ctx); err != nil {
		log.Warn().Err(err).Str("role", string(role)).Msg("failed to submit form")
	}
}

func first(ctx context.Context, s browser.Session, selectors []string) (browser.Element, string) {
	for _, sel := range selectors {
		els, err := s.Find(ctx, sel)
		if err != nil {
			log.Debug().Err(err).Str("selector", sel).Msg("selector lookup failed")
			continue
		}
		if len(els) > 0 {
			return els[0], sel
		}
	}
	return nil, ""
}
