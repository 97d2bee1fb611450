package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/types"
)

// Context carries what the caller knows about the flow so far. Some pages
// only mean something once a password has been submitted.
type Context struct {
	PasswordSubmitted bool
}

// Observation is everything the rules look at, read from the session once
// per classification.
type Observation struct {
	URL         string
	Body        string
	HasOtpInput bool
	HasEmail    bool
	HasPassword bool
}

type Rule struct {
	Name  string
	State types.PageState
	Match func(c *Classifier, o *Observation, cc Context) bool
}

// Rules are evaluated in order and the first match wins. An OTP input beats
// push text because it is a structural signal.
var Rules = []Rule{
	{
		Name:  "on_target",
		State: types.StateOnTarget,
		Match: func(c *Classifier, o *Observation, _ Context) bool {
			return c.onTarget(o.URL)
		},
	},
	{
		Name:  "otp_input",
		State: types.On2FA(types.MfaMethodOtp),
		Match: func(_ *Classifier, o *Observation, _ Context) bool {
			return o.HasOtpInput
		},
	},
	{
		Name:  "push_indicator",
		State: types.On2FA(types.MfaMethodPush),
		Match: func(_ *Classifier, o *Observation, _ Context) bool {
			return containsAny(o.URL, pushURLMarkers) || containsAny(o.Body, pushBodyPhrases)
		},
	},
	{
		Name:  "login_form",
		State: types.StateNeedsFullLogin,
		Match: func(_ *Classifier, o *Observation, _ Context) bool {
			return o.HasEmail || containsAny(o.URL, loginURLMarkers)
		},
	},
	{
		Name:  "reauth_form",
		State: types.StateNeedsReAuth,
		Match: func(_ *Classifier, o *Observation, _ Context) bool {
			return o.HasPassword || containsAny(o.URL, reAuthURLMarkers) || containsAny(o.Body, reAuthBodyPhrases)
		},
	},
	{
		Name:  "two_factor_hint",
		State: types.On2FA(types.MfaMethodUnknown),
		Match: func(c *Classifier, o *Observation, cc Context) bool {
			if !cc.PasswordSubmitted {
				return false
			}
			if containsAny(o.Body, twoFactorBodyPhrases) {
				return true
			}
			return c.onAuthPath(o.URL) && containsAny(strings.ToLower(o.URL), twoFactorURLMarkers)
		},
	},
	{
		Name:  "unknown_auth_page",
		State: types.StateUnknownAuthPage,
		Match: func(c *Classifier, o *Observation, cc Context) bool {
			return cc.PasswordSubmitted && c.onAuthPath(o.URL) && !c.onTarget(o.URL)
		},
	},
}

type Classifier struct {
	targetPrefix string
	authPrefix   string
}

func New(cfg config.Target) *Classifier {
	return &Classifier{
		targetPrefix: cfg.PathPrefix,
		authPrefix:   cfg.AuthPathPrefix,
	}
}

// Classify reads the session and maps it to a PageState. It never mutates the
// session and never fails: a read error yields Unclassified.
func (c *Classifier) Classify(ctx context.Context, s browser.Session, cc Context) types.PageState {
	state, _ := c.Explain(ctx, s, cc)
	return state
}

// Explain is Classify plus the name of the rule that matched, empty when
// none did.
func (c *Classifier) Explain(ctx context.Context, s browser.Session, cc Context) (types.PageState, string) {
	o, err := Observe(ctx, s)
	if err != nil {
		log.Debug().Err(err).Msg("page read failed, treating as unclassified")
		return types.StateUnclassified, ""
	}
	state, rule := c.Evaluate(o, cc)
	log.Debug().
		Str("url", o.URL).
		Str("state", state.String()).
		Str("rule", rule).
		Bool("password_submitted", cc.PasswordSubmitted).
		Msg("classified page")
	return state, rule
}

func (c *Classifier) Evaluate(o *Observation, cc Context) (types.PageState, string) {
	for _, r := range Rules {
		if r.Match(c, o, cc) {
			return r.State, r.Name
		}
	}
	return types.StateUnclassified, ""
}

// Observe reads the URL, the visible body text and the presence of each
// input family.
func Observe(ctx context.Context, s browser.Session) (*Observation, error) {
	url, err := s.CurrentURL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read URL: %w", err)
	}
	body, err := BodyText(ctx, s)
	if err != nil {
		return nil, err
	}
	o := &Observation{URL: url, Body: body}

	if o.HasOtpInput, err = anyPresent(ctx, s, otpInputSelectors); err != nil {
		return nil, err
	}
	if o.HasEmail, err = anyPresent(ctx, s, emailInputSelectors); err != nil {
		return nil, err
	}
	if o.HasPassword, err = anyPresent(ctx, s, passwordInputSelectors); err != nil {
		return nil, err
	}
	return o, nil
}

// BodyText is the lower-cased visible text of the document body.
func BodyText(ctx context.Context, s browser.Session) (string, error) {
	content, err := s.PageContent(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read page content: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse page content: %w", err)
	}
	doc.Find("script, style, noscript").Remove()
	return strings.ToLower(doc.Find("body").Text()), nil
}

func (c *Classifier) onTarget(url string) bool {
	return c.targetPrefix != "" && strings.Contains(url, c.targetPrefix)
}

func (c *Classifier) onAuthPath(url string) bool {
	return c.authPrefix != "" && strings.Contains(url, c.authPrefix)
}

func anyPresent(ctx context.Context, s browser.Session, selectors []string) (bool, error) {
	for _, sel := range selectors {
		els, err := s.Find(ctx, sel)
		if err != nil {
			return false, fmt.Errorf("failed to query %s: %w", sel, err)
		}
		if len(els) > 0 {
			return true, nil
		}
	}
	return false, nil
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
