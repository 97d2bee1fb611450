package classifier

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/browser"
)

// InvalidEmailShown reports whether the provider rejected the identity. Only
// meaningful right after the email step.
func InvalidEmailShown(ctx context.Context, s browser.Session) bool {
	return errorShown(ctx, s, invalidEmailPhrases)
}

func IncorrectPasswordShown(ctx context.Context, s browser.Session) bool {
	return errorShown(ctx, s, incorrectPasswordPhrases)
}

// PasskeyPromptShown is informational, nothing acts on it.
func PasskeyPromptShown(ctx context.Context, s browser.Session) bool {
	body, err := BodyText(ctx, s)
	if err != nil {
		return false
	}
	return containsAny(body, passkeyPhrases)
}

func errorShown(ctx context.Context, s browser.Session, phrases []string) bool {
	for _, sel := range alertSelectors {
		els, err := s.Find(ctx, sel)
		if err != nil {
			log.Debug().Err(err).Str("selector", sel).Msg("alert lookup failed")
			continue
		}
		for _, el := range els {
			text, err := el.Text(ctx)
			if err != nil {
				continue
			}
			if containsAny(strings.ToLower(text), phrases) {
				return true
			}
		}
	}

	body, err := BodyText(ctx, s)
	if err != nil {
		return false
	}
	return containsAny(body, phrases)
}
