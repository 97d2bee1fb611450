package cookiegen

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/classifier"
	"github.com/helixml/cookiegen/api/pkg/config"
)

type classifyOptions struct {
	url               string
	passwordSubmitted bool
}

func newClassifyCmd() *cobra.Command {
	var opts classifyOptions

	classifyCmd := &cobra.Command{
		Use:   "classify <file|url|->",
		Short: "Print the page state the login flow would see.",
		Long: "Classify a saved HTML page, or a live URL opened in the browser, " +
			"and print the state and the rule that produced it.",
		Example: "cookiegen classify signin.html --url https://www.amazon.in/ap/signin",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			session, err := openForClassify(cmd, &cfg, args[0], opts.url)
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()
			return classify(cmd, &cfg, session, opts)
		},
	}

	classifyCmd.Flags().StringVar(&opts.url, "url", "", "URL the saved page was captured from.")
	classifyCmd.Flags().BoolVar(&opts.passwordSubmitted, "password-submitted", false,
		"Classify as if a password had just been submitted.")

	return classifyCmd
}

func openForClassify(cmd *cobra.Command, cfg *config.Config, source, url string) (browser.Session, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		session, err := browser.Open(cmd.Context(), cfg.Browser)
		if err != nil {
			return nil, err
		}
		if err := session.Navigate(cmd.Context(), source); err != nil {
			_ = session.Close()
			return nil, err
		}
		return session, nil
	}

	var (
		html []byte
		err  error
	)
	if source == "-" {
		html, err = io.ReadAll(cmd.InOrStdin())
	} else {
		html, err = os.ReadFile(source)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}
	return browser.NewSnapshot(url, string(html))
}

func classify(cmd *cobra.Command, cfg *config.Config, session browser.Session, opts classifyOptions) error {
	ctx := cmd.Context()
	c := classifier.New(cfg.Target)
	state, rule := c.Explain(ctx, session, classifier.Context{PasswordSubmitted: opts.passwordSubmitted})
	if rule == "" {
		rule = "-"
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "state: %s\n", state)
	fmt.Fprintf(out, "rule:  %s\n", rule)

	probes := []struct {
		name  string
		shown func(context.Context, browser.Session) bool
	}{
		{"invalid_email", classifier.InvalidEmailShown},
		{"incorrect_password", classifier.IncorrectPasswordShown},
		{"passkey_prompt", classifier.PasskeyPromptShown},
	}
	for _, p := range probes {
		if p.shown(ctx, session) {
			fmt.Fprintf(out, "alert: %s\n", p.name)
		}
	}
	log.Debug().Str("state", state.String()).Str("rule", rule).Msg("classified page")
	return nil
}
