package cookiegen

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/helixml/cookiegen/api/pkg/auth"
	"github.com/helixml/cookiegen/api/pkg/browser"
	"github.com/helixml/cookiegen/api/pkg/classifier"
	"github.com/helixml/cookiegen/api/pkg/client"
	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/cookies"
	"github.com/helixml/cookiegen/api/pkg/mfa"
	"github.com/helixml/cookiegen/api/pkg/otp"
	"github.com/helixml/cookiegen/api/pkg/reporter"
	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

type runOptions struct {
	targetURL   string
	cookiesPath string
	headful     bool
	totpSecret  string
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Log in and write the session cookies.",
		Long: "Log in to the target with a real browser and write the session cookies.\n\n" +
			"Without REQUEST_ID the run is attended: OTPs are read from stdin. " +
			"With REQUEST_ID it reports to and takes OTPs from the controller.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)
			return acquire(cmd, &cfg, openRodSession)
		},
	}

	runCmd.Flags().StringVar(&opts.targetURL, "target-url", "", "Overrides TARGET_URL.")
	runCmd.Flags().StringVar(&opts.cookiesPath, "cookies-path", "", "Overrides COOKIES_PATH.")
	runCmd.Flags().BoolVar(&opts.headful, "headful", false, "Show the browser window.")
	runCmd.Flags().StringVar(&opts.totpSecret, "totp-secret", "", "Overrides OTP_TOTP_SECRET.")

	runCmd.Long += "\n\nEnvironment Variables:\n\n" + generateEnvHelpText(config.Config{}, "")

	return runCmd
}

func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("target-url") {
		cfg.Target.URL = o.targetURL
	}
	if flags.Changed("cookies-path") {
		cfg.Cookies.Path = o.cookiesPath
	}
	if flags.Changed("headful") {
		cfg.Browser.Headless = !o.headful
	}
	if flags.Changed("totp-secret") {
		cfg.OTP.TOTPSecret = o.totpSecret
	}
}

// sessionOpener starts the browser a run drives.
type sessionOpener func(ctx context.Context, cfg config.Browser) (browser.Session, error)

func openRodSession(ctx context.Context, cfg config.Browser) (browser.Session, error) {
	session, err := browser.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return session, nil
}

func acquire(cmd *cobra.Command, cfg *config.Config, open sessionOpener) error {
	if err := cfg.ValidateRun(); err != nil {
		return err
	}

	// SIGTERM is how the controller cancels a run
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mode := cfg.Mode()
	clock := system.NewClock()
	controllerClient := client.NewClient(cfg.Controller.URL, cfg.Controller.RetryMax, cfg.Controller.RequestTimeout)
	rep := reporter.New(mode, controllerClient)

	log.Info().
		Str("mode", mode.String()).
		Str("target", cfg.Target.URL).
		Str("email", cfg.Credentials.Email).
		Str("password", system.MaskSecret(cfg.Credentials.Password)).
		Msg("starting cookie acquisition")

	session, err := open(ctx, cfg.Browser)
	if err != nil {
		authErr := types.GenericError("failed to start browser", err)
		rep.Report(context.WithoutCancel(ctx), types.StatusForError(authErr, ""))
		return authErr
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close browser")
		}
	}()

	cl := classifier.New(cfg.Target)
	source := newOtpSource(cmd, cfg, mode, controllerClient, clock)
	machine := mfa.New(cl, rep, source, clock, cfg.Timing, mode)
	sink := cookies.NewSink(cfg.Cookies.Path)

	orchestrator := auth.New(cfg, cl, machine, rep, sink, clock)
	if err := orchestrator.Run(ctx, session); err != nil {
		if errors.Is(err, types.ErrGeneric) && ctx.Err() != nil {
			log.Warn().Msg("cookie acquisition cancelled")
		}
		return err
	}

	log.Info().Str("path", sink.Path()).Msg("cookie acquisition complete")
	return nil
}

// newOtpSource prefers a configured authenticator secret, then the operator
// at the terminal, then the controller.
func newOtpSource(cmd *cobra.Command, cfg *config.Config, mode types.OperatingMode, c client.Client, clock system.Clock) otp.Source {
	switch {
	case cfg.OTP.TOTPSecret != "":
		log.Info().Msg("OTPs will be generated from the configured TOTP secret")
		return otp.NewTOTPSource(cfg.OTP.TOTPSecret, clock)
	case mode.IsAttended():
		return otp.NewPromptSource(cmd.InOrStdin(), cmd.ErrOrStderr())
	default:
		return otp.NewControllerSource(c, mode.RunID)
	}
}
