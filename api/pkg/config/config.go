package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/helixml/cookiegen/api/pkg/types"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Target      Target
	Credentials Credentials
	Browser     Browser
	Controller  Controller
	OTP         OTP
	Timing      Timing
	Cookies     Cookies
	Server      Server
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Mode derives the operating mode from the run id. Nothing else in the
// process looks at REQUEST_ID.
func (c *Config) Mode() types.OperatingMode {
	if c.Controller.RunID == "" {
		return types.Attended()
	}
	return types.Unattended(c.Controller.RunID)
}

// ValidateRun checks the settings the `run` command cannot work without.
func (c *Config) ValidateRun() error {
	if c.Credentials.Email == "" || c.Credentials.Password == "" {
		return fmt.Errorf("AMAZON_EMAIL and AMAZON_PASSWORD must be set")
	}
	if _, err := url.ParseRequestURI(c.Target.URL); err != nil {
		return fmt.Errorf("invalid TARGET_URL %q: %w", c.Target.URL, err)
	}
	if c.Target.PathPrefix == "" {
		return fmt.Errorf("TARGET_PATH_PREFIX must not be empty")
	}
	if c.Timing.OtpAttempts <= 0 || c.Timing.OtpAttemptsAttended <= 0 {
		return fmt.Errorf("OTP attempt budgets must be positive")
	}
	return nil
}

type Target struct {
	URL            string `envconfig:"TARGET_URL" default:"https://www.amazon.in/alexa-privacy/apd/rvh" description:"The authenticated page whose reachability defines a successful login."`
	PathPrefix     string `envconfig:"TARGET_PATH_PREFIX" default:"/alexa-privacy/apd/" description:"URL path prefix identifying the target resource."`
	AuthPathPrefix string `envconfig:"AUTH_PATH_PREFIX" default:"/ap/" description:"URL path prefix of the identity provider's auth pages."`
}

type Credentials struct {
	Email    string `envconfig:"AMAZON_EMAIL" description:"Account email or phone."`
	Password string `envconfig:"AMAZON_PASSWORD" description:"Account password."`
}

type Browser struct {
	Headless   bool   `envconfig:"HEADLESS" default:"true"`
	Bin        string `envconfig:"BROWSER_BIN" description:"Chrome binary, downloaded by the launcher when empty."`
	ControlURL string `envconfig:"BROWSER_CONTROL_URL" description:"DevTools URL of an already running browser. Skips the launcher."`
	Incognito  bool   `envconfig:"BROWSER_INCOGNITO" default:"true"`
	WindowSize string `envconfig:"BROWSER_WINDOW_SIZE" default:"1920,1080"`
	// Passkey prompts stall headless logins, so WebAuthn is stubbed out on every new document
	BlockWebAuthn   bool          `envconfig:"BROWSER_BLOCK_WEBAUTHN" default:"true"`
	ConnectAttempts uint          `envconfig:"BROWSER_CONNECT_ATTEMPTS" default:"3"`
	PageTimeout     time.Duration `envconfig:"BROWSER_PAGE_TIMEOUT" default:"30s" description:"Upper bound for a single navigation."`
}

type Controller struct {
	URL            string        `envconfig:"CONTROLLER_URL" default:"http://localhost:5000" description:"Base URL of the controller receiving status updates and serving OTPs."`
	RunID          string        `envconfig:"REQUEST_ID" description:"Run identifier. Unset means attended mode."`
	RequestTimeout time.Duration `envconfig:"CONTROLLER_REQUEST_TIMEOUT" default:"5s"`
	RetryMax       int           `envconfig:"CONTROLLER_RETRY_MAX" default:"1"`
}

type OTP struct {
	TOTPSecret string `envconfig:"OTP_TOTP_SECRET" description:"Base32 authenticator secret. When set, codes are generated instead of requested."`
}

type Timing struct {
	NavigationSettle    time.Duration `envconfig:"TIMING_NAVIGATION_SETTLE" default:"5s"`
	EmailSettle         time.Duration `envconfig:"TIMING_EMAIL_SETTLE" default:"2s"`
	PasswordSettle      time.Duration `envconfig:"TIMING_PASSWORD_SETTLE" default:"3s"`
	ReAuthSettle        time.Duration `envconfig:"TIMING_REAUTH_SETTLE" default:"2s"`
	OtpSettle           time.Duration `envconfig:"TIMING_OTP_SETTLE" default:"5s"`
	OtpPoll             time.Duration `envconfig:"TIMING_OTP_POLL" default:"2s"`
	OtpTransition       time.Duration `envconfig:"TIMING_OTP_TRANSITION" default:"5s"`
	OtpBudget           time.Duration `envconfig:"TIMING_OTP_BUDGET" default:"10m"`
	OtpAttempts         int           `envconfig:"OTP_MAX_ATTEMPTS" default:"4"`
	OtpAttemptsAttended int           `envconfig:"OTP_MAX_ATTEMPTS_ATTENDED" default:"10"`
	PushTimeout         time.Duration `envconfig:"TIMING_PUSH_TIMEOUT" default:"180s"`
	PushPoll            time.Duration `envconfig:"TIMING_PUSH_POLL" default:"5s"`
	ChallengePoll       time.Duration `envconfig:"TIMING_CHALLENGE_POLL" default:"3s"`
	TransitionPoll      time.Duration `envconfig:"TIMING_TRANSITION_POLL" default:"2s"`
}

type Cookies struct {
	Path string `envconfig:"COOKIES_PATH" default:"backend/cookies.json" description:"Where the cookie set is written on success."`
}

type Server struct {
	ListenAddr string `envconfig:"SERVER_LISTEN_ADDR" default:":5000"`
	// RunnerBin is the executable started for each run, the current binary when empty
	RunnerBin     string        `envconfig:"SERVER_RUNNER_BIN"`
	MaxOtpRetries int           `envconfig:"SERVER_MAX_OTP_RETRIES" default:"3"`
	RunRetention  time.Duration `envconfig:"SERVER_RUN_RETENTION" default:"1h"`
}
