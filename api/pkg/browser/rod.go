package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/types"
)

const elementActionTimeout = 10 * time.Second

var launchFlags = []flags.Flag{
	"no-sandbox",
	"disable-dev-shm-usage",
	"disable-gpu",
	"disable-background-timer-throttling",
	"disable-backgrounding-occluded-windows",
	"disable-renderer-backgrounding",
	"disable-ipc-flooding-protection",
	"no-default-browser-check",
	"no-first-run",
	"disable-default-apps",
	"disable-translate",
	"disable-extensions",
}

// RodSession is a Session backed by a single Chrome tab driven over CDP.
type RodSession struct {
	cfg      config.Browser
	launcher *launcher.Launcher
	browser  *rod.Browser
	// incognito is the private context the tab lives in, if any
	incognito *rod.Browser
	page      *rod.Page
}

// Open starts (or connects to) a browser and opens the one tab the run will
// use. The caller owns the returned session and must Close it.
func Open(ctx context.Context, cfg config.Browser) (*RodSession, error) {
	s := &RodSession{cfg: cfg}

	controlURL, err := s.controlURL()
	if err != nil {
		return nil, err
	}

	err = retry.Do(func() error {
		browser := rod.New().Context(ctx).ControlURL(controlURL)
		if err := browser.Connect(); err != nil {
			return fmt.Errorf("error connecting to browser: %w", err)
		}
		s.browser = browser
		return nil
	},
		retry.Attempts(max(cfg.ConnectAttempts, 1)),
		retry.Delay(time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warn().Err(err).Uint("retry_number", n).Msg("retrying browser connect")
		}),
	)
	if err != nil {
		s.Close()
		return nil, err
	}

	browser := s.browser
	if cfg.Incognito {
		browser, err = s.browser.Incognito()
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("error creating incognito context: %w", err)
		}
		s.incognito = browser
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("error creating page: %w", err)
	}
	s.page = page

	if cfg.BlockWebAuthn {
		if _, err := page.EvalOnNewDocument(blockWebAuthnScript); err != nil {
			log.Warn().Err(err).Msg("failed to install WebAuthn stub, passkey prompts may appear")
		}
	}

	return s, nil
}

func (s *RodSession) controlURL() (string, error) {
	if s.cfg.ControlURL != "" {
		u, err := launcher.ResolveURL(s.cfg.ControlURL)
		if err != nil {
			return "", fmt.Errorf("error resolving browser control URL (%s): %w", s.cfg.ControlURL, err)
		}
		log.Info().Str("control_url", u).Msg("connecting to running browser")
		return u, nil
	}

	l := launcher.New().
		Headless(s.cfg.Headless).
		Set("window-size", s.cfg.WindowSize)
	for _, f := range launchFlags {
		l = l.Set(f)
	}
	if s.cfg.Bin != "" {
		l = l.Bin(s.cfg.Bin)
	}
	s.launcher = l

	u, err := l.Launch()
	if err != nil {
		return "", fmt.Errorf("error launching browser: %w", err)
	}
	log.Info().Bool("headless", s.cfg.Headless).Msg("browser launched")
	return u, nil
}

func (s *RodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx).Timeout(s.cfg.PageTimeout)
	if err := page.Navigate(url); err != nil {
		return fmt.Errorf("error navigating to %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("error waiting for %s to load: %w", url, err)
	}
	return nil
}

func (s *RodSession) CurrentURL(ctx context.Context) (string, error) {
	info, err := s.page.Context(ctx).Info()
	if err != nil {
		return "", err
	}
	return info.URL, nil
}

func (s *RodSession) PageContent(ctx context.Context) (string, error) {
	return s.page.Context(ctx).HTML()
}

func (s *RodSession) Find(ctx context.Context, selector string) ([]Element, error) {
	els, err := s.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	result := make([]Element, 0, len(els))
	for _, el := range els {
		result = append(result, &rodElement{el: el})
	}
	return result, nil
}

func (s *RodSession) PressEnter(ctx context.Context) error {
	return s.page.Context(ctx).Keyboard.Press(input.Enter)
}

func (s *RodSession) Cookies(ctx context.Context) ([]types.CookieRecord, error) {
	cookies, err := s.page.Context(ctx).Cookies(nil)
	if err != nil {
		return nil, err
	}
	return convertCookies(cookies), nil
}

// Close tears down the tab, the browser and, when we launched it, the
// process. Safe to call more than once. The run context is usually cancelled
// by now, so teardown runs on a fresh one.
func (s *RodSession) Close() error {
	ctx := context.Background()

	var err error
	if s.page != nil {
		if closeErr := s.page.Context(ctx).Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("failed to close tab")
		}
		s.page = nil
	}
	if s.incognito != nil {
		if closeErr := s.incognito.Context(ctx).Close(); closeErr != nil {
			log.Debug().Err(closeErr).Msg("failed to dispose incognito context")
		}
		s.incognito = nil
	}
	if s.browser != nil {
		err = s.browser.Context(ctx).Close()
		s.browser = nil
	}
	if s.launcher != nil {
		s.launcher.Kill()
		s.launcher.Cleanup()
		s.launcher = nil
	}
	return err
}

func convertCookies(cookies []*proto.NetworkCookie) []types.CookieRecord {
	records := make([]types.CookieRecord, 0, len(cookies))
	for _, c := range cookies {
		record := types.CookieRecord{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
			SameSite: string(c.SameSite),
		}
		// session cookies report -1
		if !c.Session && c.Expires > 0 {
			record.Expiry = int64(c.Expires)
		}
		records = append(records, record)
	}
	return records
}

type rodElement struct {
	el *rod.Element
}

func (e *rodElement) SetValue(ctx context.Context, text string) error {
	el := e.el.Context(ctx).Timeout(elementActionTimeout)
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear field: %w", err)
	}
	return el.Input(text)
}

func (e *rodElement) Click(ctx context.Context) error {
	return e.el.Context(ctx).Timeout(elementActionTimeout).Click(proto.InputMouseButtonLeft, 1)
}

func (e *rodElement) Text(ctx context.Context) (string, error) {
	return e.el.Context(ctx).Text()
}
