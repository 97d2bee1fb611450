package system

import (
	"context"
	"fmt"
	"io"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog/log"
)

// InternalAPIPath is where the controller serves the endpoints used by runners
const InternalAPIPath = "/api/internal"

type ClientOptions struct {
	Host string
	// Timeout bounds a single attempt, retries included
	Timeout time.Duration
}

func URL(options ClientOptions, path string) string {
	return fmt.Sprintf("%s%s", strings.TrimSuffix(options.Host, "/"), path)
}

func InternalURL(options ClientOptions, format string, args ...any) string {
	return URL(options, InternalAPIPath+fmt.Sprintf(format, args...))
}

func NewRetryClient(retryMax int, timeout time.Duration) *retryablehttp.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.RetryWaitMin = 200 * time.Millisecond
	retryClient.RetryWaitMax = time.Second
	if timeout > 0 {
		retryClient.HTTPClient.Timeout = timeout
	}

	retryClient.Logger = stdlog.New(io.Discard, "", stdlog.LstdFlags)
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		log.Trace().
			Str(req.Method, req.URL.String()).
			Int("attempt", attempt).
			Msgf("")
	}
	retryClient.CheckRetry = func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if resp == nil {
			return true, err
		}
		log.Trace().
			Str(resp.Request.Method, resp.Request.URL.String()).
			Int("code", resp.StatusCode).
			Msgf("")
		// 4xx means the run is unknown to the controller, retrying won't help
		return resp.StatusCode >= 500, nil
	}
	// hand the last response back so callers can report the controller's error
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	return retryClient
}
