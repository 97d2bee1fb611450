package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

//go:generate mockgen -source $GOFILE -destination client_mocks.go -package $GOPACKAGE

// Client talks to the controller. The first group is what a runner calls,
// the second is the operator-facing side.
type Client interface {
	UpdateStatus(ctx context.Context, runID string, event types.StatusEvent) error
	GetOtp(ctx context.Context, runID string) (*types.OtpResponse, error)
	ClearOtp(ctx context.Context, runID string) error

	StartRun(ctx context.Context) (*types.CreateRunResponse, error)
	GetRun(ctx context.Context, runID string) (*types.Run, error)
	SubmitOtp(ctx context.Context, runID, otp string) error
	CancelRun(ctx context.Context, runID string) error
}

// ControllerClient is the HTTP client for the controller api
type ControllerClient struct {
	httpClient *retryablehttp.Client
	options    system.ClientOptions
}

const (
	DefaultURL = "http://localhost:5000"
)

func NewClient(url string, retryMax int, timeout time.Duration) *ControllerClient {
	if url == "" {
		url = DefaultURL
	}
	return &ControllerClient{
		httpClient: system.NewRetryClient(retryMax, timeout),
		options: system.ClientOptions{
			Host:    url,
			Timeout: timeout,
		},
	}
}

func (c *ControllerClient) UpdateStatus(ctx context.Context, runID string, event types.StatusEvent) error {
	return c.makeRequest(ctx, http.MethodPost, system.InternalURL(c.options, "/2fa-update/%s", runID), event, nil)
}

func (c *ControllerClient) GetOtp(ctx context.Context, runID string) (*types.OtpResponse, error) {
	var resp types.OtpResponse
	err := c.makeRequest(ctx, http.MethodGet, system.InternalURL(c.options, "/get-otp/%s", runID), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ControllerClient) ClearOtp(ctx context.Context, runID string) error {
	return c.makeRequest(ctx, http.MethodPost, system.InternalURL(c.options, "/clear-otp/%s", runID), nil, nil)
}

func (c *ControllerClient) StartRun(ctx context.Context) (*types.CreateRunResponse, error) {
	var resp types.CreateRunResponse
	err := c.makeRequest(ctx, http.MethodPost, system.URL(c.options, "/api/runs"), nil, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *ControllerClient) GetRun(ctx context.Context, runID string) (*types.Run, error) {
	var run types.Run
	err := c.makeRequest(ctx, http.MethodGet, system.URL(c.options, "/api/2fa-status/"+runID), nil, &run)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (c *ControllerClient) SubmitOtp(ctx context.Context, runID, otp string) error {
	body := types.SubmitOtpRequest{Otp: otp}
	return c.makeRequest(ctx, http.MethodPost, system.URL(c.options, "/api/submit-otp/"+runID), body, nil)
}

func (c *ControllerClient) CancelRun(ctx context.Context, runID string) error {
	return c.makeRequest(ctx, http.MethodPost, system.URL(c.options, "/api/cancel-acquisition/"+runID), nil, nil)
}

func (c *ControllerClient) makeRequest(ctx context.Context, method, url string, body, v interface{}) error {
	var reader io.Reader
	if body != nil {
		bts, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(bts)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bts, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("status code %d", resp.StatusCode)
		}
		return fmt.Errorf("status code %d (%s)", resp.StatusCode, strings.TrimSpace(string(bts)))
	}

	if v != nil {
		return json.NewDecoder(resp.Body).Decode(v)
	}

	return nil
}
