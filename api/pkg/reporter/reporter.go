package reporter

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/client"
	"github.com/helixml/cookiegen/api/pkg/types"
)

//go:generate mockgen -source $GOFILE -destination reporter_mocks.go -package $GOPACKAGE

// Reporter publishes progress of a run. Reporting never fails the run.
type Reporter interface {
	Report(ctx context.Context, event types.StatusEvent)
}

// New picks the reporter for the operating mode.
func New(mode types.OperatingMode, c client.Client) Reporter {
	if mode.IsAttended() {
		return &LogReporter{}
	}
	return NewHTTPReporter(c, mode.RunID)
}

var notableKeywords = []string{
	"error", "Error",
	"failed", "Failed",
	"successful", "Successful",
	"2FA", "authentication",
	"OTP", "Push",
	"cancelled", "complete",
}

// Notable reports whether an event is worth sending to the controller.
// Everything else stays in the local log.
func Notable(event types.StatusEvent) bool {
	if event.ErrorType != nil || event.ShowOtpModal != nil {
		return true
	}
	if event.Method != nil {
		method := string(*event.Method)
		if strings.Contains(method, "OTP") || strings.Contains(method, "Push") {
			return true
		}
	}
	if event.Message != nil {
		for _, k := range notableKeywords {
			if strings.Contains(*event.Message, k) {
				return true
			}
		}
	}
	return false
}

// LogReporter only writes to the local log.
type LogReporter struct{}

func (r *LogReporter) Report(_ context.Context, event types.StatusEvent) {
	logEvent(event)
}

// HTTPReporter logs every event and forwards the notable ones to the
// controller. Delivery failures are logged and dropped.
type HTTPReporter struct {
	client client.Client
	runID  string
}

func NewHTTPReporter(c client.Client, runID string) *HTTPReporter {
	return &HTTPReporter{client: c, runID: runID}
}

func (r *HTTPReporter) Report(ctx context.Context, event types.StatusEvent) {
	logEvent(event)
	if !Notable(event) {
		return
	}
	if err := r.client.UpdateStatus(ctx, r.runID, event); err != nil {
		log.Warn().Err(err).Str("run_id", r.runID).Msg("failed to send status update")
	}
}

func logEvent(event types.StatusEvent) {
	var e *zerolog.Event
	if event.ErrorType != nil {
		e = log.Error().Str("error_type", string(*event.ErrorType))
	} else {
		e = log.Info()
	}
	if event.Method != nil {
		e = e.Str("method", string(*event.Method))
	}
	if event.CurrentURL != nil {
		e = e.Str("url", *event.CurrentURL)
	}
	if event.ShowOtpModal != nil {
		e = e.Bool("show_otp_modal", *event.ShowOtpModal)
	}
	msg := ""
	if event.Message != nil {
		msg = *event.Message
	}
	e.Msg(msg)
}
