package controller

import (
	"strings"
	"time"

	"github.com/helixml/cookiegen/api/pkg/types"
)

// applyStatus folds a runner's status event into the run. It reports whether
// the run exhausted its OTP retries and should be stopped.
func applyStatus(run *types.Run, ev types.StatusEvent, now time.Time) bool {
	if ev.Method != nil {
		run.Method = *ev.Method
	}
	run.Message = ev.Message
	if ev.Message != nil {
		appendLog(run, now, *ev.Message)
	}
	if ev.CurrentURL != nil && *ev.CurrentURL != "" {
		run.CurrentURL = *ev.CurrentURL
	}
	if !isTerminal(run.Status) {
		run.Status = types.RunStatusWaitingFor2FA
	}

	var errorType types.AuthErrorKind
	if ev.ErrorType != nil {
		errorType = *ev.ErrorType
	}

	switch errorType {
	case types.AuthErrorInvalidOtp:
		if run.OtpRetries >= run.MaxOtpRetries {
			run.ErrorType = types.RunErrorMaxOtpRetries
			run.Error = "Maximum OTP retry attempts exceeded"
			run.ShowOtpModal = false
			appendLog(run, now, "Too many failed OTP attempts. Please try again later.")
			return true
		}
		run.OtpRetries++
		run.ErrorType = string(errorType)
		run.ShowOtpModal = true
		if ev.ShowOtpModal != nil {
			run.ShowOtpModal = *ev.ShowOtpModal
		}
		run.OtpError = types.Ptr(types.InvalidOtpMessage)
		if ev.OtpError != nil {
			run.OtpError = types.Ptr(*ev.OtpError)
		}
		run.WaitingForOtpRetry = true
		if !strings.Contains(string(run.Method), "OTP") {
			run.Method = types.MfaMethodOtp
		}
	case "":
		run.ShowOtpModal = strings.Contains(string(run.Method), "OTP") && ev.Method != nil
		if ev.ShowOtpModal != nil {
			run.ShowOtpModal = *ev.ShowOtpModal
		}
		run.OtpError = nil
		if !run.ShowOtpModal && run.ErrorType == string(types.AuthErrorInvalidOtp) {
			run.ErrorType = ""
			run.WaitingForOtpRetry = false
			run.OtpRetries = 0
		}
	default:
		run.ErrorType = string(errorType)
		run.Status = types.RunStatusError
		run.ShowOtpModal = false
		run.Error = "Authentication failed"
		if ev.Message != nil {
			run.Error = *ev.Message
		}
	}
	return false
}
