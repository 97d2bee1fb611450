package types

import "time"

type RunStatus string

const (
	RunStatusStarted       RunStatus = "started"
	RunStatusWaitingFor2FA RunStatus = "waiting_for_2fa"
	RunStatusOtpSubmitted  RunStatus = "otp_submitted"
	RunStatusCompleted     RunStatus = "completed"
	RunStatusError         RunStatus = "error"
	RunStatusCancelled     RunStatus = "cancelled"
)

// RunErrorCancelled is set by the controller, never by a runner.
const RunErrorCancelled = "CANCELLED"

type RunLog struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Run is the controller's view of one cookie acquisition.
type Run struct {
	ID                 string     `json:"id"`
	Status             RunStatus  `json:"status"`
	Method             MfaMethod  `json:"method,omitempty"`
	Message            *string    `json:"message"`
	CurrentURL         string     `json:"currentUrl,omitempty"`
	ErrorType          string     `json:"errorType,omitempty"`
	Error              string     `json:"error,omitempty"`
	OtpError           *string    `json:"otpError"`
	ShowOtpModal       bool       `json:"showOtpModal"`
	WaitingForOtpRetry bool       `json:"waitingForOtpRetry"`
	OtpRetries         int        `json:"otpRetries"`
	MaxOtpRetries      int        `json:"maxOtpRetries"`
	Done               bool       `json:"done"`
	Logs               []RunLog   `json:"logs"`
	Created            time.Time  `json:"created"`
	Updated            time.Time  `json:"updated"`
	Finished           *time.Time `json:"finished,omitempty"`

	Otp *string `json:"-"`
}

type CreateRunResponse struct {
	ID string `json:"id"`
}

// RunErrorMaxOtpRetries is set when the controller gives up on a run after
// too many rejected codes.
const RunErrorMaxOtpRetries = "MAX_OTP_RETRIES_EXCEEDED"

type StartRunRequest struct {
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

type OkResponse struct {
	Ok bool `json:"ok"`
}
