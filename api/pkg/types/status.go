package types

// StatusEvent is a sparse update for the controller: nil fields are left
// untouched on the receiving side.
type StatusEvent struct {
	Method       *MfaMethod     `json:"method,omitempty"`
	Message      *string        `json:"message,omitempty"`
	CurrentURL   *string        `json:"currentUrl,omitempty"`
	ErrorType    *AuthErrorKind `json:"errorType,omitempty"`
	OtpError     *string        `json:"otpError,omitempty"`
	ShowOtpModal *bool          `json:"showOtpModal,omitempty"`
}

func Ptr[T any](v T) *T {
	return &v
}

func StatusMessage(message string) StatusEvent {
	return StatusEvent{Message: &message}
}

// StatusForError is the single event emitted for a terminal error.
func StatusForError(err *AuthError, currentURL string) StatusEvent {
	ev := StatusEvent{
		Message:   Ptr(err.Message()),
		ErrorType: Ptr(err.Kind),
	}
	if currentURL != "" {
		ev.CurrentURL = &currentURL
	}
	if err.Kind == AuthErrorInvalidOtp {
		ev.OtpError = Ptr(InvalidOtpMessage)
		ev.ShowOtpModal = Ptr(true)
	}
	return ev
}

const InvalidOtpMessage = "The code you entered is not valid. Please check the code and try again."

type OtpResponse struct {
	Otp                *string `json:"otp"`
	ShowOtpModal       bool    `json:"showOtpModal"`
	OtpError           *string `json:"otpError"`
	WaitingForOtpRetry bool    `json:"waitingForOtpRetry"`
}

type SubmitOtpRequest struct {
	Otp string `json:"otp"`
}
