package system

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type HTTPError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(statusCode int, message string) *HTTPError {
	return &HTTPError{StatusCode: statusCode, Message: message}
}

func NewHTTPError400(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func NewHTTPError404(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

func NewHTTPError409(message string) *HTTPError {
	return NewHTTPError(http.StatusConflict, message)
}

func NewHTTPError500(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}

type WrapperConfig struct {
	SilenceErrors bool
}

// DefaultWrapper turns a handler returning a value into an http.HandlerFunc
// that writes it as JSON.
func DefaultWrapper[T any](handler func(http.ResponseWriter, *http.Request) (T, *HTTPError)) http.HandlerFunc {
	return DefaultWrapperWithConfig(handler, WrapperConfig{})
}

func DefaultWrapperWithConfig[T any](handler func(http.ResponseWriter, *http.Request) (T, *HTTPError), config WrapperConfig) http.HandlerFunc {
	return func(rw http.ResponseWriter, req *http.Request) {
		data, httpErr := handler(rw, req)
		if httpErr != nil {
			if !config.SilenceErrors {
				log.Warn().
					Str("method", req.Method).
					Str("path", req.URL.Path).
					Int("code", httpErr.StatusCode).
					Msg(httpErr.Message)
			}
			writeJSON(rw, httpErr, httpErr.StatusCode)
			return
		}
		writeJSON(rw, data, http.StatusOK)
	}
}

func writeJSON(rw http.ResponseWriter, data any, statusCode int) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	if err := json.NewEncoder(rw).Encode(data); err != nil {
		log.Err(err).Msg("error writing response")
	}
}
