package reporter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/helixml/cookiegen/api/pkg/client"
	"github.com/helixml/cookiegen/api/pkg/types"
)

func TestNotable(t *testing.T) {
	tests := []struct {
		name  string
		event types.StatusEvent
		want  bool
	}{
		{"routine progress", types.StatusMessage("Navigating to target page"), false},
		{"filled email", types.StatusMessage("Email entered"), false},
		{"success keyword", types.StatusMessage("Login successful"), true},
		{"2fa keyword", types.StatusMessage("2FA detected"), true},
		{"failure keyword", types.StatusMessage("Cookie write failed"), true},
		{"otp method", types.StatusEvent{Method: types.Ptr(types.MfaMethodOtp)}, true},
		{"push method", types.StatusEvent{Method: types.Ptr(types.MfaMethodPush)}, true},
		{"unknown method alone", types.StatusEvent{Method: types.Ptr(types.MfaMethodUnknown)}, false},
		{"modal flag", types.StatusEvent{ShowOtpModal: types.Ptr(false)}, true},
		{"error type", types.StatusEvent{ErrorType: types.Ptr(types.AuthErrorGeneric)}, true},
		{"empty", types.StatusEvent{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Notable(tt.event))
		})
	}
}

func TestHTTPReporter_SendsOnlyNotable(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c := client.NewMockClient(ctrl)
	r := NewHTTPReporter(c, "run-1")

	notable := types.StatusMessage("Authentication successful")
	c.EXPECT().UpdateStatus(ctx, "run-1", notable).Return(nil).Times(1)

	r.Report(ctx, types.StatusMessage("Navigating to target page"))
	r.Report(ctx, notable)
}

func TestHTTPReporter_DeliveryFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	ctx := context.Background()
	c := client.NewMockClient(ctrl)
	r := NewHTTPReporter(c, "run-1")

	c.EXPECT().UpdateStatus(ctx, "run-1", gomock.Any()).Return(errors.New("connection refused"))

	require.NotPanics(t, func() {
		r.Report(ctx, types.StatusForError(types.NewAuthError(types.AuthErrorPushDenied, ""), ""))
	})
}

func TestNew_AttendedNeverTouchesController(t *testing.T) {
	ctrl := gomock.NewController(t)
	c := client.NewMockClient(ctrl)

	r := New(types.Attended(), c)
	require.IsType(t, &LogReporter{}, r)
	r.Report(context.Background(), types.StatusForError(types.GenericError("boom", nil), ""))

	require.IsType(t, &HTTPReporter{}, New(types.Unattended("run-2"), c))
}
