package system

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRealClock_SleepHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	err := NewClock().Sleep(ctx, time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.Less(t, time.Since(start), time.Second)
}

func TestRealClock_Sleep(t *testing.T) {
	err := NewClock().Sleep(context.Background(), time.Millisecond)
	require.NoError(t, err)
}

func TestMaskSecret(t *testing.T) {
	require.Equal(t, "******", MaskSecret("123456"))
	require.Equal(t, "", MaskSecret(""))
}

func TestInternalURL(t *testing.T) {
	opts := ClientOptions{Host: "http://localhost:5000/"}
	require.Equal(t, "http://localhost:5000/api/internal/get-otp/abc", InternalURL(opts, "/get-otp/%s", "abc"))
}
