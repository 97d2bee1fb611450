package otp

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/client"
)

// ControllerSource polls the controller for codes typed into the UI.
type ControllerSource struct {
	client client.Client
	runID  string
}

func NewControllerSource(c client.Client, runID string) *ControllerSource {
	return &ControllerSource{client: c, runID: runID}
}

func (s *ControllerSource) Next(ctx context.Context) (string, bool, error) {
	resp, err := s.client.GetOtp(ctx, s.runID)
	if err != nil {
		return "", false, fmt.Errorf("failed to get OTP for run %s: %w", s.runID, err)
	}
	if resp.Otp == nil || *resp.Otp == "" {
		return "", false, nil
	}
	log.Debug().Str("run_id", s.runID).Msg("received OTP from controller")
	return *resp.Otp, true, nil
}

func (s *ControllerSource) Clear(ctx context.Context) error {
	if err := s.client.ClearOtp(ctx, s.runID); err != nil {
		return fmt.Errorf("failed to clear OTP for run %s: %w", s.runID, err)
	}
	return nil
}
