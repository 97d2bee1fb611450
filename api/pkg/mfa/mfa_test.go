package mfa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/helixml/cookiegen/api/pkg/browser/browsertest"
	"github.com/helixml/cookiegen/api/pkg/classifier"
	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/otp"
	"github.com/helixml/cookiegen/api/pkg/reporter"
	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

const otpField = "#auth-mfa-otpcode"

func testTiming() config.Timing {
	return config.Timing{
		OtpSettle:           5 * time.Second,
		OtpPoll:             2 * time.Second,
		OtpTransition:       5 * time.Second,
		OtpBudget:           10 * time.Minute,
		OtpAttempts:         4,
		OtpAttemptsAttended: 10,
		PushTimeout:         180 * time.Second,
		PushPoll:            5 * time.Second,
		ChallengePoll:       3 * time.Second,
		TransitionPoll:      2 * time.Second,
	}
}

type MachineSuite struct {
	suite.Suite

	ctx      context.Context
	ctrl     *gomock.Controller
	reporter *reporter.MockReporter
	source   *otp.MockSource
	clock    *system.FakeClock
	events   []types.StatusEvent
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (suite *MachineSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.ctrl = gomock.NewController(suite.T())
	suite.reporter = reporter.NewMockReporter(suite.ctrl)
	suite.source = otp.NewMockSource(suite.ctrl)
	suite.clock = system.NewFakeClock()
	suite.events = nil

	suite.reporter.EXPECT().Report(gomock.Any(), gomock.Any()).Do(func(_ context.Context, ev types.StatusEvent) {
		suite.events = append(suite.events, ev)
	}).AnyTimes()
}

func (suite *MachineSuite) machine(mode types.OperatingMode) *Machine {
	c := classifier.New(config.Target{PathPrefix: "/alexa-privacy/apd/", AuthPathPrefix: "/ap/"})
	return New(c, suite.reporter, suite.source, suite.clock, testTiming(), mode)
}

func (suite *MachineSuite) eventsWithError(kind types.AuthErrorKind) []types.StatusEvent {
	var found []types.StatusEvent
	for _, ev := range suite.events {
		if ev.ErrorType != nil && *ev.ErrorType == kind {
			found = append(found, ev)
		}
	}
	return found
}

// redirectOnClick moves to the target page on the nth click.
func redirectOnClick(n int) func(*browsertest.Session, string) {
	clicks := 0
	return func(s *browsertest.Session, _ string) {
		clicks++
		if clicks == n {
			s.SetPage(browsertest.TargetPage)
		}
	}
}

func (suite *MachineSuite) TestSubmitOtp_RejectsMalformedCodeBeforeTheForm() {
	s := browsertest.NewSession(browsertest.OtpPage)

	for _, code := range []string{"12345", "1234567", "abcdef", ""} {
		_, err := suite.machine(types.Unattended("run-1")).SubmitOtp(suite.ctx, s, code)
		suite.ErrorIs(err, types.ErrInvalidOtp, code)
	}
	suite.Empty(s.AllWritten())
	suite.Empty(s.Clicks)
}

func (suite *MachineSuite) TestSubmitOtp_ChallengeShownAgainIsInvalid() {
	s := browsertest.NewSession(browsertest.OtpPage)

	ok, err := suite.machine(types.Unattended("run-1")).SubmitOtp(suite.ctx, s, "123456")
	suite.False(ok)
	suite.ErrorIs(err, types.ErrInvalidOtp)
	suite.Equal([]string{"123456"}, s.Written(otpField))
}

func (suite *MachineSuite) TestSubmitOtp_ReachesTarget() {
	s := browsertest.NewSession(browsertest.OtpPage)
	s.OnClick = redirectOnClick(1)

	ok, err := suite.machine(types.Unattended("run-1")).SubmitOtp(suite.ctx, s, "123456")
	suite.NoError(err)
	suite.True(ok)
}

func (suite *MachineSuite) TestSubmitOtp_TransitionalPageIsNotAnError() {
	s := browsertest.NewSession(browsertest.OtpPage)
	s.OnClick = func(s *browsertest.Session, _ string) {
		s.SetPage(browsertest.Page{URL: "https://www.amazon.in/", HTML: `<html><body>Loading</body></html>`})
	}

	ok, err := suite.machine(types.Unattended("run-1")).SubmitOtp(suite.ctx, s, "123456")
	suite.NoError(err)
	suite.False(ok)
}

func (suite *MachineSuite) TestRun_OtpRecoversFromInvalidCode() {
	s := browsertest.NewSession(browsertest.OtpPage)
	s.OnClick = redirectOnClick(2)

	gomock.InOrder(
		suite.source.EXPECT().Next(gomock.Any()).Return("111111", true, nil),
		suite.source.EXPECT().Clear(gomock.Any()).Return(nil),
		suite.source.EXPECT().Next(gomock.Any()).Return("", false, nil),
		suite.source.EXPECT().Next(gomock.Any()).Return("222222", true, nil),
		suite.source.EXPECT().Clear(gomock.Any()).Return(nil),
	)

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp))
	suite.NoError(err)
	suite.Equal([]string{"111111", "222222"}, s.Written(otpField))

	invalid := suite.eventsWithError(types.AuthErrorInvalidOtp)
	suite.Require().Len(invalid, 1)
	suite.True(*invalid[0].ShowOtpModal)
	suite.Equal(types.InvalidOtpMessage, *invalid[0].OtpError)
}

func (suite *MachineSuite) TestRun_MalformedCodeNeverReachesTheForm() {
	s := browsertest.NewSession(browsertest.OtpPage)
	s.OnClick = redirectOnClick(1)

	gomock.InOrder(
		suite.source.EXPECT().Next(gomock.Any()).Return("12345", true, nil),
		suite.source.EXPECT().Clear(gomock.Any()).Return(nil),
		suite.source.EXPECT().Next(gomock.Any()).Return("123456", true, nil),
		suite.source.EXPECT().Clear(gomock.Any()).Return(nil),
	)

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp))
	suite.NoError(err)
	suite.Equal([]string{"123456"}, s.AllWritten())

	invalid := suite.eventsWithError(types.AuthErrorInvalidOtp)
	suite.Require().Len(invalid, 1)
	suite.Equal(malformedOtpMessage, *invalid[0].OtpError)
}

func (suite *MachineSuite) TestRun_OtpAttemptBudget() {
	for _, tc := range []struct {
		mode types.OperatingMode
		max  int
	}{
		{types.Unattended("run-1"), 4},
		{types.Attended(), 10},
	} {
		s := browsertest.NewSession(browsertest.OtpPage)
		suite.source.EXPECT().Next(gomock.Any()).Return("123456", true, nil).Times(tc.max)
		suite.source.EXPECT().Clear(gomock.Any()).Return(nil).Times(tc.max)

		err := suite.machine(tc.mode).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp))
		suite.ErrorIs(err, types.ErrGeneric, tc.mode.String())
		suite.Len(s.Written(otpField), tc.max)
	}
}

func (suite *MachineSuite) TestRun_OtpTimeBudget() {
	s := browsertest.NewSession(browsertest.OtpPage)
	suite.source.EXPECT().Next(gomock.Any()).Return("", false, nil).AnyTimes()

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp))
	suite.ErrorIs(err, types.ErrGeneric)
	suite.GreaterOrEqual(suite.clock.Elapsed(), 10*time.Minute)
	suite.Empty(s.AllWritten())
}

func (suite *MachineSuite) TestRun_OtpSourceExhausted() {
	s := browsertest.NewSession(browsertest.OtpPage)
	suite.source.EXPECT().Next(gomock.Any()).Return("", false, otp.ErrExhausted)

	err := suite.machine(types.Attended()).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp))
	suite.ErrorIs(err, types.ErrGeneric)
	suite.ErrorIs(err, otp.ErrExhausted)
}

func (suite *MachineSuite) TestRun_OtpSourceErrorsAreRetried() {
	s := browsertest.NewSession(browsertest.OtpPage)
	s.OnClick = redirectOnClick(1)

	gomock.InOrder(
		suite.source.EXPECT().Next(gomock.Any()).Return("", false, errors.New("connection refused")),
		suite.source.EXPECT().Next(gomock.Any()).Return("123456", true, nil),
		suite.source.EXPECT().Clear(gomock.Any()).Return(nil),
	)

	suite.NoError(suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp)))
}

func (suite *MachineSuite) TestRun_OtpSourceIsBoundedByTheBudget() {
	s := browsertest.NewSession(browsertest.OtpPage)
	s.OnClick = redirectOnClick(1)

	gomock.InOrder(
		suite.source.EXPECT().Next(gomock.Any()).DoAndReturn(func(ctx context.Context) (string, bool, error) {
			deadline, ok := ctx.Deadline()
			suite.True(ok)
			suite.WithinDuration(time.Now().Add(10*time.Minute-2*time.Second), deadline, 5*time.Second)
			return "123456", true, nil
		}),
		suite.source.EXPECT().Clear(gomock.Any()).Return(nil),
	)

	suite.NoError(suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp)))
}

func (suite *MachineSuite) TestRun_OtpBudgetRunsOutWhileWaitingForCode() {
	timing := testTiming()
	timing.OtpBudget = timing.OtpPoll + 50*time.Millisecond
	c := classifier.New(config.Target{PathPrefix: "/alexa-privacy/apd/", AuthPathPrefix: "/ap/"})
	m := New(c, suite.reporter, suite.source, suite.clock, timing, types.Attended())

	s := browsertest.NewSession(browsertest.OtpPage)
	suite.source.EXPECT().Next(gomock.Any()).DoAndReturn(func(ctx context.Context) (string, bool, error) {
		<-ctx.Done()
		return "", false, ctx.Err()
	})

	err := m.Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp))
	suite.ErrorIs(err, types.ErrGeneric)
	suite.ErrorContains(err, "timed out waiting for a valid OTP")
	suite.Empty(s.AllWritten())
}

func (suite *MachineSuite) TestRun_OtpNotSubmittedOnceChallengeIsGone() {
	s := browsertest.NewSession(browsertest.OtpPage)
	suite.source.EXPECT().Next(gomock.Any()).DoAndReturn(func(context.Context) (string, bool, error) {
		s.SetPage(browsertest.TargetPage)
		return "123456", true, nil
	})

	suite.NoError(suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp)))
	suite.Empty(s.Written(otpField))
	suite.Empty(s.Clicks)
}

func (suite *MachineSuite) TestRun_OtpLeftChallengeThenArrived() {
	s := browsertest.NewSession(browsertest.Page{URL: "https://www.amazon.in/", HTML: `<html><body>Redirecting</body></html>`})
	suite.clock.OnSleep = func(elapsed time.Duration) {
		if elapsed >= 7*time.Second {
			s.SetPage(browsertest.TargetPage)
		}
	}

	suite.NoError(suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodOtp)))
	suite.Empty(s.AllWritten())
}

func (suite *MachineSuite) TestRun_PushApproved() {
	s := browsertest.NewSession(browsertest.PushPage)
	suite.clock.OnSleep = func(elapsed time.Duration) {
		if elapsed >= 20*time.Second {
			s.SetPage(browsertest.TargetPage)
		}
	}

	suite.NoError(suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodPush)))

	announcements := 0
	for _, ev := range suite.events {
		if ev.Method != nil && *ev.Method == types.MfaMethodPush {
			announcements++
		}
	}
	suite.Equal(1, announcements)
}

func (suite *MachineSuite) TestRun_PushDenied() {
	s := browsertest.NewSession(browsertest.PushPage)
	suite.clock.OnSleep = func(elapsed time.Duration) {
		if elapsed >= 10*time.Second {
			s.SetPage(browsertest.SignInPage)
		}
	}

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodPush))
	suite.ErrorIs(err, types.ErrPushDenied)
	suite.NotErrorIs(err, types.ErrGeneric)
	suite.Less(suite.clock.Elapsed(), 180*time.Second)
}

func (suite *MachineSuite) TestRun_PushTimeout() {
	s := browsertest.NewSession(browsertest.PushPage)

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodPush))
	suite.ErrorIs(err, types.ErrGeneric)
	suite.ErrorContains(err, "timeout waiting for redirect")
	suite.GreaterOrEqual(suite.clock.Elapsed(), 180*time.Second)
}

func (suite *MachineSuite) TestRun_PushAmbiguousTicksKeepWaiting() {
	s := browsertest.NewSession(browsertest.PushPage)
	suite.clock.OnSleep = func(elapsed time.Duration) {
		switch {
		case elapsed >= 30*time.Second:
			s.SetPage(browsertest.TargetPage)
		case elapsed >= 10*time.Second:
			s.SetPage(browsertest.UnknownMfaPage)
		}
	}

	suite.NoError(suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodPush)))
}

func (suite *MachineSuite) TestRun_PushDeniedOnFirstTick() {
	s := browsertest.NewSession(browsertest.SignInPage)

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodPush))
	suite.ErrorIs(err, types.ErrPushDenied)
	suite.Zero(suite.clock.Sleeps())
}

// The provider gives no explicit denial page, so any return to the sign-in
// form after the prompt counts as a denial. A sign-in page reached for an
// unrelated reason, such as an expired session, is misread the same way.
func (suite *MachineSuite) TestPushLoginRedirectIsTreatedAsDenial() {
	s := browsertest.NewSession(browsertest.PushPage)
	suite.clock.OnSleep = func(elapsed time.Duration) {
		if elapsed >= 5*time.Second {
			s.SetPage(browsertest.Page{
				URL:  "https://www.amazon.in/ap/signin?reason=session_expired",
				HTML: `<html><body><p>Your session has expired</p><input type="email" id="ap_email"></body></html>`,
			})
		}
	}

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodPush))
	suite.ErrorIs(err, types.ErrPushDenied)
}

func (suite *MachineSuite) TestRun_PushCancelled() {
	s := browsertest.NewSession(browsertest.PushPage)
	ctx, cancel := context.WithCancel(suite.ctx)
	suite.clock.OnSleep = func(time.Duration) { cancel() }

	err := suite.machine(types.Unattended("run-1")).Run(ctx, s, types.On2FA(types.MfaMethodPush))
	suite.ErrorIs(err, types.ErrGeneric)
	suite.ErrorIs(err, context.Canceled)
}

func (suite *MachineSuite) TestRun_UnknownMethod() {
	s := browsertest.NewSession(browsertest.UnknownMfaPage)

	err := suite.machine(types.Unattended("run-1")).Run(suite.ctx, s, types.On2FA(types.MfaMethodUnknown))
	suite.ErrorIs(err, types.ErrUnknown2FAPage)
}

func (suite *MachineSuite) TestDetect_WaitsForSlowPage() {
	s := browsertest.NewSession(browsertest.Page{URL: "https://www.amazon.in/", HTML: `<html><body></body></html>`})
	suite.clock.OnSleep = func(time.Duration) { s.SetPage(browsertest.OtpPage) }

	state := suite.machine(types.Unattended("run-1")).Detect(suite.ctx, s)
	suite.True(state.IsOtp())
	suite.Equal(1, suite.clock.Sleeps())
}

func (suite *MachineSuite) TestDetect_GivesUp() {
	s := browsertest.NewSession(browsertest.Page{URL: "https://www.amazon.in/", HTML: `<html><body></body></html>`})

	state := suite.machine(types.Unattended("run-1")).Detect(suite.ctx, s)
	suite.Equal(types.StateUnclassified, state)
	suite.Equal(detectAttempts-1, suite.clock.Sleeps())
}
