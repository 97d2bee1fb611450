package controller

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/helixml/cookiegen/api/pkg/client"
	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/otp"
	"github.com/helixml/cookiegen/api/pkg/reporter"
	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

type fakeProcess struct {
	once    sync.Once
	exit    chan error
	stopped chan struct{}
}

func newFakeProcess() *fakeProcess {
	return &fakeProcess{exit: make(chan error, 1), stopped: make(chan struct{})}
}

func (p *fakeProcess) Wait() error {
	return <-p.exit
}

func (p *fakeProcess) Stop(time.Duration) {
	p.once.Do(func() {
		close(p.stopped)
		p.exit <- errors.New("signal: terminated")
	})
}

func (p *fakeProcess) Exit(err error) {
	p.exit <- err
}

type fakeLauncher struct {
	mu        sync.Mutex
	processes map[string]*fakeProcess
	requests  map[string]types.StartRunRequest
	err       error
}

func (l *fakeLauncher) Launch(runID string, req types.StartRunRequest) (Process, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	p := newFakeProcess()
	l.processes[runID] = p
	l.requests[runID] = req
	return p, nil
}

func (l *fakeLauncher) process(runID string) *fakeProcess {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.processes[runID]
}

type ServerTestSuite struct {
	suite.Suite

	ctx      context.Context
	launcher *fakeLauncher
	http     *httptest.Server
	client   *client.ControllerClient
}

func TestServerSuite(t *testing.T) {
	suite.Run(t, new(ServerTestSuite))
}

func (suite *ServerTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.launcher = &fakeLauncher{
		processes: map[string]*fakeProcess{},
		requests:  map[string]types.StartRunRequest{},
	}
	srv := NewServer(config.Server{MaxOtpRetries: 2, RunRetention: time.Hour}, NewRegistry(system.NewClock()), suite.launcher)
	suite.http = httptest.NewServer(srv.Router())
	suite.client = client.NewClient(suite.http.URL, 0, 5*time.Second)
}

func (suite *ServerTestSuite) TearDownTest() {
	suite.http.Close()
}

func (suite *ServerTestSuite) startRun() string {
	resp, err := suite.client.StartRun(suite.ctx)
	suite.Require().NoError(err)
	suite.Require().NotEmpty(resp.ID)
	suite.Require().NotNil(suite.launcher.process(resp.ID))
	return resp.ID
}

func (suite *ServerTestSuite) run(id string) *types.Run {
	run, err := suite.client.GetRun(suite.ctx, id)
	suite.Require().NoError(err)
	return run
}

func (suite *ServerTestSuite) eventuallyStatus(id string, status types.RunStatus) {
	suite.Eventually(func() bool {
		return suite.run(id).Status == status
	}, 2*time.Second, 10*time.Millisecond)
}

func (suite *ServerTestSuite) TestStartRun() {
	id := suite.startRun()

	run := suite.run(id)
	suite.Equal(types.RunStatusStarted, run.Status)
	suite.Equal(2, run.MaxOtpRetries)
	suite.Len(run.Logs, 2)
	suite.Equal("Starting cookie acquisition", run.Logs[0].Message)
}

func (suite *ServerTestSuite) TestStartRunLaunchFailure() {
	suite.launcher.err = errors.New("no such binary")

	_, err := suite.client.StartRun(suite.ctx)
	suite.Error(err)
	suite.Contains(err.Error(), "status code 500")
}

func (suite *ServerTestSuite) TestUnknownRun() {
	_, err := suite.client.GetRun(suite.ctx, "missing")
	suite.Error(err)
	suite.Contains(err.Error(), "status code 404")

	suite.Error(suite.client.SubmitOtp(suite.ctx, "missing", "123456"))
	suite.Error(suite.client.CancelRun(suite.ctx, "missing"))
}

func (suite *ServerTestSuite) TestOtpRoundTrip() {
	id := suite.startRun()
	rep := reporter.NewHTTPReporter(suite.client, id)
	source := otp.NewControllerSource(suite.client, id)

	rep.Report(suite.ctx, types.StatusEvent{
		Method:       types.Ptr(types.MfaMethodOtp),
		Message:      types.Ptr("OTP verification required"),
		ShowOtpModal: types.Ptr(true),
	})

	run := suite.run(id)
	suite.Equal(types.RunStatusWaitingFor2FA, run.Status)
	suite.Equal(types.MfaMethodOtp, run.Method)
	suite.True(run.ShowOtpModal)

	_, ok, err := source.Next(suite.ctx)
	suite.Require().NoError(err)
	suite.False(ok)

	suite.Require().NoError(suite.client.SubmitOtp(suite.ctx, id, " 123456 "))
	run = suite.run(id)
	suite.Equal(types.RunStatusOtpSubmitted, run.Status)
	suite.False(run.ShowOtpModal)

	code, ok, err := source.Next(suite.ctx)
	suite.Require().NoError(err)
	suite.True(ok)
	suite.Equal("123456", code)

	suite.Require().NoError(source.Clear(suite.ctx))
	_, ok, err = source.Next(suite.ctx)
	suite.Require().NoError(err)
	suite.False(ok)

	suite.launcher.process(id).Exit(nil)
	suite.eventuallyStatus(id, types.RunStatusCompleted)
	run = suite.run(id)
	suite.True(run.Done)
	suite.NotNil(run.Finished)
}

func (suite *ServerTestSuite) TestSubmitEmptyOtp() {
	id := suite.startRun()

	err := suite.client.SubmitOtp(suite.ctx, id, "  ")
	suite.Error(err)
	suite.Contains(err.Error(), "status code 400")
}

func (suite *ServerTestSuite) TestInvalidOtpRetriesExhausted() {
	id := suite.startRun()
	rep := reporter.NewHTTPReporter(suite.client, id)
	invalid := types.StatusForError(types.NewAuthError(types.AuthErrorInvalidOtp, ""), "")

	rep.Report(suite.ctx, invalid)
	run := suite.run(id)
	suite.Equal(1, run.OtpRetries)
	suite.True(run.WaitingForOtpRetry)
	suite.True(run.ShowOtpModal)
	suite.Require().NotNil(run.OtpError)
	suite.Equal(types.InvalidOtpMessage, *run.OtpError)

	rep.Report(suite.ctx, invalid)
	suite.Equal(2, suite.run(id).OtpRetries)

	rep.Report(suite.ctx, invalid)
	select {
	case <-suite.launcher.process(id).stopped:
	case <-time.After(2 * time.Second):
		suite.FailNow("runner was not stopped")
	}

	suite.eventuallyStatus(id, types.RunStatusError)
	suite.Eventually(func() bool {
		return suite.run(id).Finished != nil
	}, 2*time.Second, 10*time.Millisecond)
	run = suite.run(id)
	suite.Equal(types.RunErrorMaxOtpRetries, run.ErrorType)
	suite.False(run.ShowOtpModal)
}

func (suite *ServerTestSuite) TestTerminalErrorKeepsErrorType() {
	id := suite.startRun()
	rep := reporter.NewHTTPReporter(suite.client, id)

	rep.Report(suite.ctx, types.StatusForError(types.NewAuthError(types.AuthErrorIncorrectPassword, ""), "https://www.amazon.com/ap/signin"))
	suite.launcher.process(id).Exit(errors.New("exit status 1"))

	suite.Eventually(func() bool {
		return suite.run(id).Finished != nil
	}, 2*time.Second, 10*time.Millisecond)
	run := suite.run(id)
	suite.Equal(types.RunStatusError, run.Status)
	suite.Equal(string(types.AuthErrorIncorrectPassword), run.ErrorType)
	suite.Equal("The password is incorrect", run.Error)
	suite.Equal("https://www.amazon.com/ap/signin", run.CurrentURL)
}

func (suite *ServerTestSuite) TestRunnerCrashIsGenericError() {
	id := suite.startRun()

	suite.launcher.process(id).Exit(errors.New("exit status 2"))

	suite.eventuallyStatus(id, types.RunStatusError)
	run := suite.run(id)
	suite.Equal(string(types.AuthErrorGeneric), run.ErrorType)
	suite.Contains(run.Error, "exit status 2")
}

func (suite *ServerTestSuite) TestCancelRun() {
	id := suite.startRun()

	suite.Require().NoError(suite.client.CancelRun(suite.ctx, id))
	select {
	case <-suite.launcher.process(id).stopped:
	case <-time.After(2 * time.Second):
		suite.FailNow("runner was not stopped")
	}

	suite.Eventually(func() bool {
		return suite.run(id).Finished != nil
	}, 2*time.Second, 10*time.Millisecond)
	run := suite.run(id)
	suite.Equal(types.RunStatusCancelled, run.Status)
	suite.Equal(types.RunErrorCancelled, run.ErrorType)
}
