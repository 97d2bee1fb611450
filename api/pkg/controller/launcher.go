package controller

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/helixml/cookiegen/api/pkg/types"
)

// Process is a started runner.
type Process interface {
	Wait() error
	// Stop asks the runner to exit, killing it after grace.
	Stop(grace time.Duration)
}

type Launcher interface {
	Launch(runID string, req types.StartRunRequest) (Process, error)
}

// ExecLauncher starts `<bin> run` with the run id in its environment. The
// runner inherits this process's environment otherwise.
type ExecLauncher struct {
	bin           string
	controllerURL string
}

func NewExecLauncher(bin, controllerURL string) (*ExecLauncher, error) {
	if bin == "" {
		self, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve runner binary: %w", err)
		}
		bin = self
	}
	return &ExecLauncher{bin: bin, controllerURL: controllerURL}, nil
}

func (l *ExecLauncher) Launch(runID string, req types.StartRunRequest) (Process, error) {
	cmd := exec.Command(l.bin, "run")
	cmd.Env = append(os.Environ(),
		"REQUEST_ID="+runID,
		"CONTROLLER_URL="+l.controllerURL,
	)
	if req.Email != "" {
		cmd.Env = append(cmd.Env, "AMAZON_EMAIL="+req.Email)
	}
	if req.Password != "" {
		cmd.Env = append(cmd.Env, "AMAZON_PASSWORD="+req.Password)
	}
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start runner: %w", err)
	}
	log.Info().Str("run_id", runID).Int("pid", cmd.Process.Pid).Msg("runner started")

	return &execProcess{cmd: cmd, done: make(chan struct{})}, nil
}

type execProcess struct {
	cmd  *exec.Cmd
	done chan struct{}
}

func (p *execProcess) Wait() error {
	defer close(p.done)
	return p.cmd.Wait()
}

func (p *execProcess) Stop(grace time.Duration) {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		log.Debug().Err(err).Msg("failed to signal runner")
		return
	}

	select {
	case <-p.done:
	case <-time.After(grace):
		log.Warn().Int("pid", p.cmd.Process.Pid).Msg("runner did not exit, killing")
		_ = p.cmd.Process.Kill()
	}
}
