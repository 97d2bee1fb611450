package controller

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

var ErrRunNotFound = errors.New("run not found")

// Registry is the in-memory store of runs. Returned runs are copies.
type Registry struct {
	mu    sync.Mutex
	runs  map[string]*types.Run
	clock system.Clock
}

func NewRegistry(clock system.Clock) *Registry {
	return &Registry{
		runs:  map[string]*types.Run{},
		clock: clock,
	}
}

func (r *Registry) Create(maxOtpRetries int) types.Run {
	now := r.clock.Now()
	run := &types.Run{
		ID:            uuid.New().String(),
		Status:        types.RunStatusStarted,
		MaxOtpRetries: maxOtpRetries,
		Logs: []types.RunLog{
			{Timestamp: now, Message: "Starting cookie acquisition"},
		},
		Created: now,
		Updated: now,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = run
	return copyRun(run)
}

func (r *Registry) Get(id string) (types.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return types.Run{}, ErrRunNotFound
	}
	return copyRun(run), nil
}

// Update applies fn to the run under the registry lock.
func (r *Registry) Update(id string, fn func(run *types.Run, now time.Time)) (types.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return types.Run{}, ErrRunNotFound
	}
	now := r.clock.Now()
	fn(run, now)
	run.Updated = now
	return copyRun(run), nil
}

// Prune forgets runs that finished more than retention ago.
func (r *Registry) Prune(retention time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	cutoff := r.clock.Now().Add(-retention)
	removed := 0
	for id, run := range r.runs {
		if run.Finished != nil && run.Finished.Before(cutoff) {
			delete(r.runs, id)
			removed++
		}
	}
	return removed
}

func copyRun(run *types.Run) types.Run {
	c := *run
	c.Logs = append([]types.RunLog(nil), run.Logs...)
	if run.Message != nil {
		c.Message = types.Ptr(*run.Message)
	}
	if run.OtpError != nil {
		c.OtpError = types.Ptr(*run.OtpError)
	}
	if run.Otp != nil {
		c.Otp = types.Ptr(*run.Otp)
	}
	if run.Finished != nil {
		c.Finished = types.Ptr(*run.Finished)
	}
	return c
}

func appendLog(run *types.Run, now time.Time, message string) {
	if message == "" {
		return
	}
	if n := len(run.Logs); n > 0 && run.Logs[n-1].Message == message {
		return
	}
	run.Logs = append(run.Logs, types.RunLog{Timestamp: now, Message: message})
}

func isTerminal(status types.RunStatus) bool {
	switch status {
	case types.RunStatusCompleted, types.RunStatusError, types.RunStatusCancelled:
		return true
	}
	return false
}
