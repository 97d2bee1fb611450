package controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc"

	"github.com/helixml/cookiegen/api/pkg/config"
	"github.com/helixml/cookiegen/api/pkg/system"
	"github.com/helixml/cookiegen/api/pkg/types"
)

const (
	stopGrace     = 3 * time.Second
	pruneInterval = time.Minute
)

// Server owns the runs and exposes the user and runner facing endpoints.
type Server struct {
	cfg      config.Server
	registry *Registry
	launcher Launcher

	mu        sync.Mutex
	processes map[string]Process
}

func NewServer(cfg config.Server, registry *Registry, launcher Launcher) *Server {
	return &Server{
		cfg:       cfg,
		registry:  registry,
		launcher:  launcher,
		processes: map[string]Process{},
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/runs", system.DefaultWrapper(s.startRun)).Methods(http.MethodPost)
	api.HandleFunc("/2fa-status/{id}", system.DefaultWrapper(s.getRun)).Methods(http.MethodGet)
	api.HandleFunc("/submit-otp/{id}", system.DefaultWrapper(s.submitOtp)).Methods(http.MethodPost)
	api.HandleFunc("/cancel-acquisition/{id}", system.DefaultWrapper(s.cancelRun)).Methods(http.MethodPost)

	internal := router.PathPrefix(system.InternalAPIPath).Subrouter()
	internal.HandleFunc("/2fa-update/{id}", system.DefaultWrapper(s.updateStatus)).Methods(http.MethodPost)
	internal.HandleFunc("/get-otp/{id}", system.DefaultWrapperWithConfig(s.getOtp, system.WrapperConfig{
		SilenceErrors: true,
	})).Methods(http.MethodGet)
	internal.HandleFunc("/clear-otp/{id}", system.DefaultWrapper(s.clearOtp)).Methods(http.MethodPost)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return router
}

// ListenAndServe serves until ctx is cancelled, then stops every runner.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	cron, err := s.startPruning()
	if err != nil {
		return err
	}
	defer func() {
		if err := cron.Shutdown(); err != nil {
			log.Error().Err(err).Msg("failed to shutdown scheduler")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("failed to shut down controller")
		}
	}()

	log.Info().Str("addr", s.cfg.ListenAddr).Msg("controller listening")
	err = srv.ListenAndServe()
	s.stopAll()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// startPruning schedules the removal of runs finished longer than the
// retention period ago.
func (s *Server) startPruning() (gocron.Scheduler, error) {
	cron, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = cron.NewJob(
		gocron.DurationJob(pruneInterval),
		gocron.NewTask(func() {
			if n := s.registry.Prune(s.cfg.RunRetention); n > 0 {
				log.Debug().Int("count", n).Msg("pruned finished runs")
			}
		}),
		gocron.WithName("prune-runs"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule run pruning: %w", err)
	}
	cron.Start()
	return cron, nil
}

func (s *Server) stopAll() {
	s.mu.Lock()
	procs := make([]Process, 0, len(s.processes))
	for _, p := range s.processes {
		procs = append(procs, p)
	}
	s.mu.Unlock()

	wg := conc.NewWaitGroup()
	for _, p := range procs {
		wg.Go(func() {
			p.Stop(stopGrace)
		})
	}
	wg.Wait()
}

func (s *Server) startRun(_ http.ResponseWriter, r *http.Request) (*types.CreateRunResponse, *system.HTTPError) {
	var req types.StartRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		return nil, system.NewHTTPError400(fmt.Sprintf("invalid request: %s", err))
	}

	run := s.registry.Create(s.cfg.MaxOtpRetries)
	proc, err := s.launcher.Launch(run.ID, req)
	if err != nil {
		s.finish(run.ID, err)
		return nil, system.NewHTTPError500(err.Error())
	}
	metricRunsStarted.Inc()
	metricRunsActive.Inc()

	s.mu.Lock()
	s.processes[run.ID] = proc
	s.mu.Unlock()

	_, _ = s.registry.Update(run.ID, func(run *types.Run, now time.Time) {
		appendLog(run, now, "Establishing secure connection")
	})

	go func() {
		err := proc.Wait()
		s.mu.Lock()
		delete(s.processes, run.ID)
		s.mu.Unlock()
		metricRunsActive.Dec()
		s.finish(run.ID, err)
	}()

	return &types.CreateRunResponse{ID: run.ID}, nil
}

// finish records the runner's exit. A cancelled run keeps its status.
func (s *Server) finish(id string, exitErr error) {
	run, err := s.registry.Update(id, func(run *types.Run, now time.Time) {
		run.Finished = &now
		run.Otp = nil
		switch {
		case run.Status == types.RunStatusCancelled:
		case exitErr == nil:
			run.Status = types.RunStatusCompleted
			run.Done = true
			run.ErrorType = ""
			run.ShowOtpModal = false
			appendLog(run, now, "Cookies acquired")
		default:
			run.Status = types.RunStatusError
			if run.ErrorType == "" || run.ErrorType == string(types.AuthErrorInvalidOtp) {
				run.ErrorType = string(types.AuthErrorGeneric)
				run.Error = fmt.Sprintf("runner failed: %s", exitErr)
			}
		}
	})
	if err != nil {
		return
	}
	metricRunsFinished.WithLabelValues(string(run.Status)).Inc()
	log.Info().Str("run_id", id).Str("status", string(run.Status)).Str("error_type", run.ErrorType).Msg("run finished")
}

func (s *Server) stop(id string) {
	s.mu.Lock()
	proc, ok := s.processes[id]
	s.mu.Unlock()
	if ok {
		go proc.Stop(stopGrace)
	}
}

func (s *Server) getRun(_ http.ResponseWriter, r *http.Request) (*types.Run, *system.HTTPError) {
	run, err := s.registry.Get(mux.Vars(r)["id"])
	if err != nil {
		return nil, system.NewHTTPError404(err.Error())
	}
	return &run, nil
}

func (s *Server) submitOtp(_ http.ResponseWriter, r *http.Request) (*types.OkResponse, *system.HTTPError) {
	var req types.SubmitOtpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, system.NewHTTPError400(fmt.Sprintf("invalid request: %s", err))
	}
	otp := strings.TrimSpace(req.Otp)
	if otp == "" {
		return nil, system.NewHTTPError400("otp is required")
	}

	id := mux.Vars(r)["id"]
	_, err := s.registry.Update(id, func(run *types.Run, _ time.Time) {
		run.Otp = &otp
		if !isTerminal(run.Status) {
			run.Status = types.RunStatusOtpSubmitted
		}
		run.OtpError = nil
		run.ShowOtpModal = false
		run.WaitingForOtpRetry = false
	})
	if err != nil {
		return nil, system.NewHTTPError404(err.Error())
	}
	metricOtpSubmissions.Inc()
	log.Info().Str("run_id", id).Str("otp", system.MaskSecret(otp)).Msg("OTP received")
	return &types.OkResponse{Ok: true}, nil
}

func (s *Server) cancelRun(_ http.ResponseWriter, r *http.Request) (*types.OkResponse, *system.HTTPError) {
	id := mux.Vars(r)["id"]
	_, err := s.registry.Update(id, func(run *types.Run, now time.Time) {
		if isTerminal(run.Status) {
			return
		}
		run.Status = types.RunStatusCancelled
		run.ErrorType = types.RunErrorCancelled
		run.Error = "Cookie acquisition was cancelled by user."
		run.ShowOtpModal = false
		appendLog(run, now, "Cookie acquisition cancelled by user. Cleaning up...")
	})
	if err != nil {
		return nil, system.NewHTTPError404(err.Error())
	}
	s.stop(id)
	return &types.OkResponse{Ok: true}, nil
}

func (s *Server) updateStatus(_ http.ResponseWriter, r *http.Request) (*types.OkResponse, *system.HTTPError) {
	var ev types.StatusEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		return nil, system.NewHTTPError400(fmt.Sprintf("invalid status update: %s", err))
	}

	id := mux.Vars(r)["id"]
	var exhausted bool
	run, err := s.registry.Update(id, func(run *types.Run, now time.Time) {
		exhausted = applyStatus(run, ev, now)
		if exhausted {
			run.Status = types.RunStatusError
		}
	})
	if err != nil {
		return nil, system.NewHTTPError404(err.Error())
	}

	label := "none"
	if ev.ErrorType != nil {
		label = string(*ev.ErrorType)
	}
	metricStatusUpdates.WithLabelValues(label).Inc()

	if exhausted {
		log.Warn().Str("run_id", id).Int("retries", run.OtpRetries).Msg("OTP retries exhausted, stopping runner")
		s.stop(id)
	}
	return &types.OkResponse{Ok: true}, nil
}

func (s *Server) getOtp(_ http.ResponseWriter, r *http.Request) (*types.OtpResponse, *system.HTTPError) {
	run, err := s.registry.Get(mux.Vars(r)["id"])
	if err != nil {
		return nil, system.NewHTTPError404(err.Error())
	}
	return &types.OtpResponse{
		Otp:                run.Otp,
		ShowOtpModal:       run.ShowOtpModal,
		OtpError:           run.OtpError,
		WaitingForOtpRetry: run.WaitingForOtpRetry,
	}, nil
}

func (s *Server) clearOtp(_ http.ResponseWriter, r *http.Request) (*types.OkResponse, *system.HTTPError) {
	_, err := s.registry.Update(mux.Vars(r)["id"], func(run *types.Run, _ time.Time) {
		run.Otp = nil
		run.OtpError = nil
	})
	if err != nil {
		return nil, system.NewHTTPError404(err.Error())
	}
	return &types.OkResponse{Ok: true}, nil
}
