// SPDX-License-Identifier: MPL-2.0

package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Start binds the listener and blocks until the server accepts requests,
// fails, or the startup timeout passes. Runtime failures after a successful
// start are delivered on Err.
func (s *Server) Start(ctx context.Context) error {
	if err := s.TransitionToStarting(ctx); err != nil {
		return err
	}

	startupCtx, cancel := context.WithTimeout(ctx, s.cfg.StartupTimeout)
	defer cancel()

	addr := s.listenAddr()
	var lc net.ListenConfig
	listener, err := lc.Listen(startupCtx, "tcp", addr)
	if err != nil {
		s.TransitionToFailed(fmt.Errorf("listen on %s: %w", addr, err))
		return s.LastError()
	}

	srv := &http.Server{
		Handler:      s.handler,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.ReadTimeout * 2,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.listener = listener
	s.addr = listener.Addr().String()
	s.srvMu.Unlock()

	s.AddGoroutine()
	go s.serve(srv, listener)

	select {
	case <-s.StartedChannel():
		s.logger.Info("http server started", "address", s.Address())
		return nil
	case err := <-s.Err():
		_ = srv.Close()
		s.TransitionToFailed(err)
		return err
	case <-startupCtx.Done():
		_ = srv.Close()
		s.TransitionToFailed(fmt.Errorf("startup timeout: %w", startupCtx.Err()))
		return s.LastError()
	}
}

// Stop drains in-flight requests within the shutdown timeout and cancels
// pending archive removals. Repeated calls are no-ops.
func (s *Server) Stop() error {
	if !s.TransitionToStopping() {
		s.WaitForShutdown()
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()

	var err error
	if srv != nil {
		if err = srv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown", "err", err)
			_ = srv.Close()
		}
	}

	s.WaitForShutdown()
	s.deps.Janitor.Stop()
	s.TransitionToStopped()
	s.CloseErrChannel()
	s.logger.Info("http server stopped")
	return err
}

// Run starts the server and serves until ctx is cancelled or the server
// fails, then stops it.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
	case err, ok := <-s.Err():
		if ok {
			runErr = err
		}
	}

	if err := s.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

func (s *Server) serve(srv *http.Server, listener net.Listener) {
	defer s.DoneGoroutine()

	s.TransitionToRunning()

	err := srv.Serve(listener)
	if err == nil || errors.Is(err, http.ErrServerClosed) || errors.Is(err, net.ErrClosed) {
		return
	}
	s.SendError(fmt.Errorf("serve: %w", err))
}
