// MusicScope - Music Chart Analytics Backend
// Copyright 2026 MusicScope Authors
// SPDX-License-Identifier: MIT
// https://github.com/musicscope/musicscope

package supervisor

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"
)

type fakeHTTPServer struct {
	listenErr    error
	shutdownErr  error
	shutdownDone chan struct{}
	listening    chan struct{}
}

func newFakeHTTPServer() *fakeHTTPServer {
	return &fakeHTTPServer{
		shutdownDone: make(chan struct{}),
		listening:    make(chan struct{}),
	}
}

func (f *fakeHTTPServer) ListenAndServe() error {
	close(f.listening)
	if f.listenErr != nil {
		return f.listenErr
	}
	<-f.shutdownDone
	return http.ErrServerClosed
}

func (f *fakeHTTPServer) Shutdown(ctx context.Context) error {
	close(f.shutdownDone)
	return f.shutdownErr
}

func TestHTTPServerServiceImplementsSutureService(t *testing.T) {
	var _ suture.Service = (*HTTPServerService)(nil)
}

func TestHTTPServerServiceGracefulShutdown(t *testing.T) {
	srv := newFakeHTTPServer()
	svc := NewHTTPServerService(srv, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	select {
	case <-srv.listening:
	case <-time.After(time.Second):
		t.Fatal("server never started listening")
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestHTTPServerServiceStartupFailure(t *testing.T) {
	srv := newFakeHTTPServer()
	srv.listenErr = errors.New("port in use")
	svc := NewHTTPServerService(srv, time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, srv.listenErr) {
		t.Errorf("Serve() = %v, want wrapped listen error", err)
	}
}

func TestHTTPServerServiceString(t *testing.T) {
	if got := NewHTTPServerService(newFakeHTTPServer(), 0).String(); got != "http-server" {
		t.Errorf("String() = %q, want http-server", got)
	}
}
