package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeServer struct {
	mu       sync.Mutex
	events   []string
	startErr error
	stopped  chan struct{}
}

func newFakeServer(startErr error) *fakeServer {
	return &fakeServer{startErr: startErr, stopped: make(chan struct{})}
}

func (f *fakeServer) record(event string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeServer) Start() error {
	if f.startErr != nil {
		return f.startErr
	}
	<-f.stopped
	// Closing connections and the database outlives the listener.
	time.Sleep(20 * time.Millisecond)
	f.record("listener closed")
	return nil
}

func (f *fakeServer) Shutdown(context.Context) error {
	f.record("shutdown")
	close(f.stopped)
	return nil
}

func (f *fakeServer) tracing(context.Context) error {
	f.record("tracing flushed")
	return nil
}

func (f *fakeServer) recorded() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func TestServe_FlushesTracingAfterServerStops(t *testing.T) {
	srv := newFakeServer(nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- serve(ctx, srv, srv.tracing) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return")
	}
	assert.Equal(t, []string{"shutdown", "listener closed", "tracing flushed"}, srv.recorded())
}

func TestServe_ListenFailureStillReleasesResources(t *testing.T) {
	listenErr := errors.New("address already in use")
	srv := newFakeServer(listenErr)

	err := serve(context.Background(), srv, srv.tracing)
	assert.ErrorIs(t, err, listenErr)
	assert.Equal(t, []string{"shutdown", "tracing flushed"}, srv.recorded())
}
