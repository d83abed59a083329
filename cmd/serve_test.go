package main

import (
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShutdownServerDrainsInFlightRequests(t *testing.T) {
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: mux}

	served := make(chan error, 1)
	go func() { served <- srv.Serve(ln) }()

	resp := make(chan error, 1)
	go func() {
		r, err := http.Get(fmt.Sprintf("http://%s/slow", ln.Addr()))
		if err == nil {
			r.Body.Close()
			if r.StatusCode != http.StatusOK {
				err = fmt.Errorf("status %d", r.StatusCode)
			}
		}
		resp <- err
	}()

	// Let the request reach the handler, then shut down while it is
	// still in flight and release it mid-drain.
	time.Sleep(50 * time.Millisecond)
	done := make(chan struct{})
	go func() {
		shutdownServer(srv)
		close(done)
	}()
	time.Sleep(50 * time.Millisecond)
	close(release)

	select {
	case err := <-resp:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("request was not drained")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown did not return")
	}
	assert.ErrorIs(t, <-served, http.ErrServerClosed)
}
