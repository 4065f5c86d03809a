package httpserver

import (
	"context"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"
)

type testLogger struct {
	mu   sync.Mutex
	logs []string
}

func (l *testLogger) Printf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logs = append(l.logs, format)
}

func TestNewAppliesDefaults(t *testing.T) {
	srv, err := New(Config{Port: ":8080"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if srv.httpServer == nil {
		t.Fatalf("expected underlying http server to be configured")
	}
	if srv.httpServer.Handler == nil {
		t.Fatalf("expected default handler to be applied")
	}
	if srv.Addr != defaultAddr {
		t.Fatalf("expected default addr %q, got %q", defaultAddr, srv.Addr)
	}
	if srv.httpServer.WriteTimeout != defaultWriteTimeout {
		t.Fatalf("expected default write timeout, got %s", srv.httpServer.WriteTimeout)
	}
}

func TestNewRequiresPort(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error when port missing")
	}
}

func TestListenAddrJoinsHostAndPort(t *testing.T) {
	srv, err := New(Config{Addr: "0.0.0.0", Port: ":9000"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := srv.listenAddr(); got != "0.0.0.0:9000" {
		t.Fatalf("expected 0.0.0.0:9000, got %q", got)
	}
}

func TestListenAndServeWithDefaultHandler(t *testing.T) {
	logger := &testLogger{}
	srv, err := New(Config{Port: ":0", Logger: logger})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe() }()

	deadline := time.Now().Add(2 * time.Second)
	for srv.ListenAddr() == nil {
		if time.Now().After(deadline) {
			t.Fatal("server failed to start")
		}
		time.Sleep(10 * time.Millisecond)
	}

	resp, err := http.Get("http://" + srv.ListenAddr().String())
	if err != nil {
		t.Fatalf("failed to query server: %v", err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read response: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if string(body) != "OK" {
		t.Fatalf("unexpected body %q", string(body))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown server: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("listen returned error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("server did not shut down")
	}
}
