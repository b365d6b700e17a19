package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
)

func stubServer(t *testing.T) {
	t.Helper()
	origListen := listenAndServe
	origExit := exitFunc
	t.Cleanup(func() {
		listenAndServe = origListen
		exitFunc = origExit
	})
}

func TestRunReturnsListenError(t *testing.T) {
	stubServer(t)
	listenAndServe = func(addr string, handler http.Handler) error {
		if handler == nil {
			t.Fatalf("expected handler")
		}
		if addr != ":9090" {
			t.Fatalf("expected addr :9090, got %s", addr)
		}
		return errors.New("boom")
	}
	exitFunc = func(error) {}

	t.Setenv("PORT", "9090")
	t.Setenv("REDIS_ADDR", "")

	if err := run(context.TODO()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestRunServesEditorRoutes(t *testing.T) {
	stubServer(t)
	var mux http.Handler
	listenAndServe = func(_ string, handler http.Handler) error {
		mux = handler
		return nil
	}

	t.Setenv("PORT", "9091")
	t.Setenv("REDIS_ADDR", "")

	if err := run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	for _, path := range []string{"/healthz", "/metrics", "/api/v1/sessions"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: expected 200, got %d", path, rec.Code)
		}
	}
}

func TestRunWithAnnouncer(t *testing.T) {
	stubServer(t)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	listenAndServe = func(addr string, handler http.Handler) error {
		if addr != ":8080" {
			t.Fatalf("expected default port, got %s", addr)
		}
		if handler == nil {
			t.Fatalf("handler nil")
		}
		return nil
	}

	t.Setenv("PORT", "")
	t.Setenv("REDIS_ADDR", mr.Addr())

	if err := run(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestRunRejectsInvalidPort(t *testing.T) {
	stubServer(t)
	listenAndServe = func(string, http.Handler) error {
		t.Fatal("server must not start with invalid config")
		return nil
	}

	t.Setenv("PORT", "not-a-port")
	t.Setenv("REDIS_ADDR", "")

	if err := run(context.Background()); err == nil {
		t.Fatalf("expected config error")
	}
}

func TestMainHandlesError(t *testing.T) {
	stubServer(t)
	listenAndServe = func(string, http.Handler) error { return errors.New("main boom") }
	var got error
	exitFunc = func(err error) { got = err }

	t.Setenv("PORT", "9092")
	t.Setenv("REDIS_ADDR", "")

	main()

	if got == nil || got.Error() != "main boom" {
		t.Fatalf("expected exitFunc to capture error, got %v", got)
	}
}

func TestMainCompletes(t *testing.T) {
	stubServer(t)
	listenAndServe = func(string, http.Handler) error { return nil }
	exitFunc = func(error) { t.Fatal("exitFunc should not be called") }

	t.Setenv("PORT", "9093")
	t.Setenv("REDIS_ADDR", "")

	main()
}
