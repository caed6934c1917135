package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/octobees/orgscout/internal/config"
)

func fastConfig() config.ScraperConfig {
	return config.ScraperConfig{DelayMS: 1, BackoffMS: 1, UARotation: false}
}

func TestGetOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") == "" {
			t.Error("no User-Agent sent")
		}
		w.Write([]byte("<html>hello</html>"))
	}))
	defer srv.Close()

	c := New(fastConfig())
	page, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if page.StatusCode != http.StatusOK || page.Body != "<html>hello</html>" {
		t.Fatalf("page = %+v", page)
	}
}

func TestGetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	c := New(fastConfig())
	page, err := c.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if page == nil || page.StatusCode != http.StatusNotFound {
		t.Fatalf("page = %+v", page)
	}
}

func TestThrottledNoRetry(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := New(fastConfig())
	_, err := c.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrThrottled) {
		t.Fatalf("err = %v, want ErrThrottled", err)
	}
	if hits != 1 {
		t.Fatalf("throttled URL was retried: %d hits", hits)
	}
	// The next request still goes through after the backoff.
	if _, err := c.Get(context.Background(), srv.URL); !errors.Is(err, ErrThrottled) {
		t.Fatalf("second request err = %v", err)
	}
	if hits != 2 {
		t.Fatalf("hits = %d, want 2", hits)
	}
}

func TestRetriesTransportError(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			// Drop the connection mid-request to force a transport error.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Error("response writer is not hijackable")
				return
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Errorf("hijack: %v", err)
				return
			}
			conn.Close()
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.MaxRetries = 2
	c := New(cfg)
	page, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Get after retry: %v", err)
	}
	if page.Body != "recovered" {
		t.Fatalf("body = %q", page.Body)
	}
	if hits != 2 {
		t.Fatalf("hits = %d, want 2", hits)
	}
}

func TestRetriesExhausted(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer is not hijackable")
			return
		}
		conn, _, err := hj.Hijack()
		if err != nil {
			t.Errorf("hijack: %v", err)
			return
		}
		conn.Close()
	}))
	defer srv.Close()

	cfg := fastConfig()
	cfg.MaxRetries = 1
	c := New(cfg)
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error after retries exhausted")
	}
	if hits != 2 {
		t.Fatalf("hits = %d, want 2", hits)
	}
}

func TestGetHonorsCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(fastConfig())
	if _, err := c.Get(ctx, srv.URL); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestServerErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(fastConfig())
	page, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatal("expected error for 500")
	}
	if page.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status = %d", page.StatusCode)
	}
}
