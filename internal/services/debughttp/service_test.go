package debughttp

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "schedd/pkg/logx"
)

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestStartServesHealthAndStatus(t *testing.T) {
	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, logx.Nop(), nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.Start(ctx)
	addr := s.Addr()
	if addr == "" {
		t.Fatal("server did not bind")
	}
	defer s.Stop(context.Background())

	if resp := get(t, fmt.Sprintf("http://%s/healthz", addr)); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz = %d", resp.StatusCode)
	}
	// Without a runner and store the status endpoints are 404, not 500.
	if resp := get(t, fmt.Sprintf("http://%s/debug/jobs", addr)); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("jobs = %d", resp.StatusCode)
	}
	if resp := get(t, fmt.Sprintf("http://%s/debug/runs", addr)); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("runs = %d", resp.StatusCode)
	}
}

func TestStopIsIdempotent(t *testing.T) {
	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, logx.Nop(), nil, nil)
	ctx := context.Background()
	s.Start(ctx)
	s.Stop(ctx)
	s.Stop(ctx)
	if got := s.Addr(); got != "" {
		t.Fatalf("still bound to %q after Stop", got)
	}
}

func TestReconfigureDisableStopsServer(t *testing.T) {
	s := New(Config{Enabled: true, Addr: "127.0.0.1:0"}, logx.Nop(), nil, nil)
	ctx := context.Background()
	s.Start(ctx)
	if s.Addr() == "" {
		t.Fatal("server did not bind")
	}
	s.Reconfigure(ctx, Config{Enabled: false})
	if got := s.Addr(); got != "" {
		t.Fatalf("still bound to %q after disable", got)
	}
}

func TestRefusesNonLoopbackWithoutToken(t *testing.T) {
	s := New(Config{Enabled: true, Addr: "0.0.0.0:0"}, logx.Nop(), nil, nil)
	s.Start(context.Background())
	if got := s.Addr(); got != "" {
		s.Stop(context.Background())
		t.Fatalf("bound to %q without token", got)
	}
}

func TestWithAuth(t *testing.T) {
	t.Parallel()
	h := withAuth("s3cret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	cases := []struct {
		name   string
		target string
		header string
		want   int
	}{
		{name: "no credentials", target: "/debug/jobs", want: http.StatusUnauthorized},
		{name: "query token", target: "/debug/jobs?token=s3cret", want: http.StatusOK},
		{name: "wrong query token", target: "/debug/jobs?token=nope", want: http.StatusUnauthorized},
		{name: "bearer", target: "/debug/jobs", header: "Bearer s3cret", want: http.StatusOK},
		{name: "wrong bearer", target: "/debug/jobs", header: "Bearer nope", want: http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)
			if rec.Code != tc.want {
				t.Fatalf("code = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}
