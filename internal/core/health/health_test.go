package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestLiveness_Handler(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	Liveness()(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d want 200", rr.Code)
	}
	ct := rr.Header().Get("Content-Type")
	if !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("content-type=%q want text/plain", ct)
	}
	if got := strings.TrimSpace(rr.Body.String()); got != "ok" {
		t.Fatalf("body=%q want ok", got)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestReadiness(t *testing.T) {
	up := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	cases := []struct {
		name    string
		pingers map[string]Pinger
		code    int
		status  string
	}{
		{"all up", map[string]Pinger{"db": up}, http.StatusOK, "ready"},
		{"db down", map[string]Pinger{"db": down, "redis": up}, http.StatusServiceUnavailable, "not_ready"},
		{"none", nil, http.StatusOK, "ready"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			Readiness(time.Second, c.pingers)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
			if rr.Code != c.code {
				t.Fatalf("status=%d want %d", rr.Code, c.code)
			}
			var body struct {
				Status string            `json:"status"`
				Failed map[string]string `json:"failed"`
			}
			if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Status != c.status {
				t.Fatalf("status=%q want %q", body.Status, c.status)
			}
			if c.code != http.StatusOK && body.Failed["db"] == "" {
				t.Fatalf("failed pinger not reported: %+v", body.Failed)
			}
		})
	}
}
