package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
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

type fakeReporter struct {
	ready   bool
	formats []string
}

func (f fakeReporter) Readiness() (bool, []string) { return f.ready, f.formats }

func TestReadiness_Handler(t *testing.T) {
	cases := []struct {
		name string
		rep  fakeReporter
		code int
		body string
	}{
		{"ready", fakeReporter{true, []string{"SemiDynaEXE"}}, http.StatusOK, `{"status":"ready","formats":["SemiDynaEXE"]}`},
		{"not ready", fakeReporter{false, nil}, http.StatusServiceUnavailable, `{"status":"not_ready","formats":[]}`},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		Readiness(tc.rep)(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		if rr.Code != tc.code {
			t.Fatalf("%s: status=%d want %d", tc.name, rr.Code, tc.code)
		}
		if got := strings.TrimSpace(rr.Body.String()); got != tc.body {
			t.Fatalf("%s: body=%s want %s", tc.name, got, tc.body)
		}
	}
}
