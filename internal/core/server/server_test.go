package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/router"
	"github.com/mohammed-shakir/jgd-gridshift/internal/metrics"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

type emptyRegistry struct{}

func (emptyRegistry) Get(context.Context, transformer.Format) (*transformer.Transformer, error) {
	return transformer.NewBuilder().Format(transformer.TKY2JGD).Build()
}

type readiness bool

func (r readiness) Readiness() (bool, []string) { return bool(r), []string{"TKY2JGD"} }

func TestNewRouter_Routes(t *testing.T) {
	p := metrics.Init(metrics.Config{SkipRuntime: true})
	h := NewRouter(slog.Default(), Deps{
		Handlers: router.New(slog.Default(), emptyRegistry{}, transformer.DefaultOptions()),
		Ready:    readiness(false),
		Metrics:  p.Handler(),
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	for path, want := range map[string]int{
		"/healthz":                       http.StatusOK,
		"/readyz":                        http.StatusServiceUnavailable,
		"/v1/TKY2JGD/parameter/abc":      http.StatusBadRequest,
		"/v1/TKY2JGD/parameter/54401027": http.StatusNotFound,
		"/nope":                          http.StatusNotFound,
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		_ = resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("GET %s: status=%d want %d", path, resp.StatusCode, want)
		}
		if resp.Header.Get("X-Request-ID") == "" {
			t.Fatalf("GET %s: missing X-Request-ID", path)
		}
	}

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), `route="/readyz",status="503"`) {
		t.Fatalf("request metrics missing:\n%s", body)
	}
}
