package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/config"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/observability"
	"github.com/mohammed-shakir/jgd-gridshift/internal/coverage"
	"github.com/mohammed-shakir/jgd-gridshift/internal/grid"
	mylog "github.com/mohammed-shakir/jgd-gridshift/internal/logger"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// Op names a transformation direction.
type Op string

const (
	OpForward      Op = "forward"
	OpBackward     Op = "backward"
	OpBackwardSafe Op = "backward_safe"
)

// Transformers resolves a format to its loaded transformer; implemented by
// registry.Registry.
type Transformers interface {
	Get(ctx context.Context, f transformer.Format) (*transformer.Transformer, error)
}

type Handlers struct {
	log  *slog.Logger
	reg  Transformers
	opts transformer.Options
}

func New(logger *slog.Logger, reg Transformers, opts transformer.Options) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{log: logger, reg: reg, opts: opts}
}

// Mount registers the /v1 routes on r.
func (h *Handlers) Mount(r chi.Router) {
	r.Route("/v1/{format}", func(r chi.Router) {
		r.Get("/forward", h.Transform(OpForward))
		r.Get("/backward", h.Transform(OpBackward))
		r.Get("/backward_safe", h.Transform(OpBackwardSafe))
		r.Get("/parameter/{meshcode}", h.Parameter())
		r.Get("/coverage", h.Coverage())
	})
}

type errorBody struct {
	Error string       `json:"error"`
	Kind  string       `json:"kind"`
	Best  *model.Point `json:"best,omitempty"`
	// Unverified is the converged backward result that failed its round trip.
	Unverified *model.Point `json:"unverified,omitempty"`
}

type transformBody struct {
	Format     string      `json:"format"`
	Op         Op          `json:"op"`
	Input      model.Point `json:"input"`
	Output     model.Point `json:"output"`
	Iterations int         `json:"iterations,omitempty"`
}

type parameterBody struct {
	Format    string           `json:"format"`
	Meshcode  string           `json:"meshcode"`
	Point     model.Point      `json:"point"`
	Parameter model.Correction `json:"parameter"`
}

// Transform serves one direction for the format in the path.
func (h *Handlers) Transform(op Op) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := h.format(w, r)
		if !ok {
			return
		}
		p, err := ParsePoint(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		ctx := mylog.WithOp(mylog.WithFormat(r.Context(), f.String()), string(op))
		t, ok := h.load(ctx, w, f)
		if !ok {
			return
		}

		start := time.Now()
		out, iters, err := h.apply(t, op, p)
		kind := transformer.ErrorKind(err)
		observability.ObserveTransform(f.String(), string(op), kind, time.Since(start).Seconds())
		if op != OpForward {
			observability.ObserveBackwardIterations(f.String(), iters)
		}
		if err != nil {
			body := errorBody{Error: err.Error(), Kind: kind}
			var nc *transformer.NotConvergedError
			var ve *transformer.VerificationError
			switch {
			case errors.As(err, &nc):
				body.Best = &nc.Best
			case errors.As(err, &ve):
				body.Unverified = &ve.Point
			}
			h.log.DebugContext(ctx, "transform failed", "kind", kind, "point", p.String(), "err", err)
			writeJSON(w, statusFor(kind), body)
			return
		}
		writeJSON(w, http.StatusOK, transformBody{
			Format: f.String(), Op: op, Input: p, Output: out, Iterations: iters,
		})
	}
}

func (h *Handlers) apply(t *transformer.Transformer, op Op, p model.Point) (model.Point, int, error) {
	switch op {
	case OpBackward:
		return t.BackwardWith(p, h.opts)
	case OpBackwardSafe:
		return t.BackwardSafeWith(p, h.opts)
	default:
		out, err := t.Forward(p)
		return out, 0, err
	}
}

// Parameter returns the published correction for one meshcode.
func (h *Handlers) Parameter() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := h.format(w, r)
		if !ok {
			return
		}
		code, err := mesh.ParseCode(chi.URLParam(r, "meshcode"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		node, err := mesh.NodeOf(code)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		t, ok := h.load(r.Context(), w, f)
		if !ok {
			return
		}
		c, found := t.Get(code)
		if !found {
			err := fmt.Errorf("meshcode %v: %w", code, grid.ErrParameterNotFound)
			writeError(w, http.StatusNotFound, "parameter_not_found", err)
			return
		}
		writeJSON(w, http.StatusOK, parameterBody{
			Format: f.String(), Meshcode: code.String(), Point: node.Point(), Parameter: c,
		})
	}
}

// Coverage summarizes the published area of a format.
func (h *Handlers) Coverage() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, ok := h.format(w, r)
		if !ok {
			return
		}
		res := coverage.DefaultResolution
		if v := strings.TrimSpace(r.URL.Query().Get("res")); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				writeError(w, http.StatusBadRequest, "bad_request", fmt.Errorf("res: %w", err))
				return
			}
			res = n
		}
		t, ok := h.load(r.Context(), w, f)
		if !ok {
			return
		}
		s, err := coverage.Summarize(t, res)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", err)
			return
		}
		writeJSON(w, http.StatusOK, s)
	}
}

func (h *Handlers) format(w http.ResponseWriter, r *http.Request) (transformer.Format, bool) {
	f, err := transformer.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return f, false
	}
	return f, true
}

func (h *Handlers) load(ctx context.Context, w http.ResponseWriter, f transformer.Format) (*transformer.Transformer, bool) {
	t, err := h.reg.Get(ctx, f)
	switch {
	case err == nil:
		return t, true
	case errors.Is(err, config.ErrNoSource):
		writeError(w, http.StatusNotFound, "format_unavailable", err)
	default:
		h.log.ErrorContext(ctx, "load grid", "format", f.String(), "err", err)
		writeError(w, http.StatusServiceUnavailable, "grid_unavailable", err)
	}
	return nil, false
}

// ParsePoint reads lat, lon and optional alt (meters, default 0) from the
// query string.
func ParsePoint(r *http.Request) (model.Point, error) {
	q := r.URL.Query()
	lat, err := parseFloat(q.Get("lat"), "lat", true)
	if err != nil {
		return model.Point{}, err
	}
	lon, err := parseFloat(q.Get("lon"), "lon", true)
	if err != nil {
		return model.Point{}, err
	}
	alt, err := parseFloat(q.Get("alt"), "alt", false)
	if err != nil {
		return model.Point{}, err
	}
	return model.Point{Latitude: lat, Longitude: lon, Altitude: alt}, nil
}

func parseFloat(v, name string, required bool) (float64, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		if required {
			return 0, fmt.Errorf("missing required parameter: %s", name)
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: parse float: %w", name, err)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: must be finite", name)
	}
	return f, nil
}

func statusFor(kind string) int {
	switch kind {
	case "out_of_range", "parameter_not_found", "not_converged", "verification_failed":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, code int, kind string, err error) {
	writeJSON(w, code, errorBody{Error: err.Error(), Kind: kind})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
