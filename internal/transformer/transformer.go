// Package transformer converts points between datums with a correction grid.
package transformer

import (
	"fmt"
	"math"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/grid"
	"github.com/mohammed-shakir/jgd-gridshift/internal/interpol"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
)

// Iteration budget and precision bounds of the backward transformation.
// Published parameters carry five decimals (0.00001" and 0.00001 m); the
// convergence tolerance sits just below that precision in degrees.
const (
	MaxIterations        = 10
	ConvergenceTolerance = 2.5e-9
	VerificationEpsilon  = 1e-5 / interpol.ArcsecPerDegree
	AltitudeEpsilon      = 1e-5
)

// Options tunes a single backward call.
type Options struct {
	MaxIterations int
	Tolerance     float64
}

// DefaultOptions matches Backward.
func DefaultOptions() Options {
	return Options{MaxIterations: MaxIterations, Tolerance: ConvergenceTolerance}
}

func (o Options) normalize() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = MaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = ConvergenceTolerance
	}
	return o
}

// Transformer owns one immutable grid. Every method is stateless and safe for
// concurrent use.
type Transformer struct {
	spec Spec
	grid *grid.Grid
}

// New wraps store as a grid of the given format.
func New(format Format, store grid.Store) (*Transformer, error) {
	spec, ok := format.Spec()
	if !ok {
		return nil, fmt.Errorf("new transformer: unknown format %d", uint8(format))
	}
	return &Transformer{spec: spec, grid: grid.New(spec.Unit, store)}, nil
}

func (t *Transformer) Spec() Spec { return t.spec }

func (t *Transformer) Format() Format { return t.spec.Format }

func (t *Transformer) Unit() mesh.Unit { return t.spec.Unit }

func (t *Transformer) Len() int { return t.grid.Len() }

func (t *Transformer) Grid() *grid.Grid { return t.grid }

// Get returns the published parameter for code.
func (t *Transformer) Get(code mesh.Code) (model.Correction, bool) {
	return t.grid.Get(code)
}

// ForwardCorrection is the interpolated correction at p, in degrees and meters.
func (t *Transformer) ForwardCorrection(p model.Point) (model.Correction, error) {
	cell, err := mesh.Locate(p.Latitude, p.Longitude, t.spec.Unit)
	if err != nil {
		return model.Correction{}, fmt.Errorf("locate cell: %w", err)
	}
	corners, err := t.grid.Corners(cell.Corners)
	if err != nil {
		return model.Correction{}, err
	}
	return interpol.Interpolate(corners, cell.X, cell.Y), nil
}

// Forward moves p from the source datum to the target datum.
func (t *Transformer) Forward(p model.Point) (model.Point, error) {
	c, err := t.ForwardCorrection(p)
	if err != nil {
		return model.Point{}, err
	}
	return p.Add(c), nil
}

// Backward recovers the source-datum point whose forward image is p.
func (t *Transformer) Backward(p model.Point) (model.Point, error) {
	q, _, err := t.BackwardWith(p, DefaultOptions())
	return q, err
}

// BackwardWith is Backward with a caller-chosen budget and tolerance. It also
// reports how many iterations were spent. Non-positive fields fall back to
// the defaults.
func (t *Transformer) BackwardWith(p model.Point, opts Options) (model.Point, int, error) {
	r, err := t.backward(p, opts.normalize())
	return r.point, r.iterations, err
}

// BackwardCorrection is the correction that Backward applies to p.
func (t *Transformer) BackwardCorrection(p model.Point) (model.Correction, error) {
	q, err := t.Backward(p)
	if err != nil {
		return model.Correction{}, err
	}
	return q.Sub(p), nil
}

// BackwardSafe runs Backward and accepts the result only if re-applying
// Forward lands within the parameter precision of p.
func (t *Transformer) BackwardSafe(p model.Point) (model.Point, error) {
	q, _, err := t.BackwardSafeWith(p, DefaultOptions())
	return q, err
}

// BackwardSafeWith is BackwardSafe with caller-chosen iteration options. The
// verification bounds are fixed regardless of opts.
func (t *Transformer) BackwardSafeWith(p model.Point, opts Options) (model.Point, int, error) {
	r, err := t.backward(p, opts.normalize())
	if err != nil {
		return model.Point{}, r.iterations, err
	}
	again, err := t.Forward(r.point)
	if err != nil {
		return model.Point{}, r.iterations, fmt.Errorf("verify: %w", err)
	}
	res := p.Sub(again)
	if math.Abs(res.Latitude) > VerificationEpsilon ||
		math.Abs(res.Longitude) > VerificationEpsilon ||
		math.Abs(res.Altitude) > AltitudeEpsilon {
		return model.Point{}, r.iterations, &VerificationError{Point: r.point, Residual: res}
	}
	return r.point, r.iterations, nil
}

type backwardResult struct {
	point      model.Point
	iterations int
}

// backward solves q + corr(q) = p by fixed-point iteration on the horizontal
// position. The correction field is evaluated at the source coordinate, so
// there is no closed form. Altitude follows from the converged position.
func (t *Transformer) backward(p model.Point, opts Options) (backwardResult, error) {
	cand := model.Point{Latitude: p.Latitude, Longitude: p.Longitude}
	var delta model.Correction
	for i := 1; i <= opts.MaxIterations; i++ {
		c, err := t.ForwardCorrection(cand)
		if err != nil {
			return backwardResult{iterations: i}, err
		}
		delta = model.Correction{
			Latitude:  p.Latitude - (cand.Latitude + c.Latitude),
			Longitude: p.Longitude - (cand.Longitude + c.Longitude),
		}
		cand.Latitude += delta.Latitude
		cand.Longitude += delta.Longitude

		if math.Abs(delta.Latitude) < opts.Tolerance && math.Abs(delta.Longitude) < opts.Tolerance {
			c, err := t.ForwardCorrection(cand)
			if err != nil {
				return backwardResult{iterations: i}, err
			}
			cand.Altitude = p.Altitude - c.Altitude
			return backwardResult{point: cand, iterations: i}, nil
		}
	}
	best := cand
	if c, err := t.ForwardCorrection(cand); err == nil {
		best.Altitude = p.Altitude - c.Altitude
	}
	return backwardResult{iterations: opts.MaxIterations}, &NotConvergedError{
		Best:       best,
		Iterations: opts.MaxIterations,
		Delta:      delta,
	}
}
