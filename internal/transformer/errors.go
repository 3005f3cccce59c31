package transformer

import (
	"errors"
	"fmt"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/grid"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
)

var (
	// ErrNotConverged reports a backward iteration that ran out of budget.
	ErrNotConverged = errors.New("backward transformation did not converge")
	// ErrVerificationFailed reports a converged backward result whose round
	// trip exceeds the parameter precision bound.
	ErrVerificationFailed = errors.New("backward transformation failed verification")
	// ErrFormatNotSet is returned by Builder.Build when no format was chosen.
	ErrFormatNotSet = errors.New("format is not set")
)

// NotConvergedError carries the best candidate reached before the budget
// ran out; callers may accept it explicitly.
type NotConvergedError struct {
	Best       model.Point
	Iterations int
	Delta      model.Correction
}

func (e *NotConvergedError) Error() string {
	return fmt.Sprintf("%v after %d iterations (delta lat=%g lng=%g)",
		ErrNotConverged, e.Iterations, e.Delta.Latitude, e.Delta.Longitude)
}

func (e *NotConvergedError) Unwrap() error { return ErrNotConverged }

// VerificationError carries the unverified result and its round-trip residual.
type VerificationError struct {
	Point    model.Point
	Residual model.Correction
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%v (residual lat=%g lng=%g alt=%g)",
		ErrVerificationFailed, e.Residual.Latitude, e.Residual.Longitude, e.Residual.Altitude)
}

func (e *VerificationError) Unwrap() error { return ErrVerificationFailed }

// ErrorKind names the failure class of err for metrics and API responses.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, mesh.ErrOutOfRange):
		return "out_of_range"
	case errors.Is(err, grid.ErrParameterNotFound):
		return "parameter_not_found"
	case errors.Is(err, ErrNotConverged):
		return "not_converged"
	case errors.Is(err, ErrVerificationFailed):
		return "verification_failed"
	default:
		return "error"
	}
}
