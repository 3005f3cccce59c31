package transformer

import (
	"maps"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/grid"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
)

// Builder accumulates parameters and a format, then finalises into an
// immutable Transformer.
type Builder struct {
	format Format
	params grid.MapStore
}

func NewBuilder() *Builder {
	return &Builder{params: grid.MapStore{}}
}

// WithCapacity preallocates room for n parameters.
func WithCapacity(n int) *Builder {
	if n < 0 {
		n = 0
	}
	return &Builder{params: make(grid.MapStore, n)}
}

func (b *Builder) Format(f Format) *Builder {
	b.format = f
	return b
}

// Parameter sets the correction of code; latitude and longitude in arcseconds.
func (b *Builder) Parameter(code mesh.Code, c model.Correction) *Builder {
	b.params[code] = c
	return b
}

func (b *Builder) Parameters(ps map[mesh.Code]model.Correction) *Builder {
	maps.Copy(b.params, ps)
	return b
}

func (b *Builder) Len() int { return len(b.params) }

// Build returns ErrFormatNotSet if Format was never called. The parameters
// are copied, so the builder may keep being used afterwards.
func (b *Builder) Build() (*Transformer, error) {
	if b.format == FormatUnknown {
		return nil, ErrFormatNotSet
	}
	return New(b.format, maps.Clone(b.params))
}
