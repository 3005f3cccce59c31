// Package grid holds the published correction parameters keyed by meshcode.
package grid

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
)

// ErrParameterNotFound reports a meshcode without a published correction.
var ErrParameterNotFound = errors.New("parameter not found")

// Store is a read-only meshcode → correction mapping.
type Store interface {
	Lookup(code mesh.Code) (model.Correction, bool)
	Len() int
	// Range calls fn for every entry until fn returns false.
	Range(fn func(code mesh.Code, c model.Correction) bool)
}

// MapStore is the default in-memory Store.
type MapStore map[mesh.Code]model.Correction

func (m MapStore) Lookup(code mesh.Code) (model.Correction, bool) {
	c, ok := m[code]
	return c, ok
}

func (m MapStore) Len() int { return len(m) }

func (m MapStore) Range(fn func(mesh.Code, model.Correction) bool) {
	for k, v := range m {
		if !fn(k, v) {
			return
		}
	}
}

// MissingError lists the corners that have no published correction.
type MissingError struct {
	Codes []mesh.Code
}

func (e *MissingError) Error() string {
	parts := make([]string, len(e.Codes))
	for i, c := range e.Codes {
		parts[i] = c.String()
	}
	return fmt.Sprintf("%v: meshcode %s", ErrParameterNotFound, strings.Join(parts, ","))
}

func (e *MissingError) Unwrap() error { return ErrParameterNotFound }

// Grid is an immutable correction grid at a fixed mesh unit. It is safe for
// concurrent reads.
type Grid struct {
	unit  mesh.Unit
	store Store
}

func New(unit mesh.Unit, store Store) *Grid {
	if store == nil {
		store = MapStore{}
	}
	return &Grid{unit: unit, store: store}
}

func (g *Grid) Unit() mesh.Unit { return g.unit }

func (g *Grid) Len() int { return g.store.Len() }

// Get returns the published correction for code, if any.
func (g *Grid) Get(code mesh.Code) (model.Correction, bool) {
	return g.store.Lookup(code)
}

// Corners fetches the four corners of a cell in SW, SE, NW, NE order. A
// missing corner is reported, never filled with zero.
func (g *Grid) Corners(codes [4]mesh.Code) ([4]model.Correction, error) {
	var out [4]model.Correction
	var missing []mesh.Code
	for i, code := range codes {
		c, ok := g.store.Lookup(code)
		if !ok {
			missing = append(missing, code)
			continue
		}
		out[i] = c
	}
	if len(missing) > 0 {
		return out, &MissingError{Codes: missing}
	}
	return out, nil
}

// Codes returns every meshcode in ascending order.
func (g *Grid) Codes() []mesh.Code {
	out := make([]mesh.Code, 0, g.store.Len())
	g.store.Range(func(code mesh.Code, _ model.Correction) bool {
		out = append(out, code)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Range walks the grid entries in unspecified order.
func (g *Grid) Range(fn func(code mesh.Code, c model.Correction) bool) {
	g.store.Range(fn)
}
