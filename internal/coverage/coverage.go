// Package coverage summarizes where a parameter grid publishes corrections,
// as a bounding box and a set of H3 cells.
package coverage

import (
	"fmt"
	"math"
	"slices"

	h3 "github.com/uber/h3-go/v4"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// DefaultResolution keeps a full national grid to a few thousand cells.
const DefaultResolution = 4

type BBox struct {
	South float64 `json:"south"`
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
}

type Summary struct {
	Format     string   `json:"format"`
	Unit       string   `json:"unit"`
	Entries    int      `json:"entries"`
	BBox       *BBox    `json:"bbox,omitempty"`
	Resolution int      `json:"resolution"`
	Cells      []string `json:"cells"`
}

func validateRes(res int) error {
	if res < 0 || res > 15 {
		return fmt.Errorf("invalid H3 resolution %d (must be 0..15)", res)
	}
	return nil
}

// Summarize walks every published node of t. Cells are the sorted, unique H3
// cells at res containing a node.
func Summarize(t *transformer.Transformer, res int) (Summary, error) {
	if err := validateRes(res); err != nil {
		return Summary{}, err
	}
	s := Summary{
		Format:     t.Format().String(),
		Unit:       t.Unit().String(),
		Entries:    t.Len(),
		Resolution: res,
		Cells:      []string{},
	}
	if t.Len() == 0 {
		return s, nil
	}

	bb := BBox{South: math.Inf(1), West: math.Inf(1), North: math.Inf(-1), East: math.Inf(-1)}
	seen := make(map[h3.Cell]struct{})
	var walkErr error
	t.Grid().Range(func(code mesh.Code, _ model.Correction) bool {
		p, err := mesh.ToPoint(code)
		if err != nil {
			walkErr = err
			return false
		}
		bb.South = min(bb.South, p.Latitude)
		bb.North = max(bb.North, p.Latitude)
		bb.West = min(bb.West, p.Longitude)
		bb.East = max(bb.East, p.Longitude)

		c, err := h3.LatLngToCell(h3.LatLng{Lat: p.Latitude, Lng: p.Longitude}, res)
		if err != nil {
			walkErr = fmt.Errorf("h3 cell for %v: %w", code, err)
			return false
		}
		seen[c] = struct{}{}
		return true
	})
	if walkErr != nil {
		return Summary{}, walkErr
	}

	s.BBox = &bb
	s.Cells = make([]string, 0, len(seen))
	for c := range seen {
		s.Cells = append(s.Cells, c.String())
	}
	slices.Sort(s.Cells)
	return s, nil
}

// Covers reports whether the H3 cell containing (lat, lng) is in s.
func (s Summary) Covers(lat, lng float64) (bool, error) {
	c, err := h3.LatLngToCell(h3.LatLng{Lat: lat, Lng: lng}, s.Resolution)
	if err != nil {
		return false, fmt.Errorf("h3 cell: %w", err)
	}
	_, found := slices.BinarySearch(s.Cells, c.String())
	return found, nil
}
