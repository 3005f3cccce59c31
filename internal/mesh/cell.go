package mesh

import (
	"fmt"
	"math"
)

// Corner order used throughout the grid and interpolation code.
const (
	SouthWest = iota
	SouthEast
	NorthWest
	NorthEast
)

// Cell is the grid cell enclosing a point together with the point's
// fractional position inside it. X runs along longitude, Y along latitude,
// both in [0, 1).
type Cell struct {
	Unit    Unit
	Corners [4]Code
	X, Y    float64
}

// Origin returns the south-west corner code.
func (c Cell) Origin() Code { return c.Corners[SouthWest] }

// Locate finds the cell of unit u enclosing (lat, lng). A point on a grid
// line belongs to the cell whose south-west corner it lies on.
func Locate(lat, lng float64, u Unit) (Cell, error) {
	sw, err := NodeFromPoint(lat, lng, u)
	if err != nil {
		return Cell{}, err
	}
	north, err := sw.Latitude.Next(u)
	if err != nil {
		return Cell{}, fmt.Errorf("north edge of (%v, %v): %w", lat, lng, err)
	}
	east, err := sw.Longitude.Next(u)
	if err != nil {
		return Cell{}, fmt.Errorf("east edge of (%v, %v): %w", lat, lng, err)
	}

	// cell side in degrees is step/120 (lat) and step/80 (lng)
	latScale := 120 / float64(u.step())
	lngScale := 80 / float64(u.step())

	return Cell{
		Unit: u,
		Corners: [4]Code{
			SouthWest: sw.Code(),
			SouthEast: Node{Latitude: sw.Latitude, Longitude: east}.Code(),
			NorthWest: Node{Latitude: north, Longitude: sw.Longitude}.Code(),
			NorthEast: Node{Latitude: north, Longitude: east}.Code(),
		},
		X: clampUnit((lng - sw.Longitude.Longitude()) * lngScale),
		Y: clampUnit((lat - sw.Latitude.Latitude()) * latScale),
	}, nil
}

// clampUnit keeps rounding noise from pushing a fraction outside [0, 1).
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v >= 1 {
		return math.Nextafter(1, 0)
	}
	return v
}
