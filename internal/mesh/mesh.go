// Package mesh maps geodetic positions onto the national standard mesh
// (JIS X 0410) used by the correction-parameter grids.
package mesh

import (
	"errors"
	"fmt"
	"math"
)

// ErrOutOfRange reports a coordinate or meshcode outside the supported domain.
var ErrOutOfRange = errors.New("out of mesh range")

// Supported domain in degrees.
const (
	MinLatitude  = 0.0
	MaxLatitude  = 66.666666666666
	MinLongitude = 100.0
	MaxLongitude = 180.0
)

// Unit is the grid resolution.
type Unit uint8

const (
	// UnitOne is the base cell, 30" latitude by 45" longitude.
	UnitOne Unit = 1
	// UnitFive is five base cells on each side.
	UnitFive Unit = 5
)

func (u Unit) String() string {
	switch u {
	case UnitOne:
		return "one"
	case UnitFive:
		return "five"
	default:
		return fmt.Sprintf("unit(%d)", uint8(u))
	}
}

func (u Unit) valid() bool { return u == UnitOne || u == UnitFive }

// step is the number of base cells per side.
func (u Unit) step() int { return int(u) }

// Coord is one axis of a meshcode: First 0..99, Second 0..7, Third 0..9.
type Coord struct {
	First  uint8
	Second uint8
	Third  uint8
}

// index counts base cells from the axis origin.
func (c Coord) index() int {
	return int(c.First)*80 + int(c.Second)*10 + int(c.Third)
}

func coordFromIndex(i int) (Coord, error) {
	if i < 0 || i >= 8000 {
		return Coord{}, fmt.Errorf("%w: coord index %d", ErrOutOfRange, i)
	}
	return Coord{
		First:  uint8(i / 80),
		Second: uint8(i % 80 / 10),
		Third:  uint8(i % 10),
	}, nil
}

func (c Coord) valid(u Unit) bool {
	if c.First > 99 || c.Second > 7 || c.Third > 9 {
		return false
	}
	if u == UnitFive {
		return c.Third == 0 || c.Third == 5
	}
	return true
}

// Next returns the adjacent coord toward north/east at unit u.
func (c Coord) Next(u Unit) (Coord, error) {
	if !u.valid() {
		return Coord{}, fmt.Errorf("invalid mesh unit %d", u)
	}
	return coordFromIndex(c.index() + u.step())
}

// Latitude of the south edge of cells with this coord.
func (c Coord) Latitude() float64 { return latitudeAt(c.index()) }

// Longitude of the west edge of cells with this coord.
func (c Coord) Longitude() float64 { return longitudeAt(c.index()) }

func latitudeAt(i int) float64  { return float64(i) / 120 }
func longitudeAt(i int) float64 { return 100 + float64(i)/80 }

// floorIndex truncates deg onto the base-cell lattice described by at. The
// initial guess is corrected against at itself so that encoding stays
// consistent with decoding on every grid line.
func floorIndex(deg, scale, offset float64, at func(int) float64) int {
	i := int(math.Floor((deg - offset) * scale))
	if i < 0 {
		i = 0
	}
	for i > 0 && at(i) > deg {
		i--
	}
	for at(i+1) <= deg {
		i++
	}
	return i
}

func snap(i int, u Unit) int { return i - i%u.step() }

// LatitudeCoord truncates a latitude to the coord of its enclosing cell.
func LatitudeCoord(deg float64, u Unit) (Coord, error) {
	if !u.valid() {
		return Coord{}, fmt.Errorf("invalid mesh unit %d", u)
	}
	if !(deg >= MinLatitude && deg <= MaxLatitude) {
		return Coord{}, fmt.Errorf("%w: latitude %v", ErrOutOfRange, deg)
	}
	return coordFromIndex(snap(floorIndex(deg, 120, 0, latitudeAt), u))
}

// LongitudeCoord truncates a longitude to the coord of its enclosing cell.
func LongitudeCoord(deg float64, u Unit) (Coord, error) {
	if !u.valid() {
		return Coord{}, fmt.Errorf("invalid mesh unit %d", u)
	}
	if !(deg >= MinLongitude && deg <= MaxLongitude) {
		return Coord{}, fmt.Errorf("%w: longitude %v", ErrOutOfRange, deg)
	}
	return coordFromIndex(snap(floorIndex(deg, 80, 100, longitudeAt), u))
}
