package mesh

import (
	"fmt"
	"strconv"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
)

// Code is an eight-digit meshcode.
type Code uint32

// MaxCode is the largest value an eight-digit meshcode can take.
const MaxCode Code = 99_99_7_7_9_9

func (c Code) String() string { return strconv.FormatUint(uint64(c), 10) }

// ParseCode parses a decimal meshcode.
func ParseCode(s string) (Code, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse meshcode %q: %w", s, err)
	}
	if _, err := NodeOf(Code(n)); err != nil {
		return 0, err
	}
	return Code(n), nil
}

// Node is a grid vertex.
type Node struct {
	Latitude  Coord
	Longitude Coord
}

// Code packs the node as lat.First lng.First lat.Second lng.Second lat.Third lng.Third.
func (n Node) Code() Code {
	return Code(uint32(n.Latitude.First)*1_000_000 +
		uint32(n.Longitude.First)*10_000 +
		uint32(n.Latitude.Second)*1_000 +
		uint32(n.Longitude.Second)*100 +
		uint32(n.Latitude.Third)*10 +
		uint32(n.Longitude.Third))
}

// Point returns the node position with zero altitude.
func (n Node) Point() model.Point {
	return model.Point{Latitude: n.Latitude.Latitude(), Longitude: n.Longitude.Longitude()}
}

// NodeOf decodes a meshcode.
func NodeOf(code Code) (Node, error) {
	if code > MaxCode {
		return Node{}, fmt.Errorf("%w: meshcode %d", ErrOutOfRange, code)
	}
	v := uint32(code)
	n := Node{
		Latitude: Coord{
			First:  uint8(v / 1_000_000),
			Second: uint8(v / 1_000 % 10),
			Third:  uint8(v / 10 % 10),
		},
		Longitude: Coord{
			First:  uint8(v / 10_000 % 100),
			Second: uint8(v / 100 % 10),
			Third:  uint8(v % 10),
		},
	}
	if !n.Latitude.valid(UnitOne) || !n.Longitude.valid(UnitOne) {
		return Node{}, fmt.Errorf("%w: meshcode %d", ErrOutOfRange, code)
	}
	if lng := n.Longitude.Longitude(); lng > MaxLongitude {
		return Node{}, fmt.Errorf("%w: meshcode %d", ErrOutOfRange, code)
	}
	return n, nil
}

// IsUnit reports whether the node lies on the lattice of unit u.
func (n Node) IsUnit(u Unit) bool {
	return n.Latitude.valid(u) && n.Longitude.valid(u)
}

// NodeFromPoint truncates a position onto the grid of unit u.
func NodeFromPoint(lat, lng float64, u Unit) (Node, error) {
	la, err := LatitudeCoord(lat, u)
	if err != nil {
		return Node{}, err
	}
	lo, err := LongitudeCoord(lng, u)
	if err != nil {
		return Node{}, err
	}
	return Node{Latitude: la, Longitude: lo}, nil
}

// FromPoint returns the meshcode of the cell enclosing (lat, lng) at unit u.
// Truncation is always toward the south-west corner.
func FromPoint(lat, lng float64, u Unit) (Code, error) {
	n, err := NodeFromPoint(lat, lng, u)
	if err != nil {
		return 0, err
	}
	return n.Code(), nil
}

// ToPoint returns the south-west origin of the cell identified by code.
func ToPoint(code Code) (model.Point, error) {
	n, err := NodeOf(code)
	if err != nil {
		return model.Point{}, err
	}
	return n.Point(), nil
}
