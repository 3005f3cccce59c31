// Package interpol blends the four corner corrections of a mesh cell.
package interpol

import (
	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
)

// ArcsecPerDegree converts grid latitude/longitude values to degrees.
const ArcsecPerDegree = 3600.0

// Bilinear weights sw, se, nw, ne by their distance to (x, y).
func Bilinear(sw, se, nw, ne, x, y float64) float64 {
	return sw*(1-x)*(1-y) + se*x*(1-y) + nw*(1-x)*y + ne*x*y
}

// Interpolate returns the correction at (x, y) inside a cell whose corners
// are given in SW, SE, NW, NE order. Latitude and longitude come back in
// degrees, altitude in meters.
func Interpolate(c [4]model.Correction, x, y float64) model.Correction {
	sw, se, nw, ne := c[mesh.SouthWest], c[mesh.SouthEast], c[mesh.NorthWest], c[mesh.NorthEast]
	return model.Correction{
		Latitude:  Bilinear(sw.Latitude, se.Latitude, nw.Latitude, ne.Latitude, x, y) / ArcsecPerDegree,
		Longitude: Bilinear(sw.Longitude, se.Longitude, nw.Longitude, ne.Longitude, x, y) / ArcsecPerDegree,
		Altitude:  Bilinear(sw.Altitude, se.Altitude, nw.Altitude, ne.Altitude, x, y),
	}
}
