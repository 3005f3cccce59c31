// Package model defines core domain types shared across the service.
package model

import "fmt"

// Point is a geodetic position: latitude and longitude in degrees, altitude in meters.
type Point struct {
	Latitude  float64 `json:"latitude" msgpack:"latitude"`
	Longitude float64 `json:"longitude" msgpack:"longitude"`
	Altitude  float64 `json:"altitude" msgpack:"altitude"`
}

// String representation in lat,lon,alt order
func (p Point) String() string {
	return fmt.Sprintf("%.12f,%.12f,%.6f", p.Latitude, p.Longitude, p.Altitude)
}

// Add applies a correction expressed in degrees/meters.
func (p Point) Add(c Correction) Point {
	return Point{
		Latitude:  p.Latitude + c.Latitude,
		Longitude: p.Longitude + c.Longitude,
		Altitude:  p.Altitude + c.Altitude,
	}
}

// Sub returns the componentwise difference p - q as a correction.
func (p Point) Sub(q Point) Correction {
	return Correction{
		Latitude:  p.Latitude - q.Latitude,
		Longitude: p.Longitude - q.Longitude,
		Altitude:  p.Altitude - q.Altitude,
	}
}

// Correction is a per-cell datum offset. Grid values carry latitude and
// longitude in arcseconds; interpolated values applied to a Point carry degrees.
// Altitude is always meters.
type Correction struct {
	Latitude  float64 `json:"latitude" msgpack:"latitude"`
	Longitude float64 `json:"longitude" msgpack:"longitude"`
	Altitude  float64 `json:"altitude" msgpack:"altitude"`
}

func (c Correction) Neg() Correction {
	return Correction{Latitude: -c.Latitude, Longitude: -c.Longitude, Altitude: -c.Altitude}
}
