package mesh

import (
	"errors"
	"math"
	"testing"
)

func TestFromPoint_KnownCodes(t *testing.T) {
	cases := []struct {
		lat, lng float64
		unit     Unit
		want     Code
	}{
		{36.10377479, 140.087855041, UnitOne, 54401027},
		{36.10377479, 140.087855041, UnitFive, 54401005},
		{35.0, 135.0, UnitOne, 52354000},
		{35.0, 135.0, UnitFive, 52354000},
		{0, 100, UnitOne, 0},
	}
	for _, tc := range cases {
		got, err := FromPoint(tc.lat, tc.lng, tc.unit)
		if err != nil {
			t.Fatalf("FromPoint(%v,%v,%v) err: %v", tc.lat, tc.lng, tc.unit, err)
		}
		if got != tc.want {
			t.Fatalf("FromPoint(%v,%v,%v)=%d want %d", tc.lat, tc.lng, tc.unit, got, tc.want)
		}
	}
}

func TestFromPoint_OutOfRange(t *testing.T) {
	bad := [][2]float64{
		{-0.1, 135},
		{66.67, 135},
		{35, 99.9},
		{35, 180.1},
		{math.NaN(), 135},
	}
	for _, p := range bad {
		if _, err := FromPoint(p[0], p[1], UnitOne); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("FromPoint(%v,%v) err=%v want ErrOutOfRange", p[0], p[1], err)
		}
	}
}

func TestToPoint_IsLowerLeftAndReencodes(t *testing.T) {
	for _, u := range []Unit{UnitOne, UnitFive} {
		for lat := 20.0; lat < 46; lat += 0.37 {
			for lng := 122.0; lng < 154; lng += 0.53 {
				code, err := FromPoint(lat, lng, u)
				if err != nil {
					t.Fatalf("FromPoint: %v", err)
				}
				origin, err := ToPoint(code)
				if err != nil {
					t.Fatalf("ToPoint(%d): %v", code, err)
				}
				if origin.Latitude > lat || origin.Longitude > lng {
					t.Fatalf("origin %v not south-west of (%v,%v)", origin, lat, lng)
				}
				again, err := FromPoint(origin.Latitude, origin.Longitude, u)
				if err != nil {
					t.Fatalf("re-encode: %v", err)
				}
				if again != code {
					t.Fatalf("re-encode %v: got %d want %d", origin, again, code)
				}
			}
		}
	}
}

func TestEveryGridLineReencodes(t *testing.T) {
	// walk every latitude line of the base lattice; naive floor(lat*1.5*80)
	// misplaces a couple hundred of these
	for i := 0; i < 8000; i++ {
		c, err := coordFromIndex(i)
		if err != nil {
			t.Fatalf("coordFromIndex(%d): %v", i, err)
		}
		lat := c.Latitude()
		if lat > MaxLatitude {
			break
		}
		got, err := LatitudeCoord(lat, UnitOne)
		if err != nil {
			t.Fatalf("LatitudeCoord(%v): %v", lat, err)
		}
		if got != c {
			t.Fatalf("LatitudeCoord(%v)=%+v want %+v", lat, got, c)
		}
	}
	for i := 0; i <= 6400; i++ {
		c, _ := coordFromIndex(i)
		got, err := LongitudeCoord(c.Longitude(), UnitOne)
		if err != nil {
			t.Fatalf("LongitudeCoord(%v): %v", c.Longitude(), err)
		}
		if got != c {
			t.Fatalf("LongitudeCoord(%v)=%+v want %+v", c.Longitude(), got, c)
		}
	}
}

func TestNodeOf_RejectsMalformed(t *testing.T) {
	for _, code := range []Code{54401805, 54408005, 99990000, 100000000} {
		if _, err := NodeOf(code); !errors.Is(err, ErrOutOfRange) {
			t.Fatalf("NodeOf(%d) err=%v want ErrOutOfRange", code, err)
		}
	}
	n, err := NodeOf(54401005)
	if err != nil {
		t.Fatalf("NodeOf: %v", err)
	}
	if n.Code() != 54401005 {
		t.Fatalf("round trip got %d", n.Code())
	}
	if !n.IsUnit(UnitFive) {
		t.Fatalf("54401005 should lie on the five-unit lattice")
	}
	if _, err := ParseCode("54401007"); err != nil {
		t.Fatalf("ParseCode: %v", err)
	}
	if _, err := ParseCode("abc"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLocate_CornersAndFractions(t *testing.T) {
	cell, err := Locate(36.10377479, 140.087855041, UnitFive)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	want := [4]Code{54401005, 54401100, 54401055, 54401150}
	if cell.Corners != want {
		t.Fatalf("corners=%v want %v", cell.Corners, want)
	}
	if math.Abs(cell.X-0.405680656000186) > 1e-12 || math.Abs(cell.Y-0.4905949600000099) > 1e-12 {
		t.Fatalf("fractions x=%v y=%v", cell.X, cell.Y)
	}
}

func TestLocate_OnGridLineBelongsToUpperCell(t *testing.T) {
	cell, err := Locate(35.0, 135.0, UnitOne)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if cell.X != 0 || cell.Y != 0 {
		t.Fatalf("on-node point should have zero fractions, got x=%v y=%v", cell.X, cell.Y)
	}
	if cell.Origin() != 52354000 {
		t.Fatalf("origin=%d want 52354000", cell.Origin())
	}
	if cell.Corners[NorthEast] != 52354011 {
		t.Fatalf("ne=%d want 52354011", cell.Corners[NorthEast])
	}
}

func TestLocate_CarriesAcrossSecondAndFirst(t *testing.T) {
	// lat third=9, second=7 → north neighbour bumps First; same for lng
	lat := Coord{First: 52, Second: 7, Third: 9}.Latitude()
	lng := Coord{First: 35, Second: 7, Third: 9}.Longitude()
	cell, err := Locate(lat, lng, UnitOne)
	if err != nil {
		t.Fatalf("Locate: %v", err)
	}
	if cell.Corners[NorthEast] != 53360000 {
		t.Fatalf("ne=%d want 53360000", cell.Corners[NorthEast])
	}
}

func TestLocate_NorthEdgeOutOfRange(t *testing.T) {
	if _, err := Locate(MaxLatitude, 135, UnitOne); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("err=%v want ErrOutOfRange", err)
	}
}
