package transformer

import (
	"fmt"
	"strings"

	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
)

// Format is a published parameter-file family.
type Format uint8

const (
	FormatUnknown Format = iota
	TKY2JGD
	PatchJGD
	PatchJGDH
	PatchJGDHV
	HyokoRev
	SemiDynaEXE
	GeonetF3
	ITRF2014
)

// Formats lists every supported family.
var Formats = []Format{TKY2JGD, PatchJGD, PatchJGDH, PatchJGDHV, HyokoRev, SemiDynaEXE, GeonetF3, ITRF2014}

// Fields marks the correction components a family populates.
type Fields uint8

const (
	FieldLatitude Fields = 1 << iota
	FieldLongitude
	FieldAltitude

	FieldsHorizontal = FieldLatitude | FieldLongitude
	FieldsAll        = FieldsHorizontal | FieldAltitude
)

func (f Fields) Has(x Fields) bool { return f&x == x }

func (f Fields) String() string {
	var parts []string
	if f.Has(FieldLatitude) {
		parts = append(parts, "latitude")
	}
	if f.Has(FieldLongitude) {
		parts = append(parts, "longitude")
	}
	if f.Has(FieldAltitude) {
		parts = append(parts, "altitude")
	}
	return strings.Join(parts, ",")
}

// Spec is a format resolved to its mesh unit and populated fields.
type Spec struct {
	Format Format
	Unit   mesh.Unit
	Fields Fields
}

var specs = map[Format]Spec{
	TKY2JGD:     {TKY2JGD, mesh.UnitOne, FieldsHorizontal},
	PatchJGD:    {PatchJGD, mesh.UnitOne, FieldsHorizontal},
	PatchJGDH:   {PatchJGDH, mesh.UnitOne, FieldAltitude},
	PatchJGDHV:  {PatchJGDHV, mesh.UnitOne, FieldsAll},
	HyokoRev:    {HyokoRev, mesh.UnitOne, FieldAltitude},
	SemiDynaEXE: {SemiDynaEXE, mesh.UnitFive, FieldsAll},
	GeonetF3:    {GeonetF3, mesh.UnitFive, FieldsAll},
	ITRF2014:    {ITRF2014, mesh.UnitFive, FieldsAll},
}

var names = map[Format]string{
	TKY2JGD:     "TKY2JGD",
	PatchJGD:    "PatchJGD",
	PatchJGDH:   "PatchJGD_H",
	PatchJGDHV:  "PatchJGD_HV",
	HyokoRev:    "HyokoRev",
	SemiDynaEXE: "SemiDynaEXE",
	GeonetF3:    "geonetF3",
	ITRF2014:    "ITRF2014",
}

// Spec resolves the format; ok is false for unknown values.
func (f Format) Spec() (Spec, bool) {
	s, ok := specs[f]
	return s, ok
}

func (f Format) Unit() mesh.Unit { return specs[f].Unit }

func (f Format) Fields() Fields { return specs[f].Fields }

func (f Format) String() string {
	if n, ok := names[f]; ok {
		return n
	}
	return fmt.Sprintf("format(%d)", uint8(f))
}

// ParseFormat accepts the canonical names case-insensitively; "-" and "_" are
// interchangeable and may be omitted.
func ParseFormat(s string) (Format, error) {
	want := normalizeName(s)
	for f, n := range names {
		if normalizeName(n) == want {
			return f, nil
		}
	}
	return FormatUnknown, fmt.Errorf("unknown format %q", s)
}

func normalizeName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", "(", "", ")", "").Replace(s)
}

func (f Format) MarshalText() ([]byte, error) {
	if _, ok := names[f]; !ok {
		return nil, fmt.Errorf("unknown format %d", uint8(f))
	}
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
