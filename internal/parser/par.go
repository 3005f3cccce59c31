// Package parser reads par-formatted parameter files.
package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/mesh"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// ErrParse is wrapped by every parse failure.
var ErrParse = errors.New("parse par file")

// ParseError locates a failure in the input.
type ParseError struct {
	Line   int
	Column string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%v: line %d: %v", ErrParse, e.Line, e.Err)
	}
	return fmt.Sprintf("%v: line %d: %s: %v", ErrParse, e.Line, e.Column, e.Err)
}

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// HeaderLines is the number of leading lines that carry no data.
func HeaderLines(f transformer.Format) int {
	switch f {
	case transformer.TKY2JGD:
		return 2
	case transformer.GeonetF3, transformer.ITRF2014:
		return 18
	default:
		return 16
	}
}

// ParseString is Parse over an in-memory string.
func ParseString(s string, f transformer.Format) (*transformer.Transformer, error) {
	return Parse(strings.NewReader(s), f)
}

// Parse reads a par file of format f. Data rows are whitespace separated:
// meshcode followed by the columns the format populates, in latitude,
// longitude, altitude order.
func Parse(r io.Reader, f transformer.Format) (*transformer.Transformer, error) {
	spec, ok := f.Spec()
	if !ok {
		return nil, fmt.Errorf("%w: unknown format %d", ErrParse, uint8(f))
	}
	header := HeaderLines(f)

	b := transformer.NewBuilder().Format(f)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for sc.Scan() {
		line++
		if line <= header {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		code, c, err := parseRow(text, spec)
		if err != nil {
			var pe *ParseError
			if errors.As(err, &pe) {
				pe.Line = line
				return nil, pe
			}
			return nil, &ParseError{Line: line, Err: err}
		}
		b.Parameter(code, c)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: read: %w", ErrParse, err)
	}
	return b.Build()
}

func parseRow(text string, spec transformer.Spec) (mesh.Code, model.Correction, error) {
	fields := strings.Fields(text)

	columns := []struct {
		name string
		bit  transformer.Fields
		dst  func(*model.Correction, float64)
	}{
		{"latitude", transformer.FieldLatitude, func(c *model.Correction, v float64) { c.Latitude = v }},
		{"longitude", transformer.FieldLongitude, func(c *model.Correction, v float64) { c.Longitude = v }},
		{"altitude", transformer.FieldAltitude, func(c *model.Correction, v float64) { c.Altitude = v }},
	}

	code, err := mesh.ParseCode(fields[0])
	if err != nil {
		return 0, model.Correction{}, &ParseError{Column: "meshcode", Err: err}
	}
	node, _ := mesh.NodeOf(code)
	if !node.IsUnit(spec.Unit) {
		return 0, model.Correction{}, &ParseError{
			Column: "meshcode",
			Err:    fmt.Errorf("%d is not on the %v-unit lattice", code, spec.Unit),
		}
	}

	var c model.Correction
	next := 1
	for _, col := range columns {
		if !spec.Fields.Has(col.bit) {
			continue
		}
		if next >= len(fields) {
			return 0, model.Correction{}, &ParseError{Column: col.name, Err: errors.New("missing column")}
		}
		v, err := strconv.ParseFloat(fields[next], 64)
		if err != nil {
			return 0, model.Correction{}, &ParseError{Column: col.name, Err: err}
		}
		col.dst(&c, v)
		next++
	}
	return code, c, nil
}
