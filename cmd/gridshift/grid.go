package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/jgd-gridshift/internal/parser"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

// addGridFlags registers the flags that select a parameter file.
func addGridFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", "", "parameter format (TKY2JGD, PatchJGD, PatchJGD_H, PatchJGD_HV, HyokoRev, SemiDynaEXE, geonetF3, ITRF2014)")
	cmd.Flags().StringP("grid", "g", "", "parameter file: .par, .json or .msgpack")
}

// loadGrid reads the file named by --grid. JSON and msgpack files carry
// their own format; par files need --format.
func loadGrid(cmd *cobra.Command) (*transformer.Transformer, error) {
	path, _ := cmd.Flags().GetString("grid")
	name, _ := cmd.Flags().GetString("format")
	if path == "" {
		return nil, fmt.Errorf("--grid is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grid: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		t := new(transformer.Transformer)
		if err := t.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return t, nil
	case ".msgpack", ".mp":
		return transformer.UnmarshalSnapshot(data)
	}

	if name == "" {
		return nil, fmt.Errorf("--format is required for par files")
	}
	f, err := transformer.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	t, err := parser.Parse(bytes.NewReader(data), f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}
