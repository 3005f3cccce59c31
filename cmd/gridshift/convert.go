package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

var convertCmd = &cobra.Command{
	Use:   "convert [flags] OUT",
	Short: "Convert a parameter file to JSON or msgpack",
	Long: `Convert loads a parameter grid and writes it as JSON or as a msgpack
snapshot. OUT may be "-" for stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	addGridFlags(convertCmd)
	convertCmd.Flags().String("to", "json", "output encoding (json|msgpack)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	to, _ := cmd.Flags().GetString("to")
	t, err := loadGrid(cmd)
	if err != nil {
		return err
	}
	data, err := encodeGrid(t, to)
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if args[0] != "-" {
		f, err := os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d parameters written as %s\n", t.Format(), t.Len(), to)
	return nil
}

func encodeGrid(t *transformer.Transformer, to string) ([]byte, error) {
	switch to {
	case "json":
		return t.MarshalJSON()
	case "msgpack":
		return transformer.MarshalSnapshot(t)
	default:
		return nil, fmt.Errorf("unknown encoding: %s", to)
	}
}
