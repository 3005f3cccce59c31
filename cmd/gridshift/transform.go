package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mohammed-shakir/jgd-gridshift/internal/core/model"
	"github.com/mohammed-shakir/jgd-gridshift/internal/transformer"
)

var forwardCmd = &cobra.Command{
	Use:   "forward [flags] [lat lon [alt]]",
	Short: "Apply the correction grid to points",
	Long: `Forward adds the interpolated correction to each point. Without positional
arguments, points are read from stdin, one "lat lon [alt]" per line.
Negative values such as a below-sea-level altitude are read as coordinates.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		args, err := parseTransformFlags(cmd, args)
		if err != nil || args == nil {
			return err
		}
		return runTransform(cmd, args, "forward")
	},
}

var backwardCmd = &cobra.Command{
	Use:   "backward [flags] [lat lon [alt]]",
	Short: "Invert the correction grid for points",
	Long: `Backward solves for the source point whose forward image is the input.
With --safe the result is verified by re-applying forward.`,
	DisableFlagParsing: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		args, err := parseTransformFlags(cmd, args)
		if err != nil || args == nil {
			return err
		}
		op := "backward"
		if safe, _ := cmd.Flags().GetBool("safe"); safe {
			op = "backward_safe"
		}
		return runTransform(cmd, args, op)
	},
}

func init() {
	for _, c := range []*cobra.Command{forwardCmd, backwardCmd} {
		addGridFlags(c)
		c.Flags().StringP("output", "o", "text", "output format (text|json)")
	}
	backwardCmd.Flags().Bool("safe", false, "verify the result round-trips within parameter precision")
	backwardCmd.Flags().Int("max-iterations", transformer.MaxIterations, "iteration budget")
	backwardCmd.Flags().Float64("tolerance", transformer.ConvergenceTolerance, "convergence tolerance in degrees")
}

type result struct {
	Input  model.Point  `json:"input"`
	Output *model.Point `json:"output,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// parseTransformFlags parses flags itself so negative numbers stay
// positional. A nil slice without error means help was printed.
func parseTransformFlags(cmd *cobra.Command, raw []string) ([]string, error) {
	fs := cmd.Flags()
	if err := fs.Parse(splitNumericArgs(fs, raw)); err != nil {
		return nil, err
	}
	if help, _ := fs.GetBool("help"); help {
		return nil, cmd.Help()
	}
	args := fs.Args()
	if len(args) > 3 {
		return nil, fmt.Errorf("accepts at most 3 arg(s), received %d", len(args))
	}
	return append([]string{}, args...), nil
}

// splitNumericArgs moves every positional token, negative numbers included,
// behind "--" while keeping flags and their values in front.
func splitNumericArgs(fs *pflag.FlagSet, raw []string) []string {
	var flags, pos []string
	for i := 0; i < len(raw); i++ {
		a := raw[i]
		if a == "--" {
			pos = append(pos, raw[i+1:]...)
			break
		}
		if !strings.HasPrefix(a, "-") || a == "-" || isNumber(a) {
			pos = append(pos, a)
			continue
		}
		flags = append(flags, a)
		if takesValue(fs, a) && i+1 < len(raw) {
			i++
			flags = append(flags, raw[i])
		}
	}
	return append(append(flags, "--"), pos...)
}

func isNumber(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

// takesValue reports whether flag token a consumes the following token.
func takesValue(fs *pflag.FlagSet, a string) bool {
	var f *pflag.Flag
	switch {
	case strings.HasPrefix(a, "--"):
		if strings.Contains(a, "=") {
			return false
		}
		f = fs.Lookup(a[2:])
	case len(a) == 2:
		f = fs.ShorthandLookup(a[1:])
	}
	return f != nil && f.NoOptDefVal == ""
}

func runTransform(cmd *cobra.Command, args []string, op string) error {
	t, err := loadGrid(cmd)
	if err != nil {
		return err
	}
	output, _ := cmd.Flags().GetString("output")
	if output != "text" && output != "json" {
		return fmt.Errorf("unknown output format: %s", output)
	}

	var opts transformer.Options
	if cmd.Flags().Lookup("max-iterations") != nil {
		opts.MaxIterations, _ = cmd.Flags().GetInt("max-iterations")
		opts.Tolerance, _ = cmd.Flags().GetFloat64("tolerance")
	}
	apply := func(p model.Point) (model.Point, error) {
		switch op {
		case "backward":
			q, _, err := t.BackwardWith(p, opts)
			return q, err
		case "backward_safe":
			q, _, err := t.BackwardSafeWith(p, opts)
			return q, err
		default:
			return t.Forward(p)
		}
	}

	if len(args) > 0 {
		p, err := parsePoint(args)
		if err != nil {
			return err
		}
		return emit(cmd.OutOrStdout(), output, p, apply)
	}
	return transformStream(cmd.InOrStdin(), cmd.OutOrStdout(), output, apply)
}

// transformStream handles one point per input line. Per-point failures are
// reported inline; the stream keeps going.
func transformStream(in io.Reader, out io.Writer, output string, apply func(model.Point) (model.Point, error)) error {
	sc := bufio.NewScanner(in)
	failed := 0
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		p, err := parsePoint(strings.Fields(text))
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := emit(out, output, p, apply); err != nil {
			var pe *pointError
			if !errors.As(err, &pe) {
				return err
			}
			failed++
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	if failed > 0 {
		return fmt.Errorf("%d point(s) failed", failed)
	}
	return nil
}

type pointError struct{ err error }

func (e *pointError) Error() string { return e.err.Error() }
func (e *pointError) Unwrap() error { return e.err }

func emit(out io.Writer, output string, p model.Point, apply func(model.Point) (model.Point, error)) error {
	q, err := apply(p)
	if output == "json" {
		r := result{Input: p}
		if err != nil {
			r.Error = err.Error()
		} else {
			r.Output = &q
		}
		b, merr := json.Marshal(r)
		if merr != nil {
			return fmt.Errorf("encode result: %w", merr)
		}
		if _, werr := fmt.Fprintf(out, "%s\n", b); werr != nil {
			return fmt.Errorf("write: %w", werr)
		}
	} else if err != nil {
		if _, werr := fmt.Fprintf(out, "%s\terror: %v\n", p, err); werr != nil {
			return fmt.Errorf("write: %w", werr)
		}
	} else if _, werr := fmt.Fprintln(out, q.String()); werr != nil {
		return fmt.Errorf("write: %w", werr)
	}
	if err != nil {
		return &pointError{err: err}
	}
	return nil
}

func parsePoint(fields []string) (model.Point, error) {
	if len(fields) < 2 || len(fields) > 3 {
		return model.Point{}, fmt.Errorf("expected lat lon [alt], got %d values", len(fields))
	}
	var v [3]float64
	for i, s := range fields {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Point{}, fmt.Errorf("value %d: %w", i+1, err)
		}
		v[i] = f
	}
	return model.Point{Latitude: v[0], Longitude: v[1], Altitude: v[2]}, nil
}
