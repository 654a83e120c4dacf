package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cmm/internal/logger"
	"github.com/samcharles93/cmm/pkg/cmm"
)

func writeCmd() *cli.Command {
	var (
		tagName  string
		shapeArg string
		values   string
		sep      string
		appendTo bool
	)

	return &cli.Command{
		Name:      "write",
		Usage:     "Write one record built from command line values",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "tag", Aliases: []string{"t"}, Usage: "element tag (real, int, long, ulong, text, bool)", Required: true, Destination: &tagName},
			&cli.StringFlag{Name: "shape", Aliases: []string{"s"}, Usage: "dimensions such as 3 or 2x3; * as the first dimension writes an unbounded record", Destination: &shapeArg},
			&cli.StringFlag{Name: "values", Aliases: []string{"v"}, Usage: "element values in row-major order", Destination: &values},
			&cli.StringFlag{Name: "sep", Usage: "value separator", Value: ",", Destination: &sep},
			&cli.BoolFlag{Name: "append", Aliases: []string{"a"}, Usage: "append to FILE instead of replacing it", Destination: &appendTo},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := fileArg(cmd)
			if err != nil {
				return err
			}
			tag, err := cmm.ParseTag(tagName)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			shape, err := cmm.ParseShape(shapeArg)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			v, err := buildValue(tag, shape, splitValues(values, sep))
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			log := logger.FromContext(ctx)
			o := cmm.Options{Logger: log}
			open := cmm.Create
			if appendTo {
				open = cmm.Append
			}
			w, err := open(path, o)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", path, err), 1)
			}
			if shape.Unbounded() {
				err = w.WriteHeader(cmm.TensorHeader(tag, shape...))
				if err == nil {
					err = w.WriteData(v)
				}
			} else {
				err = w.Write(v)
			}
			if err == nil {
				err = w.Sync()
			}
			if cerr := w.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: write %s: %v", path, err), 1)
			}
			log.Info("record written",
				slog.String("file", path),
				slog.String("header", v.Header().String()),
				slog.Int64("bytes", w.Written()))
			return nil
		},
	}
}

func splitValues(s, sep string) []string {
	if s == "" {
		return nil
	}
	if sep == "" {
		return []string{s}
	}
	return strings.Split(s, sep)
}

// buildValue parses fields as elements of tag and lays them out in shape. An
// unbounded first dimension takes whatever row count the fields fill.
func buildValue(tag cmm.Tag, shape cmm.Shape, fields []string) (cmm.Value, error) {
	shape, err := concreteShape(shape, len(fields))
	if err != nil {
		return cmm.Value{}, err
	}
	if tag != cmm.Text {
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
	}
	switch tag {
	case cmm.Real:
		return tensorOf(shape, fields, func(s string) (float64, error) {
			return strconv.ParseFloat(s, 64)
		})
	case cmm.Integer:
		return tensorOf(shape, fields, func(s string) (int32, error) {
			n, err := strconv.ParseInt(s, 0, 32)
			return int32(n), err
		})
	case cmm.Long:
		return tensorOf(shape, fields, func(s string) (int64, error) {
			return strconv.ParseInt(s, 0, 64)
		})
	case cmm.UnsignedLong:
		return tensorOf(shape, fields, func(s string) (uint64, error) {
			return strconv.ParseUint(s, 0, 64)
		})
	case cmm.Text:
		return tensorOf(shape, fields, func(s string) (string, error) {
			return s, nil
		})
	case cmm.Boolean:
		return tensorOf(shape, fields, strconv.ParseBool)
	}
	return cmm.Value{}, fmt.Errorf("%w: %v", cmm.ErrUnknownTag, tag)
}

func concreteShape(shape cmm.Shape, n int) (cmm.Shape, error) {
	if !shape.Unbounded() {
		return shape, nil
	}
	row := 1
	for _, d := range shape[1:] {
		row *= d
	}
	out := shape.Clone()
	switch {
	case row == 0 && n == 0:
		out[0] = 0
	case row == 0 || n%row != 0:
		return nil, fmt.Errorf("%w: %d values do not fill whole rows of %v", cmm.ErrShapeMismatch, n, shape)
	default:
		out[0] = n / row
	}
	return out, nil
}

func tensorOf[E cmm.Element](shape cmm.Shape, fields []string, parse func(string) (E, error)) (cmm.Value, error) {
	vals := make([]E, len(fields))
	for i, f := range fields {
		v, err := parse(f)
		if err != nil {
			return cmm.Value{}, fmt.Errorf("value %d: %w", i, err)
		}
		vals[i] = v
	}
	return cmm.Tensor(shape, vals)
}
