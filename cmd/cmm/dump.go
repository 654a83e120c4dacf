package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cmm/internal/export"
	"github.com/samcharles93/cmm/internal/logger"
	"github.com/samcharles93/cmm/pkg/cmm"
)

func dumpCmd() *cli.Command {
	var (
		format string
		limit  int
		skip   int
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Decode and print every record of a file",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			formatFlag(&format),
			limitFlag(&limit),
			&cli.IntFlag{Name: "skip", Usage: "skip this many records first", Destination: &skip},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyOutputConfig(cmd.IsSet, appConfig, &format, &limit)
			return decodeFile(ctx, cmd, format, limit, func(r *cmm.Reader) error {
				if skip <= 0 {
					return nil
				}
				return r.SkipN(skip)
			})
		},
	}
}

func tailCmd() *cli.Command {
	var format string

	return &cli.Command{
		Name:      "tail",
		Usage:     "Print the last record of a file (or its trailing sequence)",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{formatFlag(&format)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyOutputConfig(cmd.IsSet, appConfig, &format, nil)
			return decodeFile(ctx, cmd, format, 0, func(r *cmm.Reader) error {
				off, err := r.SeekLast()
				if err != nil {
					return err
				}
				logger.FromContext(ctx).Debug("last record", slog.Int64("offset", off))
				return nil
			})
		},
	}
}

func seqCmd() *cli.Command {
	var (
		format string
		limit  int
		skip   int
	)

	return &cli.Command{
		Name:      "seq",
		Usage:     "Print the rows of a sequence",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			formatFlag(&format),
			limitFlag(&limit),
			&cli.IntFlag{Name: "skip", Usage: "standalone records before the sequence", Destination: &skip},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyOutputConfig(cmd.IsSet, appConfig, &format, &limit)
			return decodeFile(ctx, cmd, format, limit, func(r *cmm.Reader) error {
				if skip > 0 {
					if err := r.SkipN(skip); err != nil {
						return err
					}
				}
				b, err := r.PeekTag()
				if err != nil {
					return err
				}
				if b != cmm.SequenceStart {
					return fmt.Errorf("no sequence at offset %d: %w", r.Offset(), cmm.ErrTypeMismatch)
				}
				return nil
			})
		},
	}
}

// decodeFile opens the FILE argument, lets position move the reader, then
// decodes everything that follows.
func decodeFile(ctx context.Context, cmd *cli.Command, format string, limit int, position func(*cmm.Reader) error) error {
	path, err := fileArg(cmd)
	if err != nil {
		return err
	}
	f, err := export.ParseFormat(format)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: %v", err), 1)
	}
	r, err := openReader(ctx, path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("error: open %s: %v", path, err), 1)
	}
	defer func() { _ = r.Close() }()

	if err := position(r); err != nil {
		if errors.Is(err, io.EOF) {
			return cli.Exit(fmt.Sprintf("error: %s: no records", path), 1)
		}
		return cli.Exit(fmt.Sprintf("error: %s: %v", path, err), 1)
	}
	enc, err := export.NewEncoder(os.Stdout, f)
	if err != nil {
		return err
	}
	w := &walker{r: r, enc: enc, log: logger.FromContext(ctx), decode: true, limit: limit}
	if err := w.run(); err != nil {
		return cli.Exit(fmt.Sprintf("error: %s at offset %d: %v", path, r.Offset(), err), 1)
	}
	return nil
}
