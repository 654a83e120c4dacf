package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/cmm/internal/export"
	"github.com/samcharles93/cmm/internal/logger"
)

func inspectCmd() *cli.Command {
	var limit int

	return &cli.Command{
		Name:      "inspect",
		Usage:     "List the records of a file without decoding payloads",
		ArgsUsage: "FILE",
		Flags:     []cli.Flag{limitFlag(&limit)},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyOutputConfig(cmd.IsSet, appConfig, nil, &limit)
			path, err := fileArg(cmd)
			if err != nil {
				return err
			}
			r, err := openReader(ctx, path)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open %s: %v", path, err), 1)
			}
			defer func() { _ = r.Close() }()

			fmt.Printf("%s: %d bytes\n", path, r.Size())
			enc, err := export.NewEncoder(os.Stdout, export.Text)
			if err != nil {
				return err
			}
			w := &walker{r: r, enc: enc, log: logger.FromContext(ctx), limit: limit}
			if err := w.run(); err != nil {
				return cli.Exit(fmt.Sprintf("error: %s at offset %d: %v", path, r.Offset(), err), 1)
			}
			return nil
		},
	}
}

func fileArg(cmd *cli.Command) (string, error) {
	if cmd.Args().Len() != 1 {
		return "", cli.Exit(fmt.Sprintf("error: %s takes exactly one FILE argument", cmd.Name), 1)
	}
	return cmd.Args().First(), nil
}
