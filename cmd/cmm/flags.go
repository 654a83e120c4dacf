package main

import "github.com/urfave/cli/v3"

var (
	logLevel  string
	logFormat string
	debug     bool
	useMmap   bool
)

func loggingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "log level (debug, info, warn, error)",
			Value:       "info",
			Destination: &logLevel,
		},
		&cli.StringFlag{
			Name:        "log-format",
			Usage:       "log format (pretty, json, text)",
			Value:       "pretty",
			Destination: &logFormat,
		},
		&cli.BoolFlag{
			Name:        "debug",
			Usage:       "enable debug logging (shorthand for --log-level=debug)",
			Destination: &debug,
		},
	}
}

func readFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:        "mmap",
			Usage:       "map input files into memory instead of reading them",
			Destination: &useMmap,
		},
	}
}

func formatFlag(dst *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "format",
		Aliases:     []string{"f"},
		Usage:       "output format (text, json, msgpack)",
		Value:       "text",
		Destination: dst,
	}
}

func limitFlag(dst *int) cli.Flag {
	return &cli.IntFlag{
		Name:        "limit",
		Aliases:     []string{"n"},
		Usage:       "stop after this many records or rows (0 = no limit)",
		Destination: dst,
	}
}
