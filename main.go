package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var version = "dev"

func main() {
	app := &cli.App{
		Name:    "bookspp",
		Usage:   "Search Open Library for books and read about their authors.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file (defaults to $BOOKSPP_CONFIG).",
			},
			&cli.StringFlag{
				Name:  "base-url",
				Usage: "Open Library API base URL.",
			},
			&cli.StringFlag{
				Name:  "covers-url",
				Usage: "Open Library covers base URL.",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Timeout for each Open Library request.",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error).",
			},
		},
		Before: loadConfig,
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "Serve the search page over HTTP.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "listen",
						Aliases: []string{"l"},
						Usage:   "Address to listen on (e.g., :8080).",
					},
				},
				Action: runServeAction,
			},
			{
				Name:  "shell",
				Usage: "Start an interactive search shell.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "history",
						Usage: "File to keep shell history in (empty disables history).",
						Value: ".bookspp_history",
					},
				},
				Action: runShellAction,
			},
			{
				Name:      "search",
				Usage:     "Print one or more pages of search results.",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "page",
						Aliases: []string{"p"},
						Usage:   "First page to print.",
						Value:   1,
					},
					&cli.IntFlag{
						Name:  "pages",
						Usage: "Number of consecutive pages to fetch.",
						Value: 1,
					},
				},
				Action: runSearchAction,
			},
			{
				Name:      "author",
				Usage:     "Look up an author by name and print their details.",
				ArgsUsage: "<name>",
				Action:    runAuthorAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
