package main

import (
	"fmt"
	"os"
	"time"

	"meshwar/internal/dashboard/repository"
	"meshwar/internal/reports/render"
	reportsservice "meshwar/internal/reports/service"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const ServiceName = "meshwarctl"

func main() {
	app := &cli.App{
		Name:  "meshwarctl",
		Usage: "operator tooling for the Meshwar admin backend",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "log at info level instead of warn",
			},
		},
		Before: func(c *cli.Context) error {
			if c.Bool("verbose") {
				return os.Setenv("LOG_LEVEL", "info")
			}
			if os.Getenv("LOG_LEVEL") == "" {
				return os.Setenv("LOG_LEVEL", "warn")
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "create collections, schema validators and indexes",
				Action: migrateAction,
			},
			{
				Name:      "report",
				Usage:     "render a report to a file or stdout",
				ArgsUsage: "<" + joinKinds() + ">",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   render.FormatText,
						Usage:   "txt, html, csv or pdf",
					},
					&cli.StringFlag{Name: "from", Usage: "only documents created at or after this time"},
					&cli.StringFlag{Name: "to", Usage: "only documents created before this time"},
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "output file, defaults to the report's own file name; - for stdout",
					},
				},
				Action: reportAction,
			},
			{
				Name:      "receipt",
				Usage:     "render the PDF receipt of one booking",
				ArgsUsage: "<booking-id>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Usage: "output file"},
				},
				Action: receiptAction,
			},
			{
				Name:  "stats",
				Usage: "print the dashboard summary",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "top", Value: 5, Usage: "how many top activities to list"},
					&cli.StringFlag{
						Name:  "chart",
						Usage: "also print a bookings chart with this granularity (" + repository.GranularityDay + ", " + repository.GranularityWeek + " or " + repository.GranularityMonth + ")",
					},
				},
				Action: statsAction,
			},
			{
				Name:  "token",
				Usage: "issue an admin bearer token signed with AUTH_JWT_SECRET",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user-id", Required: true},
					&cli.StringFlag{Name: "email", Required: true},
					&cli.DurationFlag{Name: "ttl", Value: 12 * time.Hour},
				},
				Action: tokenAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func joinKinds() string {
	out := ""
	for i, k := range reportsservice.Kinds {
		if i > 0 {
			out += "|"
		}
		out += k
	}
	return out
}
