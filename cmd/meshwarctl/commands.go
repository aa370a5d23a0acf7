package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	dashboardrepo "meshwar/internal/dashboard/repository"
	dashboardservice "meshwar/internal/dashboard/service"
	mongoMigration "meshwar/internal/migrations/mongo"
	reportsrepo "meshwar/internal/reports/repository"
	reportsservice "meshwar/internal/reports/service"
	"meshwar/pkg/config"
	"meshwar/pkg/middleware"
	"meshwar/pkg/timestamp"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

const commandTimeout = 2 * time.Minute

var (
	bold  = color.New(color.Bold).SprintFunc()
	green = color.New(color.FgGreen).SprintFunc()
	red   = color.New(color.FgRed).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

// withMongo loads configuration, connects to Mongo and runs fn with a bounded context.
func withMongo(c *cli.Context, fn func(ctx context.Context, cfg *config.Config) error) error {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	ctx, cancel := context.WithTimeout(c.Context, commandTimeout)
	defer cancel()
	return fn(ctx, cfg)
}

func migrateAction(c *cli.Context) error {
	return withMongo(c, func(ctx context.Context, cfg *config.Config) error {
		if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
			return err
		}
		for _, name := range mongoMigration.CollectionNames() {
			fmt.Printf("%s %s\n", green("✓"), name)
		}
		fmt.Println(bold("Migrations applied to " + cfg.MongoDatabaseName))
		return nil
	})
}

func reportAction(c *cli.Context) error {
	kind := c.Args().First()
	if kind == "" {
		return cli.Exit("report kind is required: "+joinKinds(), 2)
	}
	from, err := optionalTime(c, "from")
	if err != nil {
		return err
	}
	to, err := optionalTime(c, "to")
	if err != nil {
		return err
	}

	return withMongo(c, func(ctx context.Context, cfg *config.Config) error {
		svc := reportsservice.NewReportService(reportsrepo.NewMongoReportRepository(cfg), cfg)
		doc, err := svc.Export(ctx, kind, c.String("format"), from, to)
		if err != nil {
			return err
		}
		return writeDocument(c.String("out"), doc)
	})
}

func receiptAction(c *cli.Context) error {
	id := c.Args().First()
	if id == "" {
		return cli.Exit("booking id is required", 2)
	}

	return withMongo(c, func(ctx context.Context, cfg *config.Config) error {
		svc := reportsservice.NewReportService(reportsrepo.NewMongoReportRepository(cfg), cfg)
		doc, err := svc.Receipt(ctx, id)
		if err != nil {
			return err
		}
		return writeDocument(c.String("out"), doc)
	})
}

func statsAction(c *cli.Context) error {
	return withMongo(c, func(ctx context.Context, cfg *config.Config) error {
		svc := dashboardservice.NewDashboardService(dashboardrepo.NewMongoStatsRepository(cfg), cfg)

		summary, err := svc.Summary(ctx, time.Now())
		if err != nil {
			return err
		}
		printSummary(summary)

		top, err := svc.TopActivities(ctx, c.Int("top"))
		if err != nil {
			return err
		}
		fmt.Println()
		fmt.Println(bold("Top activities"))
		tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		for i, a := range top {
			limit := "unlimited"
			if a.ParticipantLimit > 0 {
				limit = fmt.Sprint(a.ParticipantLimit)
			}
			fmt.Fprintf(tw, "%d.\t%s\t%d / %s\n", i+1, a.Title, a.CurrentParticipants, limit)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if granularity := c.String("chart"); granularity != "" {
			points, err := svc.BookingsChart(ctx, time.Time{}, time.Time{}, granularity)
			if err != nil {
				return err
			}
			fmt.Println()
			fmt.Println(bold("Bookings per " + granularity))
			for _, p := range points {
				fmt.Printf("%s  %5d %s\n", p.Start.Format(time.DateOnly), p.Count, strings.Repeat("▇", int(min(p.Count, 60))))
			}
		}
		return nil
	})
}

func printSummary(s *dashboardservice.Summary) {
	fmt.Println(bold("Meshwar summary"), faint(s.GeneratedAt.Format(time.RFC3339)))

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Users\t%d\n", s.Totals.Users)
	fmt.Fprintf(tw, "Categories\t%d\n", s.Totals.Categories)
	fmt.Fprintf(tw, "Locations\t%d\n", s.Totals.Locations)
	fmt.Fprintf(tw, "Activities\t%d\n", s.Totals.Activities)
	fmt.Fprintf(tw, "Bookings\t%d\n", s.Totals.Bookings)
	_ = tw.Flush()

	statuses := make([]string, 0, len(s.BookingsByStatus))
	for status := range s.BookingsByStatus {
		statuses = append(statuses, status)
	}
	sort.Strings(statuses)
	fmt.Println()
	fmt.Println(bold("Bookings by status"))
	for _, status := range statuses {
		fmt.Printf("  %-10s %d\n", status, s.BookingsByStatus[status])
	}

	fmt.Println()
	fmt.Println(bold(fmt.Sprintf("Growth over the last %d days", s.WindowDays)))
	for _, key := range []string{"users", "bookings", "activities"} {
		g := s.Growth[key]
		pct := fmt.Sprintf("%+.1f%%", g.Percent)
		if g.Percent < 0 {
			pct = red(pct)
		} else {
			pct = green(pct)
		}
		fmt.Printf("  %-10s %6d vs %-6d %s\n", key, g.Current, g.Previous, pct)
	}
}

func tokenAction(c *cli.Context) error {
	cfg := config.Load(ServiceName)
	if cfg.AuthJWTSecret == "" {
		return cli.Exit("AUTH_JWT_SECRET is not set", 1)
	}

	token, err := middleware.IssueAdminToken(cfg.AuthJWTSecret, c.String("user-id"), c.String("email"), c.Duration("ttl"))
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Println(token)
	return nil
}

func optionalTime(c *cli.Context, flag string) (time.Time, error) {
	raw := c.String(flag)
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := timestamp.ParseString(raw)
	if err != nil {
		return time.Time{}, cli.Exit(fmt.Sprintf("invalid --%s: %v", flag, err), 2)
	}
	return t, nil
}

func writeDocument(out string, doc *reportsservice.Document) error {
	if out == "-" {
		_, err := os.Stdout.Write(doc.Body)
		return err
	}
	if out == "" {
		out = doc.Filename
	}
	if err := os.WriteFile(out, doc.Body, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "%s wrote %s (%d bytes)\n", green("✓"), out, len(doc.Body))
	return nil
}
