package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	"github.com/ramonehamilton/commander-rater/internal/cardsync"
	"github.com/ramonehamilton/commander-rater/internal/export"
	"github.com/ramonehamilton/commander-rater/internal/storage/models"
)

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return &usageError{msg: fmt.Sprintf(format, args...)}
}

func isUsageError(err error) bool {
	var ue *usageError
	return errors.As(err, &ue) || cardsync.IsValidationError(err)
}

type commands struct {
	svc *cardsync.Service
	out io.Writer
}

func (c *commands) dispatch(ctx context.Context, name string, args []string) error {
	if name == "init" {
		return c.initialize(ctx)
	}

	run, ok := map[string]func(context.Context, []string) error{
		"sync":          c.sync,
		"stats":         c.stats,
		"random":        c.random,
		"list":          c.list,
		"rate":          c.rate,
		"export":        c.export,
		"import":        c.importRatings,
		"clear-ratings": c.clearRatings,
		"clear-cards":   c.clearCards,
	}[name]
	if !ok {
		return usagef("unknown command %q", name)
	}

	if result := c.svc.InitializeDatabase(ctx); !result.Success {
		return errors.New(result.Message)
	}
	return run(ctx, args)
}

func (c *commands) initialize(ctx context.Context) error {
	return c.report(c.svc.InitializeDatabase(ctx))
}

func (c *commands) sync(ctx context.Context, _ []string) error {
	lastPercent := -1
	hook := func(p cardsync.Progress) {
		if p.TotalExpected == 0 {
			return
		}
		percent := p.Processed * 100 / p.TotalExpected
		if percent/10 != lastPercent/10 {
			lastPercent = percent
			log.Info().Int("processed", p.Processed).Int("total", p.TotalExpected).Msgf("Sync %d%%", percent)
		}
	}

	result := c.svc.SyncCommanderCards(ctx, hook)
	if !result.Success {
		return errors.New(result.Message)
	}
	fmt.Fprintln(c.out, result.Message)
	return nil
}

func (c *commands) stats(ctx context.Context, _ []string) error {
	stats, err := c.svc.GetCardStats(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Total\t%d\n", stats.Total)
	fmt.Fprintf(tw, "Interesting\t%d\n", stats.Interesting)
	fmt.Fprintf(tw, "Not interesting\t%d\n", stats.NotInteresting)
	fmt.Fprintf(tw, "Unrated\t%d\n", stats.Unrated)
	return tw.Flush()
}

func (c *commands) random(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("random", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	filter := flags.StringP("filter", "f", "", "interesting, not_interesting or unrated")
	if err := flags.Parse(args); err != nil {
		return usagef("random: %v", err)
	}

	card, err := c.svc.GetRandomCard(ctx, models.RatingFilter(*filter))
	if err != nil {
		return err
	}
	if card == nil {
		if *filter == "" {
			return errors.New("no commander cards found in database, run sync first")
		}
		return fmt.Errorf("no commander cards found with rating: %s", *filter)
	}

	c.printCard(card)
	return nil
}

func (c *commands) list(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("list takes exactly one rating")
	}

	cards, err := c.svc.GetCardsByRating(ctx, models.Rating(args[0]))
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	for _, card := range cards {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", card.ID, card.Name, deref(card.TypeLine))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%d cards\n", len(cards))
	return nil
}

func (c *commands) rate(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usagef("rate takes a card id and a rating")
	}

	var rating *models.Rating
	if args[1] != "unset" {
		r := models.Rating(args[1])
		rating = &r
	}

	return c.report(c.svc.RateCard(ctx, args[0], rating))
}

func (c *commands) export(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
	flags.SetOutput(io.Discard)
	overwrite := flags.Bool("overwrite", false, "Replace an existing file")
	pretty := flags.Bool("pretty", true, "Indent JSON output")
	format := flags.String("format", string(export.FormatJSON), "Format when no file is given: json or csv")
	if err := flags.Parse(args); err != nil {
		return usagef("export: %v", err)
	}

	var path string
	switch flags.NArg() {
	case 0:
		f := export.Format(*format)
		if f != export.FormatJSON && f != export.FormatCSV {
			return usagef("export: unknown format %q", *format)
		}
		path = export.GenerateFilename("ratings", f)
	case 1:
		path = flags.Arg(0)
	default:
		return usagef("export takes at most one file")
	}

	records, err := c.svc.ExportRatings(ctx)
	if err != nil {
		return err
	}

	err = export.WriteFile(records, export.Options{
		Format:     export.FormatFromPath(path),
		FilePath:   path,
		PrettyJSON: *pretty,
		Overwrite:  *overwrite,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Exported %d ratings to %s\n", len(records), path)
	return nil
}

func (c *commands) importRatings(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usagef("import takes exactly one file")
	}

	records, err := export.ReadFile(args[0])
	if err != nil {
		return err
	}

	result := c.svc.ImportRatings(ctx, records)
	fmt.Fprintln(c.out, result.Message)
	return nil
}

func (c *commands) clearRatings(ctx context.Context, _ []string) error {
	return c.report(c.svc.ClearAllRatings(ctx))
}

func (c *commands) clearCards(ctx context.Context, _ []string) error {
	return c.report(c.svc.ClearAllCards(ctx))
}

// report prints a successful result's message or returns its failure.
func (c *commands) report(result cardsync.Result) error {
	if !result.Success {
		if result.Err != nil && cardsync.IsValidationError(result.Err) {
			return result.Err
		}
		return errors.New(result.Message)
	}
	fmt.Fprintln(c.out, result.Message)
	return nil
}

func (c *commands) printCard(card *models.Card) {
	fmt.Fprintf(c.out, "%s (%s)\n", card.Name, card.ID)
	if card.ManaCost != nil {
		fmt.Fprintf(c.out, "  %s\n", *card.ManaCost)
	}
	if card.TypeLine != nil {
		fmt.Fprintf(c.out, "  %s\n", *card.TypeLine)
	}
	if card.OracleText != nil {
		for _, line := range strings.Split(*card.OracleText, "\n") {
			fmt.Fprintf(c.out, "  %s\n", line)
		}
	}
	rating := "unrated"
	if card.InterestRating != nil {
		rating = string(*card.InterestRating)
	}
	fmt.Fprintf(c.out, "  rating: %s\n", rating)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
