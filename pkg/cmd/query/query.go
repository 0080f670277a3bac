package query

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-driverstats-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-driverstats-go/pkg/config"
	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/repository/store"
	"github.com/mpapenbr/f1-driverstats-go/pkg/stats"
)

type queryOptions struct {
	driver string
	year   int
	format string
}

func NewQueryCmd() *cobra.Command {
	opts := queryOptions{}
	cmd := &cobra.Command{
		Use:   "query",
		Short: "prints the dashboard of a driver and season",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format != "json" && opts.format != "text" {
				return fmt.Errorf("unknown format %q", opts.format)
			}
			d, err := buildDashboard(cmd.Context(), &opts)
			if err != nil {
				return err
			}
			if opts.format == "json" {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(d)
			}
			return writeText(cmd.OutOrStdout(), d)
		},
	}
	cmd.Flags().StringVar(&opts.driver, "driver", "", "full name of the driver")
	cmd.Flags().IntVar(&opts.year, "year", 0, "season")
	cmd.Flags().StringVar(&opts.format, "format", "text", "output format (json, text)")
	cmd.Flags().StringVar(&config.Source,
		"source",
		config.SourceCSV,
		"where to load the dataset from (csv, postgres)")
	cmd.Flags().StringVar(&config.RacesFile,
		"races",
		"data/races.csv",
		"path to the race results csv file")
	cmd.Flags().StringVar(&config.DriversFile,
		"drivers",
		"",
		"path to the driver profiles csv file (optional)")
	_ = cmd.MarkFlagRequired("driver")
	_ = cmd.MarkFlagRequired("year")
	return cmd
}

func buildDashboard(ctx context.Context, opts *queryOptions) (*stats.Dashboard, error) {
	_, sqlLogger, err := util.SetupLogger()
	if err != nil {
		return nil, err
	}
	var table *dataset.Table
	switch config.Source {
	case config.SourceCSV:
		table, err = dataset.LoadFiles(config.RacesFile, config.DriversFile)
	case config.SourcePostgres:
		pool, poolErr := util.OpenPool(ctx, sqlLogger)
		if poolErr != nil {
			return nil, poolErr
		}
		defer pool.Close()
		table, err = store.LoadTable(ctx, pool)
	default:
		err = fmt.Errorf("unknown source %q", config.Source)
	}
	if err != nil {
		return nil, err
	}
	d := stats.New(table).Dashboard(opts.driver, opts.year)
	return &d, nil
}

//nolint:errcheck // writes to a tabwriter are checked by Flush
func writeText(w io.Writer, d *stats.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "%s #%s (%s)\n", d.Card.Driver, d.Card.Number, d.Card.Team)
	fmt.Fprintf(tw, "Season %d\tpoints %.1f\trank %d\n", d.Year, d.Standing.Points, d.Standing.Rank)
	fmt.Fprintf(tw, "Career\traces %d\tpoints %.1f\tpodiums %d\tbest %d\n",
		d.Highlights.Races, d.Highlights.Points, d.Highlights.Podiums, d.Highlights.BestPosition)
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "Rd\tDate\tGP\tGrid\tPos\tResult\tPts\tTotal\tStatus")
	for _, r := range d.Season {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%d\t%s\t%.1f\t%.1f\t%s\n",
			r.RoundNumber, r.EventDate, r.ShortGP, r.GridPosition, r.Position,
			r.ResultType, r.Points, r.CumulativePoints, r.Status)
	}
	fmt.Fprintln(tw)
	for _, t := range []struct {
		name  string
		tally map[string]int
	}{
		{"Results", d.ResultTally},
		{"Qualifying", d.QualiTally},
		{"DNF", d.DNFTally},
	} {
		keys := lo.Keys(t.tally)
		slices.Sort(keys)
		fmt.Fprintf(tw, "%s\t%s\n", t.name, lo.Reduce(keys, func(acc, k string, _ int) string {
			return acc + fmt.Sprintf("%s=%d ", k, t.tally[k])
		}, ""))
	}
	if len(d.Trend.Line) > 0 {
		fmt.Fprintf(tw, "Trend\tfinish = %.2f * grid + %.2f\tr=%.2f\tn=%d\n",
			d.Trend.Slope, d.Trend.Intercept, d.Trend.Correlation, d.Trend.Samples)
	}
	return tw.Flush()
}
