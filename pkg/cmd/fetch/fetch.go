package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mpapenbr/f1-driverstats-go/log"
	"github.com/mpapenbr/f1-driverstats-go/pkg/cmd/util"
	"github.com/mpapenbr/f1-driverstats-go/pkg/dataset"
	"github.com/mpapenbr/f1-driverstats-go/pkg/ergast"
)

type fetchOptions struct {
	years     []int
	out       string
	baseURL   string
	pageDelay time.Duration
	retryMax  int
}

func NewFetchCmd() *cobra.Command {
	opts := fetchOptions{}
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "fetches race results from the Ergast API and writes them as csv",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := util.SetupLogger(); err != nil {
				return err
			}
			return runFetch(cmd, &opts)
		},
	}
	cmd.Flags().IntSliceVar(&opts.years,
		"years",
		[]int{2018, 2019, 2020, 2021, 2022},
		"seasons to fetch")
	cmd.Flags().StringVarP(&opts.out,
		"out",
		"o",
		"data/races.csv",
		"output file, use - for stdout")
	cmd.Flags().StringVar(&opts.baseURL,
		"base-url",
		ergast.DefaultBaseURL,
		"base url of the Ergast compatible API")
	cmd.Flags().DurationVar(&opts.pageDelay,
		"page-delay",
		300*time.Millisecond,
		"pause between page requests")
	cmd.Flags().IntVar(&opts.retryMax,
		"retry-max",
		5,
		"number of retries for a failed request")
	return cmd
}

func runFetch(cmd *cobra.Command, opts *fetchOptions) error {
	client := ergast.New(
		ergast.WithBaseURL(opts.baseURL),
		ergast.WithPageDelay(opts.pageDelay),
		ergast.WithRetry(opts.retryMax, time.Second, 30*time.Second),
	)
	rows, err := client.FetchSeasons(cmd.Context(), opts.years)
	if err != nil {
		return err
	}
	if opts.out == "-" {
		return dataset.WriteRaceResults(cmd.OutOrStdout(), rows)
	}
	if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
		return err
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	if err := dataset.WriteRaceResults(f, rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", opts.out, err)
	}
	log.Info("race results written", log.String("file", opts.out), log.Int("rows", len(rows)))
	return f.Close()
}
