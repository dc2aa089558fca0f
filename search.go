package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"keyword-volume-go/internal/service"
	"keyword-volume-go/pkg/api"
	"keyword-volume-go/pkg/pipeline"
)

// errTrendDisabled is returned by trend commands without DataLab credentials.
var errTrendDisabled = errors.New("datalab.client_id and datalab.client_secret are required for trend lookups")

var searchCmd = &cobra.Command{
	Use:   "search <keyword>",
	Short: "Show related keywords with monthly PC and mobile search volumes",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, true)
		if err != nil {
			return err
		}
		opts, err := viewOptions(cmd)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		result, err := rt.clients.Keywords.FetchMetrics(ctx, strings.Join(args, " "))
		if err != nil {
			return userError(err)
		}
		rt.metrics.ObserveRecords(len(result.Records))

		opts.FilterText = result.Keyword
		shown := pipeline.ApplyOptions(result.Records, opts)
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, shown)
		}
		if result.NoResults || len(shown) == 0 {
			fmt.Fprintln(os.Stdout, api.MessageNoResults)
			return nil
		}
		return writeTable(os.Stdout, shown)
	},
}

var trendCmd = &cobra.Command{
	Use:   "trend <keyword>",
	Short: "Show the monthly search trend of the past year",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, true)
		if err != nil {
			return err
		}
		if rt.clients.Trend == nil {
			return errTrendDisabled
		}

		ctx, cancel := signalContext()
		defer cancel()

		result, err := rt.clients.Trend.FetchTrend(ctx, strings.Join(args, " "))
		if err != nil {
			return userError(err)
		}
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(os.Stdout, result)
		}
		return writeTrend(os.Stdout, result)
	},
}

var lookupCmd = &cobra.Command{
	Use:   "lookup <keyword>",
	Short: "Fetch volumes and trend together and print them as JSON",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := setup(cmd, true)
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		result, err := service.NewLookup(rt.clients.KeywordsAPI(), rt.clients.TrendAPI(), rt.log).
			Run(ctx, strings.Join(args, " "))
		if err != nil {
			return userError(err)
		}
		return writeJSON(os.Stdout, result)
	},
}

// viewOptions reads --sort and --filter. The filter text is the searched keyword and is
// filled in once it is known.
func viewOptions(cmd *cobra.Command) (pipeline.Options, error) {
	sortFlag, _ := cmd.Flags().GetString("sort")
	key, err := pipeline.ParseSortKey(sortFlag)
	if err != nil {
		return pipeline.Options{}, err
	}
	filter, _ := cmd.Flags().GetBool("filter")
	return pipeline.Options{FilterEnabled: filter, Sort: key}, nil
}

func addViewFlags(cmd *cobra.Command) {
	cmd.Flags().String("sort", "", "sort descending by pc, mobile or total (default: upstream order)")
	cmd.Flags().Bool("filter", true, "keep only keywords containing the searched keyword")
}

// userError turns a classified failure into the localized message, keeping the cause
// for errors.As.
func userError(err error) error {
	return fmt.Errorf("%s: %w", api.UserMessage(err), err)
}

func init() {
	addViewFlags(searchCmd)
	searchCmd.Flags().Bool("json", false, "print records as JSON")
	trendCmd.Flags().Bool("json", false, "print the series as JSON")

	rootCmd.AddCommand(searchCmd, trendCmd, lookupCmd)
}
