package main

import (
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/seopulse/seopulse/internal/model"
)

var (
	aggregateSite     string
	aggregateDate     string
	aggregateBackfill int
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Roll raw events up into daily aggregates",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		date := aggregateDate
		if date == "" {
			date = time.Now().UTC().AddDate(0, 0, -2).Format("2006-01-02")
		}
		end, err := time.Parse("2006-01-02", date)
		if err != nil {
			return eris.Wrapf(err, "invalid date %q", date)
		}

		type dayResult struct {
			Date      string                `json:"date"`
			Aggregate *model.DailyAggregate `json:"aggregate,omitempty"`
			Skipped   bool                  `json:"skipped,omitempty"`
		}
		days := aggregateBackfill
		if days < 1 {
			days = 1
		}

		results := make([]dayResult, 0, days)
		for i := days - 1; i >= 0; i-- {
			d := end.AddDate(0, 0, -i).Format("2006-01-02")
			agg, err := env.Aggregator.Run(cmd.Context(), aggregateSite, d)
			if err != nil {
				return err
			}
			if agg == nil {
				zap.L().Info("no events for date", zap.String("date", d))
				results = append(results, dayResult{Date: d, Skipped: true})
				continue
			}
			results = append(results, dayResult{Date: d, Aggregate: agg})
		}
		return printJSON(results)
	},
}

func init() {
	aggregateCmd.Flags().StringVar(&aggregateSite, "site", "", "site identifier (required)")
	aggregateCmd.Flags().StringVar(&aggregateDate, "date", "", "date YYYY-MM-DD (default: two days ago)")
	aggregateCmd.Flags().IntVar(&aggregateBackfill, "backfill", 1, "aggregate this many days ending at --date")
	_ = aggregateCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(aggregateCmd)
}
