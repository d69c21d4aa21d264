package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/seopulse/seopulse/internal/analysis"
)

var (
	healthSite string
	healthDays int
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Report site-wide trend, anomaly, and health score",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		end := time.Now().UTC()
		start := end.AddDate(0, 0, -healthDays)
		days, err := env.Store.ListDailyAggregates(cmd.Context(), healthSite,
			start.Format("2006-01-02"), end.Format("2006-01-02"))
		if err != nil {
			return err
		}

		overview := analysis.Overview(days)
		return printJSON(struct {
			Site string `json:"site"`
			analysis.SiteOverview
		}{healthSite, overview})
	},
}

func init() {
	healthCmd.Flags().StringVar(&healthSite, "site", "", "site identifier (required)")
	healthCmd.Flags().IntVar(&healthDays, "days", 90, "history window in days")
	_ = healthCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(healthCmd)
}
