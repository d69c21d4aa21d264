package main

import (
	"github.com/spf13/cobra"
)

var (
	ingestSite       string
	ingestStart      string
	ingestEnd        string
	ingestSearchType string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Pull search-performance rows for a date range into the raw-event store",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		searchType := ingestSearchType
		if searchType == "" {
			searchType = cfg.Ingest.SearchType
		}

		report, err := env.Gateway.Run(cmd.Context(), ingestSite, ingestStart, ingestEnd, searchType)
		if err != nil {
			return err
		}
		return printJSON(report)
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSite, "site", "", "site identifier (required)")
	ingestCmd.Flags().StringVar(&ingestStart, "start", "", "start date YYYY-MM-DD (required)")
	ingestCmd.Flags().StringVar(&ingestEnd, "end", "", "end date YYYY-MM-DD (required)")
	ingestCmd.Flags().StringVar(&ingestSearchType, "search-type", "", "optional search type filter (adds the searchAppearance dimension)")
	_ = ingestCmd.MarkFlagRequired("site")
	_ = ingestCmd.MarkFlagRequired("start")
	_ = ingestCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(ingestCmd)
}
