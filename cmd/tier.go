package main

import (
	"github.com/spf13/cobra"

	"github.com/seopulse/seopulse/internal/tiering"
)

var tierSite string

var tierCmd = &cobra.Command{
	Use:   "tier",
	Short: "Classify tracked pages into performance tiers",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		report, err := env.Tiering.Run(cmd.Context(), tierSite)
		if err != nil {
			return err
		}
		return printJSON(struct {
			*tiering.RunReport
			Recommendations []string `json:"recommendations,omitempty"`
		}{report, report.Recommendations()})
	},
}

func init() {
	tierCmd.Flags().StringVar(&tierSite, "site", "", "site identifier (required)")
	_ = tierCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(tierCmd)
}
