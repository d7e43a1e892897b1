package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/pipeline"
)

var (
	analyzeDomain      string
	analyzeAuthority   float64
	analyzeSeeds       []string
	analyzeCompetitors []string
	analyzeVertical    string
	analyzeIndustry    string
	analyzeJSON        bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Run a full opportunity analysis for a target domain",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		reg, err := initRegistry()
		if err != nil {
			return err
		}

		req := model.AnalysisRequest{
			TargetDomain:    analyzeDomain,
			SeedKeywords:    analyzeSeeds,
			UserCompetitors: analyzeCompetitors,
			Vertical:        analyzeVertical,
			Industry:        analyzeIndustry,
		}
		if cmd.Flags().Changed("authority") {
			req.TargetAuthority = &analyzeAuthority
		}

		doc, err := pipeline.New(cfg, st, reg).Run(ctx, req)
		if err != nil {
			return err
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		}
		printAnalysisSummary(os.Stdout, doc)
		return nil
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDomain, "domain", "", "target domain (required)")
	analyzeCmd.Flags().Float64Var(&analyzeAuthority, "authority", 0, "known target authority, overrides provider lookup")
	analyzeCmd.Flags().StringSliceVar(&analyzeSeeds, "seed", nil, "seed keyword (repeatable, at least one required)")
	analyzeCmd.Flags().StringSliceVar(&analyzeCompetitors, "competitor", nil, "known competitor domain (repeatable)")
	analyzeCmd.Flags().StringVar(&analyzeVertical, "vertical", "", "declared market vertical for SAM sizing")
	analyzeCmd.Flags().StringVar(&analyzeIndustry, "industry", "", "industry for AI-overview weighting")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full output document as JSON")
	_ = analyzeCmd.MarkFlagRequired("domain")
	rootCmd.AddCommand(analyzeCmd)
}
