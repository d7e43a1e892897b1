package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/decay"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

var (
	decayDomain string
	decayInput  string
)

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Score published pages for content decay",
	Long:  "Reads per-page trailing-window metrics from a YAML file, scores decay severity, and recommends keep/update/expand/refresh/consolidate actions.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(decayInput)
		if err != nil {
			return eris.Wrapf(err, "read input %s", decayInput)
		}
		var windows []model.PageWindow
		if err := yaml.Unmarshal(data, &windows); err != nil {
			return eris.Wrapf(err, "parse input %s", decayInput)
		}
		if len(windows) == 0 {
			return eris.New("no page windows in input")
		}

		assessments := decay.AssessAll(windows, time.Now().UTC())

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()
		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}
		if err := st.SaveAssessments(ctx, decayDomain, assessments); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "PAGE\tSCORE\tSEVERITY\tACTION")
		for _, a := range assessments {
			fmt.Fprintf(w, "%s\t%.2f\t%s\t%s\n", a.PageURL, a.Score, a.Severity, a.Action)
		}
		return w.Flush()
	},
}

func init() {
	decayCmd.Flags().StringVar(&decayDomain, "domain", "", "domain the pages belong to (required)")
	decayCmd.Flags().StringVar(&decayInput, "input", "", "YAML file of page windows (required)")
	_ = decayCmd.MarkFlagRequired("domain")
	_ = decayCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(decayCmd)
}
