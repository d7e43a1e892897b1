package main

import (
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/classify"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
	"github.com/Retzlik/Authoricy-Engine-sub001/internal/roadmap"
)

var (
	curateRunID     string
	curateFile      string
	curateRemove    []string
	curateOverrides []string
)

var curateCmd = &cobra.Command{
	Use:   "curate",
	Short: "Apply a curation pass to a run's competitor set",
	Long:  "Removes, re-purposes or adds competitors on a stored run, re-validates the set, and regenerates the roadmap when the set becomes balanced.",
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

		doc, err := st.GetOutput(ctx, curateRunID)
		if err != nil {
			return err
		}
		if doc == nil {
			return eris.Errorf("no output stored for run %s", curateRunID)
		}
		cur, err := buildCuration()
		if err != nil {
			return err
		}

		// Re-validate against the authority the run actually resolved,
		// whether it came from the user or from provider reconciliation.
		curated, report, err := classify.Curate(doc.Competitors, cur, doc.TargetAuthority.ValueOr(0))
		if err != nil {
			return err
		}
		doc.Competitors = curated

		for _, w := range report.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
		if !report.OK() {
			for _, e := range report.Errors {
				fmt.Fprintf(os.Stderr, "error: %s\n", e)
			}
			if err := st.SaveOutput(ctx, doc); err != nil {
				return err
			}
			return report.Err()
		}

		// The set is balanced now; regenerate the roadmap from the stored
		// scored universe and unblock the run.
		phased, rm := roadmap.Generate(doc.Universe, cfg.Roadmap)
		doc.Universe = phased
		doc.Roadmap = rm
		doc.Warnings = append(doc.Warnings, rm.Warnings...)

		if err := st.SaveOutput(ctx, doc); err != nil {
			return err
		}
		if err := st.UpdateRunStatus(ctx, curateRunID, model.RunStatusComplete); err != nil {
			return err
		}

		fmt.Printf("Curation applied: %d competitors, %d beachheads, run %s unblocked.\n",
			len(model.ActiveCompetitors(curated)), len(rm.Beachheads), curateRunID)
		return nil
	},
}

// buildCuration merges the --file curation document with the flag shorthands.
func buildCuration() (classify.Curation, error) {
	var cur classify.Curation

	if curateFile != "" {
		data, err := os.ReadFile(curateFile)
		if err != nil {
			return cur, eris.Wrapf(err, "read curation file %s", curateFile)
		}
		if err := yaml.Unmarshal(data, &cur); err != nil {
			return cur, eris.Wrapf(err, "parse curation file %s", curateFile)
		}
	}

	cur.Removals = append(cur.Removals, curateRemove...)
	for _, o := range curateOverrides {
		domain, purpose, ok := splitOverride(o)
		if !ok {
			return cur, eris.Errorf("invalid override %q, expected domain=purpose", o)
		}
		if cur.Overrides == nil {
			cur.Overrides = make(map[string]model.PurposeCategory)
		}
		cur.Overrides[domain] = model.PurposeCategory(purpose)
	}
	return cur, nil
}

func splitOverride(s string) (string, string, bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			return s[:i], s[i+1:], i > 0 && i < len(s)-1
		}
	}
	return "", "", false
}

func init() {
	curateCmd.Flags().StringVar(&curateRunID, "run", "", "run ID to curate (required)")
	curateCmd.Flags().StringVar(&curateFile, "file", "", "YAML curation document (removals, additions, overrides)")
	curateCmd.Flags().StringSliceVar(&curateRemove, "remove", nil, "domain to remove (repeatable)")
	curateCmd.Flags().StringSliceVar(&curateOverrides, "override", nil, "purpose override as domain=purpose (repeatable)")
	_ = curateCmd.MarkFlagRequired("run")
	rootCmd.AddCommand(curateCmd)
}
