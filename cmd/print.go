package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/Retzlik/Authoricy-Engine-sub001/internal/model"
)

func printAnalysisSummary(out io.Writer, doc *model.OutputDocument) {
	fmt.Fprintf(out, "Run %s for %s\n\n", doc.RunID, doc.TargetDomain)

	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COMPETITOR\tPURPOSE\tAUTHORITY\tCONFIDENCE")
	for _, c := range model.ActiveCompetitors(doc.Competitors) {
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%s\n",
			c.Domain, c.Purpose, c.AuthorityOr(0), c.Authority.Confidence)
	}
	w.Flush()

	if doc.Market != nil {
		fmt.Fprintf(out, "\nMarket: TAM %.0f / SAM %.0f / SOM %.0f (opportunity %.0f, intensity %.0f)\n",
			doc.Market.TAM.Volume, doc.Market.SAM.Volume, doc.Market.SOM.Volume,
			doc.Market.OpportunityScore, doc.Market.CompetitionIntensity)
	}

	if doc.Roadmap != nil {
		fmt.Fprintf(out, "\nBeachheads (%d):\n", len(doc.Roadmap.Beachheads))
		for i, b := range doc.Roadmap.Beachheads {
			fmt.Fprintf(out, "  %2d. %s\n", i+1, b)
		}
		fmt.Fprintln(out)
		pw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(pw, "PHASE\tKEYWORDS\tEST TRAFFIC (LOW-HIGH)")
		for _, p := range doc.Roadmap.Phases {
			fmt.Fprintf(pw, "%s\t%d\t%.0f-%.0f\n",
				p.Name, p.KeywordCount, p.EstTraffic.Low, p.EstTraffic.High)
		}
		pw.Flush()
	}

	for _, warn := range doc.Warnings {
		fmt.Fprintf(out, "warning: %s\n", warn)
	}
	for _, e := range doc.Errors {
		fmt.Fprintf(out, "error: %s\n", e)
	}
}
