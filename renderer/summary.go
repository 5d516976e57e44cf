package renderer

import "github.com/wenqin/folio"

type summaryData struct {
	Portfolio *folio.Portfolio
	Summary   folio.Summary
}

// RenderSummary renders the headline CNY figures of a valued portfolio.
func RenderSummary(p *folio.Portfolio, s folio.Summary) string {
	return render("summary.md", summaryData{Portfolio: p, Summary: s})
}
