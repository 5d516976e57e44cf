package renderer

import "github.com/wenqin/folio"

type statsData struct {
	Portfolio *folio.Portfolio
	Rows      []folio.PeriodStats
}

// RenderStats renders the rolling-window returns of a portfolio, one row
// per window, in fixed order.
func RenderStats(p *folio.Portfolio, stats map[folio.Period]folio.PeriodStats) string {
	data := statsData{Portfolio: p}
	for _, period := range []folio.Period{folio.Daily, folio.Weekly, folio.Monthly, folio.Yearly, folio.Total} {
		if row, ok := stats[period]; ok {
			data.Rows = append(data.Rows, row)
		}
	}
	return render("stats.md", data)
}
