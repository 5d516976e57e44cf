package renderer

import "github.com/wenqin/folio"

type positionsData struct {
	Portfolio *folio.Portfolio
	Positions []folio.Position
	Skipped   []folio.Skipped
}

// RenderPositions renders the open positions of a portfolio as a markdown
// table, with the entries the reconstruction set aside listed after it.
func RenderPositions(p *folio.Portfolio, positions []folio.Position, skipped []folio.Skipped) string {
	return render("positions.md", positionsData{Portfolio: p, Positions: positions, Skipped: skipped})
}
