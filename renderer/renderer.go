// Package renderer turns engine results into markdown reports.
package renderer

import (
	"embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/shopspring/decimal"

	"github.com/wenqin/folio"
)

//go:embed *.md
var templates embed.FS

var funcs = template.FuncMap{
	"num":    num,
	"optnum": optnum,
	"money":  moneyCNY,
	"pct":    pct,
	"optpct": optpct,
}

func num(d decimal.Decimal) string { return d.StringFixed(2) }

func optnum(d *decimal.Decimal) string {
	if d == nil {
		return "-"
	}
	return d.StringFixed(2)
}

func moneyCNY(d decimal.Decimal) string { return folio.CNY(d).String() }

func pct(d decimal.Decimal) string {
	if d.IsNegative() {
		return d.StringFixed(2) + "%"
	}
	return "+" + d.StringFixed(2) + "%"
}

func optpct(d *decimal.Decimal) string {
	if d == nil {
		return "n/a"
	}
	return pct(*d)
}

// render executes an embedded template file over data.
func render(file string, data any) string {
	content, err := templates.ReadFile(file)
	if err != nil {
		return fmt.Sprintf("error reading template %q: %v", file, err)
	}
	tmpl, err := template.New(file).Funcs(funcs).Parse(string(content))
	if err != nil {
		return fmt.Sprintf("error parsing template %q: %v", file, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", file, err)
	}
	return b.String()
}
