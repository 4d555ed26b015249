package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Veraticus/deal-flow/internal/model"
	"github.com/Veraticus/deal-flow/internal/service"
)

// RunSummary is what a finished run shows the user.
type RunSummary struct {
	RunID     string
	Artifacts []service.Artifact
	Skipped   []string
	Failures  []string
}

// RenderRunSummary renders the completion box listing written and skipped reports.
func RenderRunSummary(title string, s RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", SubtleStyle.Render("run "+s.RunID))
	if len(s.Artifacts) == 0 {
		b.WriteString(FormatWarning("No reports written") + "\n")
	}
	for _, a := range s.Artifacts {
		line := fmt.Sprintf("%s (%d rows, %s)", a.Path, a.Rows, a.DateRange)
		b.WriteString(FormatSuccess(line) + "\n")
		if a.RemoteURI != "" {
			b.WriteString("    " + SubtleStyle.Render(a.RemoteURI) + "\n")
		}
	}
	for _, name := range s.Skipped {
		b.WriteString(FormatInfo(name+": no matching sales") + "\n")
	}
	for _, f := range s.Failures {
		b.WriteString(FormatError(f) + "\n")
	}

	return RenderBox(ChartIcon+" "+title, strings.TrimRight(b.String(), "\n"))
}

// RenderRules renders the rule table as aligned columns.
func RenderRules(rules []model.Rule) string {
	header := []string{"Brand", "Vendors", "Days", "Categories", "Products", "Discount", "Kickback"}
	rows := make([][]string, len(rules))
	for i, r := range rules {
		rows[i] = []string{
			r.Name,
			strings.Join(r.VendorSet(), "; "),
			r.DaysActive(),
			orAny(r.Categories),
			orAny(r.BrandSubstrings),
			fmt.Sprintf("%.0f%%", r.Factors.DiscountRate*100),
			fmt.Sprintf("%.0f%%", r.Factors.KickbackRate*100),
		}
	}

	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			widths[i] = max(widths[i], lipgloss.Width(cell))
		}
	}

	render := func(style lipgloss.Style, cells []string) string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = style.Width(widths[i] + TableCellStyle.GetPaddingRight()).Render(c)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, out...)
	}

	lines := []string{render(TableHeaderStyle, header)}
	for _, row := range rows {
		lines = append(lines, render(TableCellStyle, row))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func orAny(values []string) string {
	if len(values) == 0 {
		return "any"
	}
	return strings.Join(values, ", ")
}
