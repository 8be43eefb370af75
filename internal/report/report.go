package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"launchdash/internal/dashboard"
)

// Markdown renders the two charts of a selection as a markdown report
func Markdown(source string, pie dashboard.PieChart, scatter dashboard.ScatterChart) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Launch Records Report\n\n")
	fmt.Fprintf(&b, "Dataset: `%s`  \nSite: **%s**  \nPayload range: %s - %s kg\n\n",
		source, pie.Selection, kg(scatter.Range.Min), kg(scatter.Range.Max))

	fmt.Fprintf(&b, "## %s\n\n", pie.Title)
	fmt.Fprintf(&b, "| Label | Launches |\n| --- | ---: |\n")
	for _, s := range pie.Slices {
		fmt.Fprintf(&b, "| %s | %d |\n", s.Label, s.Value)
	}
	if len(pie.Slices) == 0 {
		fmt.Fprintf(&b, "| (none) | 0 |\n")
	}

	fmt.Fprintf(&b, "\n## %s\n\n", scatter.Title)
	summary := scatter.Summary
	fmt.Fprintf(&b, "- Launches in range: %d\n", len(scatter.Points))
	if summary.Payload.Count > 0 {
		fmt.Fprintf(&b, "- Payload min / median / max: %s / %s / %s kg\n",
			kg(summary.Payload.Min), kg(summary.Payload.Median), kg(summary.Payload.Max))
		fmt.Fprintf(&b, "- Payload mean: %.1f kg\n", summary.Payload.Mean)
	}
	if summary.Correlation != nil {
		fmt.Fprintf(&b, "- Payload/outcome correlation: %.3f\n", *summary.Correlation)
	} else {
		fmt.Fprintf(&b, "- Payload/outcome correlation: n/a\n")
	}

	if len(summary.Boosters) > 0 {
		fmt.Fprintf(&b, "\n| Booster | Launches | Successes | Rate |\n| --- | ---: | ---: | ---: |\n")
		for _, bs := range summary.Boosters {
			fmt.Fprintf(&b, "| %s | %d | %d | %.0f%% |\n", bs.Category, bs.Launches, bs.Successes, bs.Rate*100)
		}
	}
	return b.Bytes()
}

// HTML renders markdown to an HTML fragment
func HTML(md []byte) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return markdown.ToHTML(md, p, renderer)
}

func kg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
