package dashboard

import (
	"fmt"
	"strconv"

	"launchdash/domain/launch"
	"launchdash/internal/query"
)

// Axis labels of the scatter chart, matching the dataset columns
const (
	ScatterXLabel = launch.ColumnPayloadMass
	ScatterYLabel = launch.ColumnClass
)

// SiteColors is the fixed palette of the all-sites pie chart
var SiteColors = map[string]string{
	"CCAFS LC-40":  "lightcyan",
	"VAFB SLC-4E":  "cyan",
	"CCAFS SLC-40": "royalblue",
	"KSC LC-39A":   "darkblue",
}

// Outcome palette of the single-site pie chart
const (
	SuccessColor = "cyan"
	FailureColor = "darkblue"
)

// PieSlice is one labelled wedge of a pie chart
type PieSlice struct {
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color,omitempty"`
}

// PieChart is the render payload of the success-distribution chart
type PieChart struct {
	Title     string           `json:"title"`
	Selection launch.Selection `json:"selection"`
	Slices    []PieSlice       `json:"slices"`
}

// ScatterPoint is one launch on the payload/outcome chart
type ScatterPoint struct {
	Payload  float64        `json:"x"`
	Outcome  launch.Outcome `json:"y"`
	Category string         `json:"category"`
	Site     string         `json:"site"`
}

// ScatterChart is the render payload of the payload-vs-outcome chart
type ScatterChart struct {
	Title     string               `json:"title"`
	XLabel    string               `json:"x_label"`
	YLabel    string               `json:"y_label"`
	Selection launch.Selection     `json:"selection"`
	Range     launch.PayloadRange  `json:"range"`
	Points    []ScatterPoint       `json:"points"`
	Summary   query.OutcomeSummary `json:"summary"`
}

// BuildPieChart turns a success distribution into a pie chart payload
func BuildPieChart(dist launch.Distribution) PieChart {
	site, specific := dist.Selection.Site()
	if !specific {
		chart := PieChart{
			Title:     "Distribution of Successful Launches Across Launch Sites",
			Selection: dist.Selection,
			Slices:    make([]PieSlice, 0, len(dist.BySite)),
		}
		for _, sc := range dist.BySite {
			chart.Slices = append(chart.Slices, PieSlice{Label: sc.Site, Value: sc.Count, Color: SiteColors[sc.Site]})
		}
		return chart
	}

	return PieChart{
		Title:     fmt.Sprintf("Total Success Launches on %s", site),
		Selection: dist.Selection,
		Slices: []PieSlice{
			{Label: "Success", Value: dist.Outcomes.Success, Color: SuccessColor},
			{Label: "Failure", Value: dist.Outcomes.Failure, Color: FailureColor},
		},
	}
}

// BuildScatterChart turns filtered rows into a scatter chart payload
func BuildScatterChart(sel launch.Selection, pr launch.PayloadRange, rows []launch.Record) (ScatterChart, error) {
	summary, err := query.Summarize(rows)
	if err != nil {
		return ScatterChart{}, fmt.Errorf("failed to summarize scatter rows: %w", err)
	}

	chart := ScatterChart{
		Title:     scatterTitle(sel, pr),
		XLabel:    ScatterXLabel,
		YLabel:    ScatterYLabel,
		Selection: sel,
		Range:     pr,
		Points:    make([]ScatterPoint, 0, len(rows)),
		Summary:   summary,
	}
	for _, r := range rows {
		chart.Points = append(chart.Points, ScatterPoint{
			Payload:  r.PayloadMassKg,
			Outcome:  r.Outcome,
			Category: r.BoosterVersionCategory,
			Site:     r.LaunchSite,
		})
	}
	return chart, nil
}

func scatterTitle(sel launch.Selection, pr launch.PayloadRange) string {
	site, specific := sel.Site()
	if !specific {
		return "Correlation between payload and success rate for all sites"
	}
	return fmt.Sprintf("Correlation between payload and success rate for site %s (Payload Range: %s - %s)",
		site, formatKg(pr.Min), formatKg(pr.Max))
}

func formatKg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
