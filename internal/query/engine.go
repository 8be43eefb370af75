package query

import (
	"sort"

	"launchdash/domain/launch"
)

// Engine answers the dashboard's two chart queries over one immutable dataset.
// It holds no mutable state, so a single Engine may be shared across goroutines.
type Engine struct {
	dataset *launch.Dataset
}

// NewEngine creates a query engine over the dataset
func NewEngine(dataset *launch.Dataset) *Engine {
	if dataset == nil {
		dataset = launch.NewDataset("", nil)
	}
	return &Engine{dataset: dataset}
}

// Dataset returns the underlying dataset
func (e *Engine) Dataset() *launch.Dataset {
	return e.dataset
}

// SuccessDistribution counts successful launches per site for all sites, or the
// success/failure split for one site. Unknown sites yield zero counts.
func (e *Engine) SuccessDistribution(sel launch.Selection) launch.Distribution {
	result := launch.Distribution{Selection: sel}

	if sel.IsAll() {
		counts := make(map[string]int)
		e.dataset.Each(func(r launch.Record) {
			if r.LaunchSite == "" || r.Outcome != launch.OutcomeSuccess {
				return
			}
			counts[r.LaunchSite]++
		})

		result.BySite = make([]launch.SiteCount, 0, len(counts))
		for site, n := range counts {
			result.BySite = append(result.BySite, launch.SiteCount{Site: site, Count: n})
		}
		sort.Slice(result.BySite, func(i, j int) bool {
			return result.BySite[i].Site < result.BySite[j].Site
		})
		return result
	}

	e.dataset.Each(func(r launch.Record) {
		if !sel.Matches(r.LaunchSite) {
			return
		}
		switch r.Outcome {
		case launch.OutcomeSuccess:
			result.Outcomes.Success++
		case launch.OutcomeFailure:
			result.Outcomes.Failure++
		}
	})
	return result
}

// PayloadOutcomes returns the records under the selection whose payload lies in
// the inclusive range, in dataset order. Records without a payload never match.
func (e *Engine) PayloadOutcomes(sel launch.Selection, payload launch.PayloadRange) []launch.Record {
	rows := make([]launch.Record, 0)
	e.dataset.Each(func(r launch.Record) {
		if !sel.Matches(r.LaunchSite) {
			return
		}
		p, ok := r.Payload()
		if !ok || !payload.Contains(p) {
			return
		}
		rows = append(rows, r)
	})
	return rows
}
