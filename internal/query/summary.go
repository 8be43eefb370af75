package query

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"launchdash/domain/launch"
)

// PayloadSummary describes the distribution of known payload masses
type PayloadSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Q25    float64 `json:"q25"`
	Q75    float64 `json:"q75"`
}

// BoosterSuccess is the launch success rate of one booster version category
type BoosterSuccess struct {
	Category  string  `json:"category"`
	Launches  int     `json:"launches"`
	Successes int     `json:"successes"`
	Rate      float64 `json:"rate"`
}

// OutcomeSummary describes a row set as plotted on the scatter chart
type OutcomeSummary struct {
	Payload  PayloadSummary   `json:"payload"`
	Boosters []BoosterSuccess `json:"boosters"`
	// Correlation is Pearson's r between payload and class; nil when undefined
	Correlation *float64 `json:"correlation,omitempty"`
}

// SummarizePayloads computes payload statistics over records with a known payload.
// An empty input yields a zero summary.
func SummarizePayloads(records []launch.Record) (PayloadSummary, error) {
	data := make(stats.Float64Data, 0, len(records))
	for _, r := range records {
		if p, ok := r.Payload(); ok {
			data = append(data, p)
		}
	}

	summary := PayloadSummary{Count: len(data)}
	if len(data) == 0 {
		return summary, nil
	}

	var err error
	if summary.Min, err = stats.Min(data); err != nil {
		return summary, err
	}
	if summary.Max, err = stats.Max(data); err != nil {
		return summary, err
	}
	if summary.Mean, err = stats.Mean(data); err != nil {
		return summary, err
	}
	if summary.Median, err = stats.Median(data); err != nil {
		return summary, err
	}
	if summary.Q25, err = stats.Percentile(data, 25); err != nil {
		return summary, err
	}
	if summary.Q75, err = stats.Percentile(data, 75); err != nil {
		return summary, err
	}
	return summary, nil
}

// BoosterSuccessRates groups records with a known outcome by booster category.
// Categories are sorted by name.
func BoosterSuccessRates(records []launch.Record) []BoosterSuccess {
	classes := make(map[string][]float64)
	for _, r := range records {
		class, ok := r.Outcome.Class()
		if !ok || r.BoosterVersionCategory == "" {
			continue
		}
		classes[r.BoosterVersionCategory] = append(classes[r.BoosterVersionCategory], float64(class))
	}

	result := make([]BoosterSuccess, 0, len(classes))
	for category, values := range classes {
		result = append(result, BoosterSuccess{
			Category:  category,
			Launches:  len(values),
			Successes: int(floats.Sum(values)),
			Rate:      stat.Mean(values, nil),
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Category < result[j].Category })
	return result
}

// PayloadOutcomeCorrelation returns Pearson's r between payload and class over
// records where both are known. ok is false with fewer than two points or zero variance.
func PayloadOutcomeCorrelation(records []launch.Record) (float64, bool) {
	var xs, ys []float64
	for _, r := range records {
		p, pok := r.Payload()
		class, cok := r.Outcome.Class()
		if !pok || !cok {
			continue
		}
		xs = append(xs, p)
		ys = append(ys, float64(class))
	}
	if len(xs) < 2 {
		return 0, false
	}

	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, false
	}
	return r, true
}

// Summarize builds the full outcome summary for a row set
func Summarize(records []launch.Record) (OutcomeSummary, error) {
	payload, err := SummarizePayloads(records)
	if err != nil {
		return OutcomeSummary{}, err
	}

	summary := OutcomeSummary{
		Payload:  payload,
		Boosters: BoosterSuccessRates(records),
	}
	if r, ok := PayloadOutcomeCorrelation(records); ok {
		summary.Correlation = &r
	}
	return summary, nil
}
