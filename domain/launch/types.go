package launch

import (
	"encoding/json"
	"math"
)

// Column names expected in the launch records file
const (
	ColumnLaunchSite      = "Launch Site"
	ColumnPayloadMass     = "Payload Mass (kg)"
	ColumnBoosterCategory = "Booster Version Category"
	ColumnClass           = "class"
)

// RequiredColumns lists the columns every launch source must provide
var RequiredColumns = []string{ColumnLaunchSite, ColumnPayloadMass, ColumnBoosterCategory, ColumnClass}

// Outcome is the binary launch result. The zero value means the outcome is unknown.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeFailure
	OutcomeSuccess
)

// OutcomeFromClass maps the dataset's 0/1 class value to an Outcome
func OutcomeFromClass(class int) Outcome {
	switch class {
	case 1:
		return OutcomeSuccess
	case 0:
		return OutcomeFailure
	default:
		return OutcomeUnknown
	}
}

// Class returns the 0/1 class value and whether the outcome is known
func (o Outcome) Class() (int, bool) {
	switch o {
	case OutcomeSuccess:
		return 1, true
	case OutcomeFailure:
		return 0, true
	default:
		return 0, false
	}
}

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the outcome as its class value, or null when unknown
func (o Outcome) MarshalJSON() ([]byte, error) {
	class, ok := o.Class()
	if !ok {
		return []byte("null"), nil
	}
	return json.Marshal(class)
}

// Record is one launch attempt
type Record struct {
	LaunchSite             string  `json:"launch_site"`
	PayloadMassKg          float64 `json:"payload_mass_kg"`
	PayloadKnown           bool    `json:"-"`
	BoosterVersionCategory string  `json:"booster_version_category"`
	Outcome                Outcome `json:"class"`
}

// Payload returns the payload mass and whether it is defined and finite
func (r Record) Payload() (float64, bool) {
	if !r.PayloadKnown || math.IsNaN(r.PayloadMassKg) || math.IsInf(r.PayloadMassKg, 0) {
		return 0, false
	}
	return r.PayloadMassKg, true
}

// Dataset is the immutable, ordered table of launch records
type Dataset struct {
	records []Record
	source  string
}

// NewDataset copies records into a new dataset
func NewDataset(source string, records []Record) *Dataset {
	owned := make([]Record, len(records))
	copy(owned, records)
	return &Dataset{records: owned, source: source}
}

// Len returns the number of records
func (d *Dataset) Len() int {
	return len(d.records)
}

// Source describes where the dataset was loaded from
func (d *Dataset) Source() string {
	return d.source
}

// At returns the record at index i
func (d *Dataset) At(i int) Record {
	return d.records[i]
}

// Each calls fn for every record in dataset order
func (d *Dataset) Each(fn func(Record)) {
	for _, r := range d.records {
		fn(r)
	}
}

// Sites returns the distinct non-empty launch sites in first-seen order
func (d *Dataset) Sites() []string {
	seen := make(map[string]bool)
	var sites []string
	for _, r := range d.records {
		if r.LaunchSite == "" || seen[r.LaunchSite] {
			continue
		}
		seen[r.LaunchSite] = true
		sites = append(sites, r.LaunchSite)
	}
	return sites
}

// PayloadBounds returns the observed min/max payload over records with a known payload.
// ok is false when no record has a payload.
func (d *Dataset) PayloadBounds() (PayloadRange, bool) {
	var bounds PayloadRange
	found := false
	for _, r := range d.records {
		p, known := r.Payload()
		if !known {
			continue
		}
		if !found {
			bounds = PayloadRange{Min: p, Max: p}
			found = true
			continue
		}
		bounds.Min = math.Min(bounds.Min, p)
		bounds.Max = math.Max(bounds.Max, p)
	}
	return bounds, found
}

// PayloadRange is an inclusive payload interval in kilograms
type PayloadRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains applies the literal inclusive comparison min <= p <= max.
// A swapped range is not corrected.
func (pr PayloadRange) Contains(p float64) bool {
	return pr.Min <= p && p <= pr.Max
}

// SiteCount is the number of successful launches at one site
type SiteCount struct {
	Site  string `json:"site"`
	Count int    `json:"count"`
}

// OutcomeCounts holds the success/failure split for a single site
type OutcomeCounts struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// Distribution is the result of a success-distribution query. Exactly one of
// BySite (all sites) or Outcomes (specific site) is meaningful, selected by Selection.
type Distribution struct {
	Selection Selection
	BySite    []SiteCount
	Outcomes  OutcomeCounts
}

// MarshalJSON writes by_site for all sites and outcomes for a specific site,
// never both.
func (d Distribution) MarshalJSON() ([]byte, error) {
	if d.Selection.IsAll() {
		bySite := d.BySite
		if bySite == nil {
			bySite = []SiteCount{}
		}
		return json.Marshal(struct {
			Selection Selection   `json:"selection"`
			BySite    []SiteCount `json:"by_site"`
		}{d.Selection, bySite})
	}
	return json.Marshal(struct {
		Selection Selection     `json:"selection"`
		Outcomes  OutcomeCounts `json:"outcomes"`
	}{d.Selection, d.Outcomes})
}
