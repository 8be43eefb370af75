package launch

import (
	"encoding/json"
	"strings"
)

// AllSitesValue is the wire form of the all-sites selection
const AllSitesValue = "ALL"

// Selection chooses either every launch site or one specific site.
// The zero value selects all sites.
type Selection struct {
	site     string
	specific bool
}

// AllSites selects every launch site
func AllSites() Selection {
	return Selection{}
}

// SpecificSite selects a single launch site by name
func SpecificSite(name string) Selection {
	return Selection{site: name, specific: true}
}

// ParseSelection maps the dropdown value to a Selection. "ALL" (and an empty
// value, which is what an untouched dropdown sends) selects all sites.
func ParseSelection(value string) Selection {
	v := strings.TrimSpace(value)
	if v == "" || v == AllSitesValue {
		return AllSites()
	}
	return SpecificSite(v)
}

// IsAll reports whether the selection covers every site
func (s Selection) IsAll() bool {
	return !s.specific
}

// Site returns the selected site name and true, or "" and false for all sites
func (s Selection) Site() (string, bool) {
	return s.site, s.specific
}

// Matches reports whether a record's site falls under the selection
func (s Selection) Matches(site string) bool {
	return !s.specific || s.site == site
}

// String returns the wire form
func (s Selection) String() string {
	if !s.specific {
		return AllSitesValue
	}
	return s.site
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var value string
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*s = ParseSelection(value)
	return nil
}
