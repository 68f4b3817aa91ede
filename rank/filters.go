package rank

import (
	"strings"

	"github.com/communehq/membersearch/core"
)

// filterField identifies one structured filter for broadening.
type filterField int

const (
	filterTurnover filterField = iota
	filterYear
	filterDegree
	filterServices
	filterSkills
	filterLocation
)

// broadenOrder is the sequence in which filters are dropped when a query
// matches nothing: most restrictive and least intentful first, location last.
var broadenOrder = []filterField{
	filterTurnover,
	filterYear,
	filterDegree,
	filterServices,
	filterSkills,
	filterLocation,
}

// activeFilters lists which structured filters the extraction carries.
func activeFilters(e *core.Entities) []filterField {
	var active []filterField
	if e.TurnoverRange != nil {
		active = append(active, filterTurnover)
	}
	if e.YearRange != nil {
		active = append(active, filterYear)
	}
	if e.Degree != "" {
		active = append(active, filterDegree)
	}
	if len(e.Services) > 0 {
		active = append(active, filterServices)
	}
	if len(e.Skills) > 0 {
		active = append(active, filterSkills)
	}
	if len(e.AllLocations()) > 0 {
		active = append(active, filterLocation)
	}
	return active
}

// dropFilter returns a copy of entities with one filter removed.
func dropFilter(e core.Entities, field filterField) core.Entities {
	switch field {
	case filterTurnover:
		e.TurnoverRange = nil
	case filterYear:
		e.YearRange = nil
	case filterDegree:
		e.Degree = ""
	case filterServices:
		e.Services = nil
	case filterSkills:
		e.Skills = nil
	case filterLocation:
		e.Location = ""
		e.Locations = nil
	}
	return e
}

// matchesFilters applies every active filter to one member. Filters combine
// with AND across fields; the values within one field combine with OR.
func matchesFilters(m *core.MemberRecord, e *core.Entities) bool {
	if locations := e.AllLocations(); len(locations) > 0 {
		if !anyTermMatches(m.Location, locations) {
			return false
		}
	}
	if len(e.Skills) > 0 {
		if !anyListOverlap(m.Skills, e.Skills) {
			return false
		}
	}
	if len(e.Services) > 0 {
		if !anyListOverlap(m.Services, e.Services) {
			return false
		}
	}
	if e.Degree != "" {
		if !termMatches(m.Degree, e.Degree) {
			return false
		}
	}
	if e.YearRange != nil {
		if m.GraduationYear == 0 || !e.YearRange.Contains(m.GraduationYear) {
			return false
		}
	}
	if e.TurnoverRange != nil {
		if m.TurnoverINR == 0 || !e.TurnoverRange.Contains(m.TurnoverINR) {
			return false
		}
	}
	return true
}

// termMatches compares case-insensitively, accepting containment either way
// so "b.tech" matches "B.Tech (Mech)" and "machine learning" matches "ml and
// machine learning".
func termMatches(have, want string) bool {
	have = strings.ToLower(strings.TrimSpace(have))
	want = strings.ToLower(strings.TrimSpace(want))
	if have == "" || want == "" {
		return false
	}
	return have == want || strings.Contains(have, want) || strings.Contains(want, have)
}

func anyTermMatches(have string, wants []string) bool {
	for _, w := range wants {
		if termMatches(have, w) {
			return true
		}
	}
	return false
}

func anyListOverlap(haves, wants []string) bool {
	for _, w := range wants {
		for _, h := range haves {
			if termMatches(h, w) {
				return true
			}
		}
	}
	return false
}
