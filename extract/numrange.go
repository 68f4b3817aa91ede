package extract

import (
	"regexp"
	"strconv"

	"github.com/communehq/membersearch/core"
)

// Currency unit multipliers in rupees.
const (
	UnitLakh  int64 = 100_000
	UnitCrore int64 = 10_000_000
)

const (
	numPattern  = `(\d+(?:\.\d+)?)`
	unitPattern = `(crores?|cr|lakhs?|lacs?)`
	yearPattern = `((?:19|20)\d{2})`
)

var (
	turnoverBetweenRe = regexp.MustCompile(`between\s+` + numPattern + `\s*` + unitPattern + `?\s+and\s+` + numPattern + `\s*` + unitPattern + `?`)
	turnoverAboveRe   = regexp.MustCompile(`(?:above|over|more than|greater than|at least|minimum(?: of)?)\s+` + numPattern + `\s*` + unitPattern + `?`)
	turnoverBelowRe   = regexp.MustCompile(`(?:below|under|less than|at most|maximum(?: of)?)\s+` + numPattern + `\s*` + unitPattern + `?`)
	turnoverKeywordRe = regexp.MustCompile(`\b(?:turnover|revenue|sales)\b`)

	yearSpanRe    = regexp.MustCompile(yearPattern + `\s*(?:to|-|–|until|till)\s*` + yearPattern)
	yearAfterRe   = regexp.MustCompile(`(?:after|since|from)\s+` + yearPattern)
	yearBeforeRe  = regexp.MustCompile(`(?:before|until|till)\s+` + yearPattern)
	yearBatchRe   = regexp.MustCompile(`(?:batch of|batch|class of|passed out in|graduated in)\s+` + yearPattern)
	bareYearSpanRe = regexp.MustCompile(`\b` + yearPattern + `\s+(?:and|to)\s+` + yearPattern + `\b`)
)

// parseYearRange extracts a graduation-year filter from normalized text.
// Returns nil when no year phrasing is present.
func parseYearRange(text string) *core.Range {
	if m := yearSpanRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.ParseInt(m[1], 10, 64)
		hi, _ := strconv.ParseInt(m[2], 10, 64)
		if lo > hi {
			lo, hi = hi, lo
		}
		return &core.Range{Min: lo, Max: hi, HasMin: true, HasMax: true}
	}
	if m := bareYearSpanRe.FindStringSubmatch(text); m != nil {
		lo, _ := strconv.ParseInt(m[1], 10, 64)
		hi, _ := strconv.ParseInt(m[2], 10, 64)
		if lo > hi {
			lo, hi = hi, lo
		}
		return &core.Range{Min: lo, Max: hi, HasMin: true, HasMax: true}
	}
	if m := yearBatchRe.FindStringSubmatch(text); m != nil {
		y, _ := strconv.ParseInt(m[1], 10, 64)
		return &core.Range{Min: y, Max: y, HasMin: true, HasMax: true}
	}
	if m := yearAfterRe.FindStringSubmatch(text); m != nil {
		y, _ := strconv.ParseInt(m[1], 10, 64)
		return &core.Range{Min: y, HasMin: true}
	}
	if m := yearBeforeRe.FindStringSubmatch(text); m != nil {
		y, _ := strconv.ParseInt(m[1], 10, 64)
		return &core.Range{Max: y, HasMax: true}
	}
	return nil
}

// parseTurnoverRange extracts a turnover filter from normalized text.
// A bound without an explicit currency unit is only accepted when turnover
// phrasing is present; it then uses the community default unit and is
// reported as a low-confidence field rather than silently dropped.
func parseTurnoverRange(text string, defaultUnit int64) (r *core.Range, ambiguous bool) {
	hasKeyword := turnoverKeywordRe.MatchString(text)

	if m := turnoverBetweenRe.FindStringSubmatch(text); m != nil {
		loUnit, loKnown := unitMultiplier(m[2], defaultUnit)
		hiUnit, hiKnown := unitMultiplier(m[4], defaultUnit)
		if !loKnown && hiKnown {
			loUnit = hiUnit
			loKnown = true
		}
		if loKnown || hiKnown || hasKeyword {
			lo := toRupees(m[1], loUnit)
			hi := toRupees(m[3], hiUnit)
			if lo > hi {
				lo, hi = hi, lo
			}
			return &core.Range{Min: lo, Max: hi, HasMin: true, HasMax: true}, !loKnown || !hiKnown
		}
		return nil, false
	}

	if m := turnoverAboveRe.FindStringSubmatch(text); m != nil {
		unit, known := unitMultiplier(m[2], defaultUnit)
		if known || hasKeyword {
			return &core.Range{Min: toRupees(m[1], unit), HasMin: true}, !known
		}
	}
	if m := turnoverBelowRe.FindStringSubmatch(text); m != nil {
		unit, known := unitMultiplier(m[2], defaultUnit)
		if known || hasKeyword {
			return &core.Range{Max: toRupees(m[1], unit), HasMax: true}, !known
		}
	}
	return nil, false
}

// unitMultiplier maps a matched unit token to rupees. known is false when the
// token was empty, in which case the community default applies.
func unitMultiplier(token string, defaultUnit int64) (mult int64, known bool) {
	switch token {
	case "crore", "crores", "cr":
		return UnitCrore, true
	case "lakh", "lakhs", "lac", "lacs":
		return UnitLakh, true
	case "":
		return defaultUnit, false
	default:
		return defaultUnit, false
	}
}

func toRupees(num string, unit int64) int64 {
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0
	}
	return int64(v * float64(unit))
}
