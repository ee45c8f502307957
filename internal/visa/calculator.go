package visa

import (
	"sort"
	"time"

	"github.com/visaday/backend/internal/domain"
)

// resetGapDays is the grace threshold for reset rules: visits separated by
// fewer than this many days count as one continuous presence, while a gap of
// resetGapDays or more restarts the counter.
const resetGapDays = 7

// Calculate computes allowance usage for one country as of ref.
//
// stays may contain records for any country; only those matching countryCode
// participate. The collection is expected to be reconciler output — no
// overlap assumptions are re-verified here. ref is normalized to midnight
// UTC before any math, so all day differences are exact integers.
//
// A zero-value Rule (no rule registered for the country) yields a zeroed
// safe Status: absence of a rule is not an error.
func Calculate(stays []domain.Stay, countryCode string, rule Rule, ref time.Time) Status {
	ref = domain.DateOnly(ref)
	st := Status{CountryCode: countryCode, MaxDays: rule.MaxDays, Level: LevelSafe}

	var country []domain.Stay
	for _, s := range stays {
		if s.CountryCode == countryCode {
			country = append(country, s)
		}
	}
	if len(country) == 0 {
		return finalize(st, rule)
	}

	switch rule.Type {
	case RuleReset:
		calculateReset(&st, country, ref)
	case RuleRolling:
		calculateRolling(&st, country, rule.PeriodDays, ref)
	case RuleAnnual:
		calculateAnnual(&st, country, ref)
	}
	return finalize(st, rule)
}

// calculateReset sums the maximal contiguous group of visits ending at the
// most recent stay. Walking newest-entry-first, an older stay joins the
// group while the gap between its effective exit and the more recent stay's
// entry is under the reset threshold; the first true gap ends the group.
// The whole group counts against the allowance, planned days included.
func calculateReset(st *Status, country []domain.Stay, ref time.Time) {
	byEntryDesc(country)

	group := country[:1]
	for i := 1; i < len(country); i++ {
		gap := daysBetween(country[i].EffectiveExit(ref), country[i-1].EntryDate)
		if gap >= resetGapDays {
			break
		}
		group = country[:i+1]
	}

	for _, s := range group {
		cur, planned := splitSpan(s, ref)
		st.CurrentDays += cur
		st.PlannedDays += planned
		st.DaysUsed += cur + planned
	}
}

// calculateRolling counts days inside the inclusive window
// [ref − periodDays, ref]. Days beyond ref never enter DaysUsed; a stay
// extending past ref (or dated entirely in the future) contributes the
// excess to PlannedDays only.
func calculateRolling(st *Status, country []domain.Stay, periodDays int, ref time.Time) {
	periodStart := ref.AddDate(0, 0, -periodDays)

	for _, s := range country {
		if s.EntryDate.After(ref) {
			// Entirely a planned future stay; no window math.
			_, planned := splitSpan(s, ref)
			st.PlannedDays += planned
			continue
		}

		end := effectiveEnd(s, ref)
		start := laterOf(s.EntryDate, periodStart)
		usedEnd := earlierOf(end, ref)
		if !usedEnd.Before(start) {
			n := inclusiveDays(start, usedEnd)
			st.DaysUsed += n
			st.CurrentDays += n
		}
		if end.After(ref) {
			st.PlannedDays += daysBetween(ref, end)
		}
	}
}

// calculateAnnual counts days falling inside the calendar year of ref,
// planned days included, clipped to the year's boundaries.
func calculateAnnual(st *Status, country []domain.Stay, ref time.Time) {
	yearStart := time.Date(ref.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(ref.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)

	for _, s := range country {
		start := laterOf(s.EntryDate, yearStart)
		end := earlierOf(effectiveEnd(s, ref), yearEnd)
		if end.Before(start) {
			continue
		}
		total := inclusiveDays(start, end)
		cur := 0
		if !start.After(ref) {
			cur = inclusiveDays(start, earlierOf(end, ref))
		}
		st.DaysUsed += total
		st.CurrentDays += cur
		st.PlannedDays += total - cur
	}
}

// finalize derives the remaining-days, percentage, and risk level fields.
// Thresholds are inclusive lower bounds checked in descending order, so
// anything at or past 100% is still "danger", never a separate state.
func finalize(st Status, rule Rule) Status {
	st.RemainingDays = rule.MaxDays - st.DaysUsed
	if st.RemainingDays < 0 {
		st.RemainingDays = 0
	}
	if rule.MaxDays > 0 {
		st.Percentage = float64(st.DaysUsed) / float64(rule.MaxDays) * 100
		if st.Percentage > 100 {
			st.Percentage = 100
		}
	}
	switch {
	case st.Percentage >= 80:
		st.Level = LevelDanger
	case st.Percentage >= 60:
		st.Level = LevelWarning
	default:
		st.Level = LevelSafe
	}
	return st
}

// splitSpan partitions a stay's inclusive day span into the portion at or
// before ref and the portion strictly after it. Open stays end at ref.
func splitSpan(s domain.Stay, ref time.Time) (current, planned int) {
	end := effectiveEnd(s, ref)
	total := inclusiveDays(s.EntryDate, end)
	if s.EntryDate.After(ref) {
		return 0, total
	}
	current = inclusiveDays(s.EntryDate, earlierOf(end, ref))
	return current, total - current
}

// effectiveEnd is the stay's exit date, ref when open, and never earlier
// than the entry date so malformed spans collapse to a single day.
func effectiveEnd(s domain.Stay, ref time.Time) time.Time {
	end := s.EffectiveExit(ref)
	if end.Before(s.EntryDate) {
		return s.EntryDate
	}
	return end
}

// inclusiveDays counts calendar days from a through b, both ends included.
// Both arguments must be midnight UTC; b must not precede a.
func inclusiveDays(a, b time.Time) int {
	return daysBetween(a, b) + 1
}

// daysBetween returns b − a in whole days. Midnight-UTC inputs make this
// exact (UTC has no DST transitions).
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}

func laterOf(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlierOf(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}

// byEntryDesc orders stays newest entry first, stable for equal dates.
func byEntryDesc(stays []domain.Stay) {
	sort.SliceStable(stays, func(i, j int) bool {
		return stays[i].EntryDate.After(stays[j].EntryDate)
	})
}
