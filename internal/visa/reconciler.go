package visa

import (
	"sort"

	"github.com/visaday/backend/internal/domain"
)

// ReconcileAll enforces the timeline invariant over a full stay collection:
// at most one stay is open at a time, and a stay left open is closed on the
// entry date of the next stay in a different country (same-day handoff —
// flying out of country A and into country B on one calendar day records
// that day on both stays).
//
// The input is never mutated; the result is a new slice of updated copies,
// sorted by entry date ascending. Only ExitDate, FromCountryCode, and
// FromCity are ever written. The function is idempotent and preserves the
// number of records.
func ReconcileAll(stays []domain.Stay) []domain.Stay {
	out := make([]domain.Stay, len(stays))
	copy(out, stays)
	sortByEntry(out)

	for i := 0; i < len(out)-1; i++ {
		cur := &out[i]
		next := &out[i+1]

		if cur.ExitDate != nil {
			continue
		}
		// Same-country continuation is not a transition; two entries on the
		// same day are both legitimate on that boundary day.
		if next.CountryCode == cur.CountryCode || !next.EntryDate.After(cur.EntryDate) {
			continue
		}

		exit := next.EntryDate
		cur.ExitDate = &exit
		if next.FromCountryCode == "" {
			next.FromCountryCode = cur.CountryCode
			next.FromCity = cur.City
		}
	}
	return out
}

// ReconcileInsert applies the same closing rule scoped around one new stay:
// every open different-country stay entered before newStay is closed on
// newStay's entry date, and newStay inherits its From* provenance from the
// most recently entered stay closed that way. Symmetrically, if newStay is
// itself open and a different-country stay with a later entry already
// exists, newStay is closed against the earliest such stay and that stay's
// From* is backfilled.
//
// Returns the full corrected collection including newStay, sorted by entry
// date. Neither input is mutated.
func ReconcileInsert(existing []domain.Stay, newStay domain.Stay) []domain.Stay {
	out := make([]domain.Stay, len(existing))
	copy(out, existing)

	// Close earlier open stays against newStay's entry.
	from := -1
	for i := range out {
		s := &out[i]
		if s.ExitDate != nil || s.CountryCode == newStay.CountryCode {
			continue
		}
		if !s.EntryDate.Before(newStay.EntryDate) {
			continue
		}
		exit := newStay.EntryDate
		s.ExitDate = &exit
		if from == -1 || s.EntryDate.After(out[from].EntryDate) {
			from = i
		}
	}
	if from >= 0 && newStay.FromCountryCode == "" {
		newStay.FromCountryCode = out[from].CountryCode
		newStay.FromCity = out[from].City
	}

	// Close newStay against the earliest later different-country stay.
	if newStay.ExitDate == nil {
		next := -1
		for i := range out {
			s := &out[i]
			if s.CountryCode == newStay.CountryCode || !s.EntryDate.After(newStay.EntryDate) {
				continue
			}
			if next == -1 || s.EntryDate.Before(out[next].EntryDate) {
				next = i
			}
		}
		if next >= 0 {
			exit := out[next].EntryDate
			newStay.ExitDate = &exit
			if out[next].FromCountryCode == "" {
				out[next].FromCountryCode = newStay.CountryCode
				out[next].FromCity = newStay.City
			}
		}
	}

	out = append(out, newStay)
	sortByEntry(out)
	return out
}

// sortByEntry orders stays by entry date ascending, stable for equal dates
// so records entered on the same day keep their relative order.
func sortByEntry(stays []domain.Stay) {
	sort.SliceStable(stays, func(i, j int) bool {
		return stays[i].EntryDate.Before(stays[j].EntryDate)
	})
}
