// Package domain contains the core data types for the visa-day tracking
// application. This package has zero external dependencies beyond uuid and
// is imported by every other internal package (visa, repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stay represents one continuous period of physical presence in a single
// country. ExitDate is nil while the traveller is still in the country;
// the reconciler closes an open stay when a later stay in a different
// country begins.
//
// EntryDate and ExitDate are date-granular: always midnight UTC. All
// day-counting math in the visa package relies on that normalization.
type Stay struct {
	ID     uuid.UUID
	UserID uuid.UUID

	// CountryCode is the ISO-3166-1 alpha-2 code of the country stayed in.
	CountryCode string
	City        string

	// FromCountryCode and FromCity record where the traveller departed from
	// to begin this stay. The reconciler backfills them from the preceding
	// stay when they are empty.
	FromCountryCode string
	FromCity        string

	EntryDate time.Time
	ExitDate  *time.Time // nil when the stay is still ongoing

	// VisaType is a free-text classification ("visa-free", "tourist", ...).
	// Certain markers select an alternate rule, e.g. "183/365" for the
	// Korean long-stay program.
	VisaType string
	Notes    string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Open reports whether the stay has no recorded exit date.
func (s Stay) Open() bool {
	return s.ExitDate == nil
}

// EffectiveExit returns the stay's exit date, or ref when the stay is still
// open. ref is the reference date day-counting is performed against.
func (s Stay) EffectiveExit(ref time.Time) time.Time {
	if s.ExitDate != nil {
		return *s.ExitDate
	}
	return ref
}

// DateOnly truncates t to midnight UTC. Stays store dates, not instants;
// every date entering the domain goes through this.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
