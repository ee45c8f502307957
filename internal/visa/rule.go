// Package visa implements the visa-day accounting engine: reconciling stay
// histories into a consistent timeline and computing allowance usage per
// country under reset, rolling-window, and annual policies.
//
// Everything in this package is a pure function over values supplied by the
// caller. There is no I/O, no clock access, and no shared state; the service
// layer owns fetching stays and deciding the reference date.
package visa

// RuleType selects the day-counting policy for a country.
type RuleType string

const (
	// RuleReset restarts the counter once a sufficient gap separates visits
	// (most reset-on-exit tourist regimes).
	RuleReset RuleType = "reset"
	// RuleRolling counts days inside a trailing window of PeriodDays ending
	// at the reference date (e.g. Schengen 90/180).
	RuleRolling RuleType = "rolling"
	// RuleAnnual caps days used within the calendar year of the reference date.
	RuleAnnual RuleType = "annual"
)

// Rule is the per-country visa policy. The zero value means "no rule
// registered" and yields a zeroed safe Status from Calculate.
type Rule struct {
	MaxDays int
	Type    RuleType
	// PeriodDays is the sliding window length; only meaningful for RuleRolling.
	PeriodDays int
}

// Level classifies how close a traveller is to exhausting an allowance.
type Level string

const (
	LevelSafe    Level = "safe"
	LevelWarning Level = "warning"
	LevelDanger  Level = "danger"
)

// Status is the derived, ephemeral report for one country. It is computed on
// demand and never persisted.
type Status struct {
	CountryCode string

	// DaysUsed is the total counted against the allowance. For reset and
	// annual rules it includes planned days; for rolling rules it covers
	// only days inside the window up to the reference date.
	DaysUsed int

	// CurrentDays is the past-and-ongoing share of the stays examined;
	// PlannedDays is the share strictly after the reference date.
	CurrentDays int
	PlannedDays int

	MaxDays       int
	RemainingDays int
	Percentage    float64
	Level         Level
}
