package visa_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visaday/backend/internal/domain"
	"github.com/visaday/backend/internal/visa"
)

var (
	rolling90  = visa.Rule{MaxDays: 90, Type: visa.RuleRolling, PeriodDays: 180}
	resetTH60  = visa.Rule{MaxDays: 60, Type: visa.RuleReset}
	annual365  = visa.Rule{MaxDays: 365, Type: visa.RuleAnnual}
	noRule     = visa.Rule{}
)

// ---- rolling ---------------------------------------------------------------

func TestCalculate_Rolling_SingleStay(t *testing.T) {
	stays := []domain.Stay{stay("DE", date(2024, 1, 1), dateP(2024, 1, 31))}

	got := visa.Calculate(stays, "DE", rolling90, date(2024, 2, 1))

	assert.Equal(t, 31, got.DaysUsed, "Jan 1..31 is 31 inclusive days")
	assert.Equal(t, 31, got.CurrentDays)
	assert.Equal(t, 0, got.PlannedDays)
	assert.Equal(t, 59, got.RemainingDays)
	assert.Equal(t, visa.LevelSafe, got.Level)
}

func TestCalculate_Rolling_ClipsToWindow(t *testing.T) {
	// Stay started long before the window opened; only the tail inside
	// [ref-180, ref] may count.
	stays := []domain.Stay{stay("DE", date(2023, 1, 1), dateP(2023, 8, 1))}
	ref := date(2023, 9, 1)

	got := visa.Calculate(stays, "DE", rolling90, ref)

	periodStart := ref.AddDate(0, 0, -180) // 2023-03-05
	want := int(dateP(2023, 8, 1).Sub(periodStart)/(24*time.Hour)) + 1
	assert.Equal(t, want, got.DaysUsed)
}

func TestCalculate_Rolling_StayOutsideWindowIgnored(t *testing.T) {
	stays := []domain.Stay{stay("DE", date(2023, 1, 1), dateP(2023, 1, 15))}

	got := visa.Calculate(stays, "DE", rolling90, date(2024, 6, 1))

	assert.Zero(t, got.DaysUsed, "days outside the trailing window never count")
	assert.Equal(t, 90, got.RemainingDays)
}

func TestCalculate_Rolling_OpenStayEndsAtReference(t *testing.T) {
	stays := []domain.Stay{stay("DE", date(2024, 1, 1), nil)}

	got := visa.Calculate(stays, "DE", rolling90, date(2024, 1, 10))

	assert.Equal(t, 10, got.DaysUsed)
	assert.Equal(t, 10, got.CurrentDays)
	assert.Equal(t, 0, got.PlannedDays)
}

func TestCalculate_Rolling_FutureStayIsPlannedOnly(t *testing.T) {
	stays := []domain.Stay{stay("DE", date(2024, 3, 1), dateP(2024, 3, 10))}

	got := visa.Calculate(stays, "DE", rolling90, date(2024, 2, 1))

	assert.Zero(t, got.DaysUsed)
	assert.Zero(t, got.CurrentDays)
	assert.Equal(t, 10, got.PlannedDays)
}

func TestCalculate_Rolling_ExitBeyondReferenceSplits(t *testing.T) {
	// Already started, booked to leave after the reference date: days up to
	// and including ref are current, the remainder planned.
	stays := []domain.Stay{stay("DE", date(2024, 1, 1), dateP(2024, 1, 20))}
	ref := date(2024, 1, 10)

	got := visa.Calculate(stays, "DE", rolling90, ref)

	assert.Equal(t, 10, got.DaysUsed)
	assert.Equal(t, 10, got.CurrentDays)
	assert.Equal(t, 10, got.PlannedDays, "Jan 11..20 is planned")
}

func TestCalculate_Rolling_WindowBound(t *testing.T) {
	// Many stays scattered around the window; DaysUsed must never exceed
	// the window length.
	stays := []domain.Stay{
		stay("DE", date(2023, 1, 1), dateP(2023, 12, 31)),
		stay("DE", date(2024, 1, 5), nil),
	}
	ref := date(2024, 2, 1)

	got := visa.Calculate(stays, "DE", visa.Rule{MaxDays: 90, Type: visa.RuleRolling, PeriodDays: 30}, ref)

	assert.LessOrEqual(t, got.DaysUsed, 31, "no day outside [ref-30, ref] may count")
}

// ---- reset -----------------------------------------------------------------

func TestCalculate_Reset_GapResetsCounter(t *testing.T) {
	// 20-day stay, a 10-day break, then a 28-day stay: the break exceeds the
	// grace threshold, so only the recent group counts.
	stays := []domain.Stay{
		stay("TH", date(2024, 1, 1), dateP(2024, 1, 20)),
		stay("TH", date(2024, 2, 1), dateP(2024, 2, 28)),
	}

	got := visa.Calculate(stays, "TH", resetTH60, date(2024, 3, 1))

	assert.Equal(t, 28, got.DaysUsed)
	assert.Equal(t, 32, got.RemainingDays)
}

func TestCalculate_Reset_ShortGapKeepsGroup(t *testing.T) {
	// 3-day break is under the threshold: both stays count as one presence.
	stays := []domain.Stay{
		stay("TH", date(2024, 1, 1), dateP(2024, 1, 20)),
		stay("TH", date(2024, 1, 23), dateP(2024, 2, 10)),
	}

	got := visa.Calculate(stays, "TH", resetTH60, date(2024, 3, 1))

	assert.Equal(t, 20+19, got.DaysUsed)
}

func TestCalculate_Reset_SevenDayGapIsReset(t *testing.T) {
	// The threshold is inclusive: exactly 7 days apart is a true reset.
	stays := []domain.Stay{
		stay("TH", date(2024, 1, 1), dateP(2024, 1, 10)),
		stay("TH", date(2024, 1, 17), dateP(2024, 1, 20)),
	}

	got := visa.Calculate(stays, "TH", resetTH60, date(2024, 2, 1))

	assert.Equal(t, 4, got.DaysUsed, "only the Jan 17..20 stay counts")
}

func TestCalculate_Reset_OpenStayUsesReference(t *testing.T) {
	stays := []domain.Stay{stay("TH", date(2024, 1, 1), nil)}

	got := visa.Calculate(stays, "TH", resetTH60, date(2024, 1, 15))

	assert.Equal(t, 15, got.DaysUsed)
	assert.Equal(t, 15, got.CurrentDays)
}

func TestCalculate_Reset_FutureStayCountsAsPlanned(t *testing.T) {
	// A booked future trip close enough to join the current group counts
	// against the allowance as planned days.
	stays := []domain.Stay{
		stay("TH", date(2024, 1, 1), dateP(2024, 1, 20)),
		stay("TH", date(2024, 1, 24), dateP(2024, 2, 5)),
	}
	ref := date(2024, 1, 22)

	got := visa.Calculate(stays, "TH", resetTH60, ref)

	assert.Equal(t, 20, got.CurrentDays)
	assert.Equal(t, 13, got.PlannedDays, "Jan 24..Feb 5 is all planned")
	assert.Equal(t, 33, got.DaysUsed, "whole group counts, planned included")
}

// ---- annual ----------------------------------------------------------------

func TestCalculate_Annual_CountsCalendarYear(t *testing.T) {
	stays := []domain.Stay{
		stay("GE", date(2023, 12, 1), dateP(2024, 1, 31)), // spans the year boundary
		stay("GE", date(2024, 3, 1), dateP(2024, 3, 10)),
	}

	got := visa.Calculate(stays, "GE", annual365, date(2024, 6, 1))

	assert.Equal(t, 31+10, got.DaysUsed, "only days inside the reference year count")
}

func TestCalculate_Annual_SplitsAtReference(t *testing.T) {
	stays := []domain.Stay{stay("GE", date(2024, 5, 1), dateP(2024, 5, 20))}
	ref := date(2024, 5, 10)

	got := visa.Calculate(stays, "GE", annual365, ref)

	assert.Equal(t, 20, got.DaysUsed)
	assert.Equal(t, 10, got.CurrentDays)
	assert.Equal(t, 10, got.PlannedDays)
}

// ---- derived fields --------------------------------------------------------

func TestCalculate_StatusThresholds(t *testing.T) {
	tests := []struct {
		name     string
		days     int
		maxDays  int
		wantPct  float64
		wantLvl  visa.Level
	}{
		{"well under", 10, 90, 11.11, visa.LevelSafe},
		{"just under warning", 53, 90, 58.89, visa.LevelSafe},
		{"warning boundary", 54, 90, 60.0, visa.LevelWarning},
		{"danger boundary", 72, 90, 80.0, visa.LevelDanger},
		{"over the cap", 100, 90, 100.0, visa.LevelDanger},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exit := date(2024, 1, tt.days)
			stays := []domain.Stay{stay("TH", date(2024, 1, 1), &exit)}
			rule := visa.Rule{MaxDays: tt.maxDays, Type: visa.RuleReset}

			got := visa.Calculate(stays, "TH", rule, date(2024, 2, 1))

			require.Equal(t, tt.days, got.DaysUsed)
			assert.InDelta(t, tt.wantPct, got.Percentage, 0.01)
			assert.Equal(t, tt.wantLvl, got.Level)
		})
	}
}

func TestCalculate_RemainingNeverNegative(t *testing.T) {
	stays := []domain.Stay{stay("TH", date(2024, 1, 1), dateP(2024, 3, 31))}

	got := visa.Calculate(stays, "TH", resetTH60, date(2024, 4, 1))

	assert.Equal(t, 0, got.RemainingDays)
	assert.Equal(t, visa.LevelDanger, got.Level)
}

func TestCalculate_NoRuleYieldsZeroSafeStatus(t *testing.T) {
	stays := []domain.Stay{stay("XX", date(2024, 1, 1), dateP(2024, 1, 15))}

	got := visa.Calculate(stays, "XX", noRule, date(2024, 2, 1))

	assert.Zero(t, got.DaysUsed)
	assert.Zero(t, got.Percentage)
	assert.Equal(t, visa.LevelSafe, got.Level)
}

func TestCalculate_ZeroMaxDaysNoDivideByZero(t *testing.T) {
	stays := []domain.Stay{stay("TH", date(2024, 1, 1), dateP(2024, 1, 15))}

	got := visa.Calculate(stays, "TH", visa.Rule{MaxDays: 0, Type: visa.RuleReset}, date(2024, 2, 1))

	assert.Zero(t, got.Percentage)
	assert.Equal(t, visa.LevelSafe, got.Level)
}

func TestCalculate_IgnoresOtherCountries(t *testing.T) {
	stays := []domain.Stay{
		stay("TH", date(2024, 1, 1), dateP(2024, 1, 10)),
		stay("JP", date(2024, 1, 10), dateP(2024, 1, 25)),
	}

	got := visa.Calculate(stays, "TH", resetTH60, date(2024, 2, 1))

	assert.Equal(t, 10, got.DaysUsed, "JP days must not leak into the TH total")
}

func TestCalculate_NormalizesReferenceDate(t *testing.T) {
	stays := []domain.Stay{stay("DE", date(2024, 1, 1), nil)}

	// A mid-afternoon reference must behave exactly like midnight.
	noon := time.Date(2024, 1, 10, 15, 42, 7, 0, time.UTC)
	got := visa.Calculate(stays, "DE", rolling90, noon)

	assert.Equal(t, 10, got.DaysUsed)
}
