package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/visaday/backend/internal/domain"
	"github.com/visaday/backend/internal/service"
	"github.com/visaday/backend/internal/visa"
)

// mockStayLister is a test double for service.StayLister.
type mockStayLister struct {
	list func(ctx context.Context, userID uuid.UUID) ([]domain.Stay, error)
}

func (m *mockStayLister) List(ctx context.Context, userID uuid.UUID) ([]domain.Stay, error) {
	return m.list(ctx, userID)
}

var _ service.StayLister = (*mockStayLister)(nil)

// fixedNow pins the clock for deterministic reports.
func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
}

func newStatusService(stays []domain.Stay) *service.StatusService {
	lister := &mockStayLister{
		list: func(_ context.Context, _ uuid.UUID) ([]domain.Stay, error) {
			return stays, nil
		},
	}
	return service.NewStatusService(lister, visa.DefaultProvider(), visa.DefaultOverrides(), fixedNow, "US")
}

func TestStatusService_Report_OneEntryPerCountry(t *testing.T) {
	exit1 := day(2024, 5, 1)
	exit2 := day(2024, 5, 20)
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "TH", EntryDate: day(2024, 4, 1), ExitDate: &exit1},
		{UserID: testUserID, CountryCode: "JP", EntryDate: day(2024, 5, 1), ExitDate: &exit2},
		{UserID: testUserID, CountryCode: "TH", EntryDate: day(2024, 5, 25), ExitDate: nil},
	}

	report, err := newStatusService(stays).Report(context.Background(), testUserID, "", time.Time{})

	require.NoError(t, err)
	require.Len(t, report, 2, "TH appears once despite two stays")

	codes := []string{report[0].CountryCode, report[1].CountryCode}
	assert.Contains(t, codes, "TH")
	assert.Contains(t, codes, "JP")
}

func TestStatusService_Report_SortedByPercentageDesc(t *testing.T) {
	exitTH := day(2024, 5, 28) // 58 of 60 reset days — deep in danger
	exitJP := day(2024, 5, 10) // 10 of 90 — safe
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "TH", EntryDate: day(2024, 4, 1), ExitDate: &exitTH},
		{UserID: testUserID, CountryCode: "JP", EntryDate: day(2024, 5, 1), ExitDate: &exitJP},
	}

	report, err := newStatusService(stays).Report(context.Background(), testUserID, "", time.Time{})

	require.NoError(t, err)
	require.Len(t, report, 2)
	assert.Equal(t, "TH", report[0].CountryCode, "most consumed first")
	assert.GreaterOrEqual(t, report[0].Percentage, report[1].Percentage)
}

func TestStatusService_Report_UsesDefaultPassport(t *testing.T) {
	// The RU table gives Thailand 30 days; the US default gives 60. A
	// service configured with default "RU" must use the RU allowance when
	// the request does not name a passport.
	exit := day(2024, 5, 20)
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "TH", EntryDate: day(2024, 5, 1), ExitDate: &exit},
	}
	lister := &mockStayLister{
		list: func(_ context.Context, _ uuid.UUID) ([]domain.Stay, error) { return stays, nil },
	}
	svc := service.NewStatusService(lister, visa.DefaultProvider(), visa.DefaultOverrides(), fixedNow, "RU")

	report, err := svc.Report(context.Background(), testUserID, "", time.Time{})

	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 30, report[0].MaxDays)
}

func TestStatusService_Report_ExplicitPassportWins(t *testing.T) {
	exit := day(2024, 5, 20)
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "TH", EntryDate: day(2024, 5, 1), ExitDate: &exit},
	}

	report, err := newStatusService(stays).Report(context.Background(), testUserID, "RU", time.Time{})

	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 30, report[0].MaxDays, "explicit ?passport=RU overrides the US default")
}

func TestStatusService_Report_UnknownCountryZeroSafe(t *testing.T) {
	// No rule table entry for "ZZ": the report still carries the country,
	// zeroed and safe — hiding it is the UI's call, not ours.
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "ZZ", EntryDate: day(2024, 5, 1), ExitDate: nil},
	}

	report, err := newStatusService(stays).Report(context.Background(), testUserID, "", time.Time{})

	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Zero(t, report[0].MaxDays)
	assert.Zero(t, report[0].DaysUsed)
	assert.Equal(t, visa.LevelSafe, report[0].Level)
}

func TestStatusService_Report_EmptyHistory(t *testing.T) {
	report, err := newStatusService(nil).Report(context.Background(), testUserID, "", time.Time{})

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Empty(t, report)
}

func TestStatusService_Report_DefaultReferenceIsToday(t *testing.T) {
	// Open TH stay since May 23; the pinned clock says June 1, so ten days
	// (May 23 .. June 1 inclusive) are used.
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "TH", EntryDate: day(2024, 5, 23), ExitDate: nil},
	}

	report, err := newStatusService(stays).Report(context.Background(), testUserID, "", time.Time{})

	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 10, report[0].DaysUsed)
}

func TestStatusService_Report_ExplicitReferenceDate(t *testing.T) {
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "TH", EntryDate: day(2024, 5, 23), ExitDate: nil},
	}

	// A what-if projection two weeks past the pinned clock.
	ref := day(2024, 6, 15)
	report, err := newStatusService(stays).Report(context.Background(), testUserID, "", ref)

	require.NoError(t, err)
	require.Len(t, report, 1)
	assert.Equal(t, 24, report[0].DaysUsed)
}

func TestStatusService_Country_NoStays(t *testing.T) {
	got, err := newStatusService(nil).Country(context.Background(), testUserID, "", "TH", time.Time{})

	require.NoError(t, err)
	assert.Equal(t, "TH", got.CountryCode)
	assert.Equal(t, 60, got.MaxDays, "rule is resolved even with no history")
	assert.Zero(t, got.DaysUsed)
}

func TestStatusService_Country_KoreaMarkerOverride(t *testing.T) {
	exit := day(2024, 3, 31)
	stays := []domain.Stay{
		{UserID: testUserID, CountryCode: "KR", EntryDate: day(2024, 1, 1), ExitDate: &exit, VisaType: "183/365"},
	}

	got, err := newStatusService(stays).Country(context.Background(), testUserID, "", "KR", day(2024, 4, 1))

	require.NoError(t, err)
	assert.Equal(t, 183, got.MaxDays, "183/365 marker replaces the table rule")
	assert.Equal(t, 91, got.DaysUsed)
}
