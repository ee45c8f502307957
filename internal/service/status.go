package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/visaday/backend/internal/domain"
	"github.com/visaday/backend/internal/visa"
)

// StayLister supplies a user's reconciled stay history. StayService
// implements it; status and export consumers depend on this narrow
// interface so tests can feed a canned history.
type StayLister interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Stay, error)
}

// StatusService computes per-country visa status reports. It owns the rule
// provider, the override list, and the clock; the visa package itself never
// reads the system time.
type StatusService struct {
	stays     StayLister
	rules     visa.RuleProvider
	overrides []visa.Override

	// now supplies the default reference date. Injected so tests are
	// deterministic; production wiring passes time.Now.
	now func() time.Time

	// defaultPassport is used when a request does not name one.
	defaultPassport string
}

// NewStatusService constructs a StatusService. now must not be nil.
func NewStatusService(stays StayLister, rules visa.RuleProvider, overrides []visa.Override, now func() time.Time, defaultPassport string) *StatusService {
	return &StatusService{
		stays:           stays,
		rules:           rules,
		overrides:       overrides,
		now:             now,
		defaultPassport: defaultPassport,
	}
}

// Report computes one visa.Status per country present in the user's
// history, as seen by the given passport holder on the given reference
// date. A zero ref means "today". Countries without a registered rule get a
// zeroed safe status — whether to display those is the caller's decision.
// Results are ordered most-consumed first.
func (s *StatusService) Report(ctx context.Context, userID uuid.UUID, passport string, ref time.Time) ([]visa.Status, error) {
	stays, err := s.stays.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.StatusService.Report: %w", err)
	}

	passport = s.passportOrDefault(passport)
	ref = s.refOrNow(ref)

	var report []visa.Status
	for _, cc := range countryCodes(stays) {
		rule, _ := visa.Resolve(s.rules, s.overrides, passport, cc, stays)
		report = append(report, visa.Calculate(stays, cc, rule, ref))
	}

	sort.SliceStable(report, func(i, j int) bool {
		if report[i].Percentage != report[j].Percentage {
			return report[i].Percentage > report[j].Percentage
		}
		return report[i].CountryCode < report[j].CountryCode
	})
	if report == nil {
		report = []visa.Status{}
	}
	return report, nil
}

// Country computes the visa status for a single country. The country does
// not need to appear in the user's history; an empty history yields a
// zeroed status under the country's rule.
func (s *StatusService) Country(ctx context.Context, userID uuid.UUID, passport, countryCode string, ref time.Time) (visa.Status, error) {
	stays, err := s.stays.List(ctx, userID)
	if err != nil {
		return visa.Status{}, fmt.Errorf("service.StatusService.Country: %w", err)
	}

	passport = s.passportOrDefault(passport)
	rule, _ := visa.Resolve(s.rules, s.overrides, passport, countryCode, stays)
	return visa.Calculate(stays, countryCode, rule, s.refOrNow(ref)), nil
}

func (s *StatusService) passportOrDefault(passport string) string {
	if passport == "" {
		return s.defaultPassport
	}
	return passport
}

func (s *StatusService) refOrNow(ref time.Time) time.Time {
	if ref.IsZero() {
		return domain.DateOnly(s.now())
	}
	return ref
}

// countryCodes returns the distinct country codes in first-seen order.
func countryCodes(stays []domain.Stay) []string {
	seen := make(map[string]bool, len(stays))
	var codes []string
	for _, s := range stays {
		if !seen[s.CountryCode] {
			seen[s.CountryCode] = true
			codes = append(codes, s.CountryCode)
		}
	}
	return codes
}
