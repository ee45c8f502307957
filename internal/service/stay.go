// Package service contains the business logic for the visa-day tracking API.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls around the pure visa engine. No SQL lives here — services depend on
// repo interfaces, not implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/visaday/backend/internal/domain"
	"github.com/visaday/backend/internal/repo"
	"github.com/visaday/backend/internal/visa"
)

// StayService implements business logic for Stay operations. Every load and
// every insert runs the reconciler so the stored collection always satisfies
// the timeline invariant; corrections the reconciler produces are persisted
// immediately.
type StayService struct {
	stays repo.StayRepo
}

// NewStayService constructs a StayService backed by the provided repo.
func NewStayService(stays repo.StayRepo) *StayService {
	return &StayService{stays: stays}
}

// Create validates the stay, reconciles it against the user's existing
// stays, persists every record the reconciliation changed, and stores the
// new stay itself.
// Returns domain.ErrValidation if input violates business rules.
func (s *StayService) Create(ctx context.Context, stay domain.Stay) (domain.Stay, error) {
	normalizeStay(&stay)
	existing, err := s.stays.ListByUserID(ctx, stay.UserID)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("service.StayService.Create: %w", err)
	}
	if err := validateStay(stay, existing); err != nil {
		return domain.Stay{}, err
	}

	reconciled := visa.ReconcileInsert(existing, stay)
	if err := s.persistCorrections(ctx, existing, reconciled); err != nil {
		return domain.Stay{}, fmt.Errorf("service.StayService.Create: %w", err)
	}

	// The new stay is the one record without a database identity yet; it may
	// have picked up an inferred exit date and From* provenance above.
	for _, r := range reconciled {
		if r.ID != uuid.Nil {
			continue
		}
		created, err := s.stays.Create(ctx, r)
		if err != nil {
			return domain.Stay{}, fmt.Errorf("service.StayService.Create: %w", err)
		}
		return created, nil
	}
	return domain.Stay{}, fmt.Errorf("service.StayService.Create: reconciled set lost the new stay")
}

// GetByID returns a single stay by ID, scoped to the given userID.
// Returns domain.ErrNotFound if no stay with that ID exists for that user.
func (s *StayService) GetByID(ctx context.Context, userID, stayID uuid.UUID) (domain.Stay, error) {
	result, err := s.stays.GetByID(ctx, userID, stayID)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("service.StayService.GetByID: %w", err)
	}
	return result, nil
}

// List returns the user's full reconciled stay history, entry date
// ascending. Corrections produced by the load-time reconciliation are
// written back before returning.
// Always returns a non-nil slice so callers can safely range over it.
func (s *StayService) List(ctx context.Context, userID uuid.UUID) ([]domain.Stay, error) {
	stays, err := s.reconcileAndStore(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.StayService.List: %w", err)
	}
	if stays == nil {
		return []domain.Stay{}, nil
	}
	return stays, nil
}

// ListPaged reconciles the full collection first (pagination must never see
// a half-consistent timeline), then returns one page plus the total count.
func (s *StayService) ListPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Stay, int64, error) {
	if _, err := s.reconcileAndStore(ctx, userID); err != nil {
		return nil, 0, fmt.Errorf("service.StayService.ListPaged: %w", err)
	}
	stays, total, err := s.stays.ListByUserIDPaged(ctx, userID, p)
	if err != nil {
		return nil, 0, fmt.Errorf("service.StayService.ListPaged: %w", err)
	}
	if stays == nil {
		stays = []domain.Stay{}
	}
	return stays, total, nil
}

// Update validates and persists changes to an existing stay, then re-runs
// reconciliation over the whole collection and returns the stay as it stands
// afterwards (an edit can shift neighbouring exit dates).
func (s *StayService) Update(ctx context.Context, stay domain.Stay) (domain.Stay, error) {
	normalizeStay(&stay)
	existing, err := s.stays.ListByUserID(ctx, stay.UserID)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("service.StayService.Update: %w", err)
	}
	others := make([]domain.Stay, 0, len(existing))
	for _, e := range existing {
		if e.ID != stay.ID {
			others = append(others, e)
		}
	}
	if err := validateStay(stay, others); err != nil {
		return domain.Stay{}, err
	}

	updated, err := s.stays.Update(ctx, stay)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("service.StayService.Update: %w", err)
	}

	stays, err := s.reconcileAndStore(ctx, stay.UserID)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("service.StayService.Update: %w", err)
	}
	for _, r := range stays {
		if r.ID == updated.ID {
			return r, nil
		}
	}
	return updated, nil
}

// Delete removes a stay by ID, scoped to the given userID.
// Returns domain.ErrNotFound if the stay does not exist for that user.
func (s *StayService) Delete(ctx context.Context, userID, stayID uuid.UUID) error {
	if err := s.stays.Delete(ctx, userID, stayID); err != nil {
		return fmt.Errorf("service.StayService.Delete: %w", err)
	}
	return nil
}

// reconcileAndStore loads the user's stays, runs the reconciler, and writes
// back every record the pass corrected. Reconciliation is idempotent, so a
// crash between writes is repaired on the next load.
func (s *StayService) reconcileAndStore(ctx context.Context, userID uuid.UUID) ([]domain.Stay, error) {
	stays, err := s.stays.ListByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	reconciled := visa.ReconcileAll(stays)
	if err := s.persistCorrections(ctx, stays, reconciled); err != nil {
		return nil, err
	}
	return reconciled, nil
}

// persistCorrections updates every stored stay whose exit date or provenance
// was changed by a reconciliation pass. Records without a database identity
// (a not-yet-inserted stay) are skipped.
func (s *StayService) persistCorrections(ctx context.Context, before, after []domain.Stay) error {
	orig := make(map[uuid.UUID]domain.Stay, len(before))
	for _, b := range before {
		orig[b.ID] = b
	}
	for _, a := range after {
		if a.ID == uuid.Nil {
			continue
		}
		b, ok := orig[a.ID]
		if !ok || !stayCorrected(b, a) {
			continue
		}
		if _, err := s.stays.Update(ctx, a); err != nil {
			return err
		}
	}
	return nil
}

// stayCorrected reports whether a reconciliation pass changed the fields it
// is allowed to touch: exit date and From* provenance.
func stayCorrected(before, after domain.Stay) bool {
	switch {
	case (before.ExitDate == nil) != (after.ExitDate == nil):
		return true
	case before.ExitDate != nil && !before.ExitDate.Equal(*after.ExitDate):
		return true
	case before.FromCountryCode != after.FromCountryCode:
		return true
	case before.FromCity != after.FromCity:
		return true
	}
	return false
}

// normalizeStay canonicalizes caller input: country codes upper-case,
// dates truncated to midnight UTC.
func normalizeStay(stay *domain.Stay) {
	stay.CountryCode = strings.ToUpper(strings.TrimSpace(stay.CountryCode))
	stay.FromCountryCode = strings.ToUpper(strings.TrimSpace(stay.FromCountryCode))
	if !stay.EntryDate.IsZero() {
		stay.EntryDate = domain.DateOnly(stay.EntryDate)
	}
	if stay.ExitDate != nil {
		d := domain.DateOnly(*stay.ExitDate)
		stay.ExitDate = &d
	}
}

// validateStay enforces business rules common to both Create and Update.
//   - CountryCode must be a two-letter code.
//   - EntryDate is required.
//   - ExitDate, if set, must not be before EntryDate.
//   - A second open stay in the same country is rejected: the reconciler
//     only closes stays across different countries, so a same-country
//     double-open could never be repaired later.
//
// others is the rest of the user's collection, excluding the stay itself.
func validateStay(stay domain.Stay, others []domain.Stay) error {
	if len(stay.CountryCode) != 2 || !isAlpha(stay.CountryCode) {
		return fmt.Errorf("%w: country_code must be a two-letter ISO code", domain.ErrValidation)
	}
	if stay.EntryDate.IsZero() {
		return fmt.Errorf("%w: entry_date is required", domain.ErrValidation)
	}
	if stay.ExitDate != nil && stay.ExitDate.Before(stay.EntryDate) {
		return fmt.Errorf("%w: exit_date must not be before entry_date", domain.ErrValidation)
	}
	if stay.ExitDate == nil {
		for _, o := range others {
			if o.ExitDate == nil && o.CountryCode == stay.CountryCode {
				return fmt.Errorf("%w: an open stay in %s already exists", domain.ErrValidation, stay.CountryCode)
			}
		}
	}
	return nil
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
