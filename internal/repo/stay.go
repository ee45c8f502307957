// Package repo contains all database access logic for the visa-day tracking API.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/visaday/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StayRepo defines the persistence operations for Stays.
// All operations are scoped by userID to enforce ownership.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type StayRepo interface {
	// Create inserts a new stay and returns the persisted record (with
	// DB-generated id, created_at, and updated_at populated).
	Create(ctx context.Context, stay domain.Stay) (domain.Stay, error)

	// GetByID retrieves a single stay by its UUID, scoped to the given userID.
	// Returns domain.ErrNotFound if no stay with that ID exists for that user.
	GetByID(ctx context.Context, userID, stayID uuid.UUID) (domain.Stay, error)

	// ListByUserID returns all stays for a user ordered by entry_date ascending.
	ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Stay, error)

	// ListByUserIDPaged returns one page of a user's stays plus the total count.
	ListByUserIDPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Stay, int64, error)

	// Update overwrites the mutable fields of a stay, scoped to its userID.
	// Returns domain.ErrNotFound if no stay with that ID exists for that user.
	Update(ctx context.Context, stay domain.Stay) (domain.Stay, error)

	// Delete removes a stay by ID, scoped to the given userID.
	// Returns domain.ErrNotFound if no stay with that ID exists for that user.
	Delete(ctx context.Context, userID, stayID uuid.UUID) error
}

// pgStayRepo is the Postgres implementation of StayRepo.
type pgStayRepo struct {
	db db
}

// NewStayRepo constructs a StayRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStayRepo(db db) StayRepo {
	return &pgStayRepo{db: db}
}

const stayColumns = `id, user_id, country_code, city, from_country_code, from_city,
	entry_date, exit_date, visa_type, notes, created_at, updated_at`

// Create inserts a new stay row and returns the full persisted record.
func (r *pgStayRepo) Create(ctx context.Context, stay domain.Stay) (domain.Stay, error) {
	const q = `
		INSERT INTO stays (user_id, country_code, city, from_country_code, from_city,
			entry_date, exit_date, visa_type, notes)
		VALUES (@user_id, @country_code, @city, @from_country_code, @from_city,
			@entry_date, @exit_date, @visa_type, @notes)
		RETURNING ` + stayColumns

	row := r.db.QueryRow(ctx, q, stayArgs(stay))
	result, err := scanStay(row)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("repo.StayRepo.Create: %w", err)
	}
	return result, nil
}

// GetByID retrieves a stay by primary key, scoped to its owner.
func (r *pgStayRepo) GetByID(ctx context.Context, userID, stayID uuid.UUID) (domain.Stay, error) {
	const q = `
		SELECT ` + stayColumns + `
		FROM stays
		WHERE id = @id AND user_id = @user_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": stayID, "user_id": userID})
	result, err := scanStay(row)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("repo.StayRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByUserID returns every stay for a user, entry date ascending. The
// ascending order matches what the reconciler expects on load.
func (r *pgStayRepo) ListByUserID(ctx context.Context, userID uuid.UUID) ([]domain.Stay, error) {
	const q = `
		SELECT ` + stayColumns + `
		FROM stays
		WHERE user_id = @user_id
		ORDER BY entry_date ASC, created_at ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("repo.StayRepo.ListByUserID: %w", err)
	}
	defer rows.Close()

	var stays []domain.Stay
	for rows.Next() {
		s, err := scanStay(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StayRepo.ListByUserID: scan: %w", err)
		}
		stays = append(stays, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StayRepo.ListByUserID: rows: %w", err)
	}

	return stays, nil
}

// ListByUserIDPaged returns one page of stays plus the total row count for
// the pagination envelope.
func (r *pgStayRepo) ListByUserIDPaged(ctx context.Context, userID uuid.UUID, p domain.PaginationParams) ([]domain.Stay, int64, error) {
	const countQ = `SELECT count(*) FROM stays WHERE user_id = @user_id`

	var total int64
	if err := r.db.QueryRow(ctx, countQ, pgx.NamedArgs{"user_id": userID}).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.StayRepo.ListByUserIDPaged: count: %w", err)
	}

	const q = `
		SELECT ` + stayColumns + `
		FROM stays
		WHERE user_id = @user_id
		ORDER BY entry_date ASC, created_at ASC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{
		"user_id": userID,
		"limit":   p.Limit,
		"offset":  p.Offset(),
	})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.StayRepo.ListByUserIDPaged: %w", err)
	}
	defer rows.Close()

	var stays []domain.Stay
	for rows.Next() {
		s, err := scanStay(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.StayRepo.ListByUserIDPaged: scan: %w", err)
		}
		stays = append(stays, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.StayRepo.ListByUserIDPaged: rows: %w", err)
	}

	return stays, total, nil
}

// Update overwrites the mutable fields of a stay and returns the updated record.
// Reconciler corrections (exit_date, from_country_code, from_city) flow
// through here as well as user edits.
func (r *pgStayRepo) Update(ctx context.Context, stay domain.Stay) (domain.Stay, error) {
	const q = `
		UPDATE stays
		SET country_code      = @country_code,
		    city              = @city,
		    from_country_code = @from_country_code,
		    from_city         = @from_city,
		    entry_date        = @entry_date,
		    exit_date         = @exit_date,
		    visa_type         = @visa_type,
		    notes             = @notes,
		    updated_at        = now()
		WHERE id = @id AND user_id = @user_id
		RETURNING ` + stayColumns

	args := stayArgs(stay)
	args["id"] = stay.ID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStay(row)
	if err != nil {
		return domain.Stay{}, fmt.Errorf("repo.StayRepo.Update: %w", err)
	}
	return result, nil
}

// Delete removes a stay by ID, scoped to its owner.
func (r *pgStayRepo) Delete(ctx context.Context, userID, stayID uuid.UUID) error {
	const q = `DELETE FROM stays WHERE id = @id AND user_id = @user_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": stayID, "user_id": userID})
	if err != nil {
		return fmt.Errorf("repo.StayRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.StayRepo.Delete: %w", domain.ErrNotFound)
	}
	return nil
}

// stayArgs maps a domain.Stay to the named arguments shared by INSERT and
// UPDATE. A nil ExitDate becomes NULL.
func stayArgs(stay domain.Stay) pgx.NamedArgs {
	return pgx.NamedArgs{
		"user_id":           stay.UserID,
		"country_code":      stay.CountryCode,
		"city":              stay.City,
		"from_country_code": stay.FromCountryCode,
		"from_city":         stay.FromCity,
		"entry_date":        stay.EntryDate,
		"exit_date":         stay.ExitDate,
		"visa_type":         stay.VisaType,
		"notes":             stay.Notes,
	}
}

// scanStay reads one stay row. pgx.ErrNoRows is translated to the domain
// sentinel so callers never import pgx. Date columns come back as midnight
// UTC, matching the domain's date-only convention.
func scanStay(row pgx.Row) (domain.Stay, error) {
	var s domain.Stay
	err := row.Scan(
		&s.ID, &s.UserID, &s.CountryCode, &s.City, &s.FromCountryCode, &s.FromCity,
		&s.EntryDate, &s.ExitDate, &s.VisaType, &s.Notes, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Stay{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Stay{}, err
	}
	s.EntryDate = domain.DateOnly(s.EntryDate)
	if s.ExitDate != nil {
		d := domain.DateOnly(*s.ExitDate)
		s.ExitDate = &d
	}
	return s, nil
}
