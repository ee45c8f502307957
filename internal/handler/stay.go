package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/visaday/backend/internal/domain"
	"github.com/visaday/backend/internal/middleware"
)

// stayRequest is the JSON body for POST /stays and PUT /stays/{id}.
// Dates arrive as "2006-01-02" strings and are validated here, at the
// boundary — the visa engine never sees a malformed date.
type stayRequest struct {
	CountryCode     string  `json:"country_code"`
	City            string  `json:"city"`
	FromCountryCode string  `json:"from_country_code"`
	FromCity        string  `json:"from_city"`
	EntryDate       string  `json:"entry_date"`
	ExitDate        *string `json:"exit_date"`
	VisaType        string  `json:"visa_type"`
	Notes           string  `json:"notes"`
}

// stayResponse is the JSON representation of a stay.
type stayResponse struct {
	ID              uuid.UUID           `json:"id"`
	CountryCode     string              `json:"country_code"`
	City            string              `json:"city,omitempty"`
	FromCountryCode string              `json:"from_country_code,omitempty"`
	FromCity        string              `json:"from_city,omitempty"`
	EntryDate       openapi_types.Date  `json:"entry_date"`
	ExitDate        *openapi_types.Date `json:"exit_date,omitempty"`
	VisaType        string              `json:"visa_type,omitempty"`
	Notes           string              `json:"notes,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// paginationMeta is the envelope metadata for paged list responses.
type paginationMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type stayListResponse struct {
	Data       []stayResponse `json:"data"`
	Pagination paginationMeta `json:"pagination"`
}

// CreateStay handles POST /stays.
func (s *Server) CreateStay(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	stay, err := decodeStayRequest(r, userID)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	created, err := s.stays.Create(r.Context(), stay)
	if err != nil {
		respondServiceError(w, err, "stay not found")
		return
	}
	respondJSON(w, http.StatusCreated, stayToResponse(created))
}

// ListStays handles GET /stays.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListStays(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	params := domain.NewPaginationParams(queryInt(r, "page"), queryInt(r, "limit"))
	stays, total, err := s.stays.ListPaged(r.Context(), userID, params)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	data := make([]stayResponse, len(stays))
	for i, st := range stays {
		data[i] = stayToResponse(st)
	}
	respondJSON(w, http.StatusOK, stayListResponse{
		Data: data,
		Pagination: paginationMeta{
			Page:  params.Page,
			Limit: params.Limit,
			Total: int(total),
		},
	})
}

// GetStay handles GET /stays/{stayID}.
func (s *Server) GetStay(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	stayID, err := uuid.Parse(chi.URLParam(r, "stayID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "stay not found")
		return
	}

	stay, err := s.stays.GetByID(r.Context(), userID, stayID)
	if err != nil {
		respondServiceError(w, err, "stay not found")
		return
	}
	respondJSON(w, http.StatusOK, stayToResponse(stay))
}

// UpdateStay handles PUT /stays/{stayID}.
func (s *Server) UpdateStay(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	stayID, err := uuid.Parse(chi.URLParam(r, "stayID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "stay not found")
		return
	}

	stay, err := decodeStayRequest(r, userID)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}
	stay.ID = stayID

	updated, err := s.stays.Update(r.Context(), stay)
	if err != nil {
		respondServiceError(w, err, "stay not found")
		return
	}
	respondJSON(w, http.StatusOK, stayToResponse(updated))
}

// DeleteStay handles DELETE /stays/{stayID}.
func (s *Server) DeleteStay(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	stayID, err := uuid.Parse(chi.URLParam(r, "stayID"))
	if err != nil {
		respondError(w, http.StatusNotFound, "not_found", "stay not found")
		return
	}

	if err := s.stays.Delete(r.Context(), userID, stayID); err != nil {
		respondServiceError(w, err, "stay not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- mapping helpers --------------------------------------------------------

// decodeStayRequest parses and validates the JSON body into a domain.Stay.
// Date strings are parsed here; a malformed date yields domain.ErrInvalidDate.
func decodeStayRequest(r *http.Request, userID uuid.UUID) (domain.Stay, error) {
	var body stayRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return domain.Stay{}, fmt.Errorf("%w: malformed request body", domain.ErrValidation)
	}

	entry, err := parseDate(body.EntryDate, "entry_date")
	if err != nil {
		return domain.Stay{}, err
	}

	stay := domain.Stay{
		UserID:          userID,
		CountryCode:     body.CountryCode,
		City:            body.City,
		FromCountryCode: body.FromCountryCode,
		FromCity:        body.FromCity,
		EntryDate:       entry,
		VisaType:        body.VisaType,
		Notes:           body.Notes,
	}
	if body.ExitDate != nil && *body.ExitDate != "" {
		exit, err := parseDate(*body.ExitDate, "exit_date")
		if err != nil {
			return domain.Stay{}, err
		}
		stay.ExitDate = &exit
	}
	return stay, nil
}

// parseDate parses a "2006-01-02" string, naming the offending field in the
// error so the client knows which date was bad.
func parseDate(s, field string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: %s is required", domain.ErrValidation, field)
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s must be a YYYY-MM-DD date", domain.ErrInvalidDate, field)
	}
	return t, nil
}

// stayToResponse maps a domain.Stay to its JSON representation.
func stayToResponse(s domain.Stay) stayResponse {
	resp := stayResponse{
		ID:              s.ID,
		CountryCode:     s.CountryCode,
		City:            s.City,
		FromCountryCode: s.FromCountryCode,
		FromCity:        s.FromCity,
		EntryDate:       openapi_types.Date{Time: s.EntryDate},
		VisaType:        s.VisaType,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if s.ExitDate != nil {
		resp.ExitDate = &openapi_types.Date{Time: *s.ExitDate}
	}
	return resp
}

// queryInt reads an integer query parameter, returning nil when absent or
// malformed so pagination falls back to its defaults.
func queryInt(r *http.Request, name string) *int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
