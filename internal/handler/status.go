// Package handler — status.go implements the visa status endpoints.
// GET /status returns one report per country in the user's history;
// GET /status/{countryCode} computes a single country on demand.
package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/visaday/backend/internal/middleware"
	"github.com/visaday/backend/internal/visa"
)

// statusResponse is the JSON representation of one country's visa status.
type statusResponse struct {
	CountryCode   string  `json:"country_code"`
	DaysUsed      int     `json:"days_used"`
	CurrentDays   int     `json:"current_days"`
	PlannedDays   int     `json:"planned_days"`
	MaxDays       int     `json:"max_days"`
	RemainingDays int     `json:"remaining_days"`
	Percentage    float64 `json:"percentage"`
	Status        string  `json:"status"`
}

// GetStatusReport handles GET /status.
// Optional query parameters: ?passport=XX (default from server config) and
// ?date=YYYY-MM-DD (default today) for deterministic "what-if" projections.
func (s *Server) GetStatusReport(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	ref, err := queryDate(r)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	report, err := s.status.Report(r.Context(), userID, r.URL.Query().Get("passport"), ref)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	out := make([]statusResponse, len(report))
	for i, st := range report {
		out[i] = statusToResponse(st)
	}
	respondJSON(w, http.StatusOK, out)
}

// GetCountryStatus handles GET /status/{countryCode}.
func (s *Server) GetCountryStatus(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	cc := strings.ToUpper(chi.URLParam(r, "countryCode"))
	ref, err := queryDate(r)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	st, err := s.status.Country(r.Context(), userID, r.URL.Query().Get("passport"), cc, ref)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}
	respondJSON(w, http.StatusOK, statusToResponse(st))
}

// queryDate parses the optional ?date= parameter; a zero time means "today".
func queryDate(r *http.Request) (time.Time, error) {
	v := r.URL.Query().Get("date")
	if v == "" {
		return time.Time{}, nil
	}
	return parseDate(v, "date")
}

func statusToResponse(st visa.Status) statusResponse {
	return statusResponse{
		CountryCode:   st.CountryCode,
		DaysUsed:      st.DaysUsed,
		CurrentDays:   st.CurrentDays,
		PlannedDays:   st.PlannedDays,
		MaxDays:       st.MaxDays,
		RemainingDays: st.RemainingDays,
		Percentage:    st.Percentage,
		Status:        string(st.Level),
	}
}
