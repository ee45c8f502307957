// Package handler — export.go implements GET /export.
// Returns the user's reconciled stay history as a flat table.
// Supports content negotiation via ?format=csv (CSV) or default (JSON).
package handler

import (
	"encoding/csv"
	"net/http"

	"github.com/visaday/backend/internal/domain"
	"github.com/visaday/backend/internal/middleware"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"stay_id", "country_code", "city", "from_country_code", "from_city",
	"entry_date", "exit_date", "visa_type", "notes",
}

// GetExport handles GET /export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFrom(r.Context())

	rows, err := s.export.Export(r.Context(), userID)
	if err != nil {
		respondServiceError(w, err, "")
		return
	}

	if r.URL.Query().Get("format") == "csv" {
		writeCSV(w, rows)
		return
	}
	respondJSON(w, http.StatusOK, exportRowsToJSON(rows))
}

// writeCSV streams the rows as text/csv with an attachment disposition.
func writeCSV(w http.ResponseWriter, rows []domain.ExportRow) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="stays.csv"`)

	cw := csv.NewWriter(w)
	//nolint:errcheck — csv.Writer buffers; Flush reports the real error below.
	cw.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		cw.Write([]string{
			r.StayID, r.CountryCode, r.City, r.FromCountryCode, r.FromCity,
			r.EntryDate, r.ExitDate, r.VisaType, r.Notes,
		})
	}
	cw.Flush()
}

// exportRow is the JSON shape of one export row; empty optional fields are
// omitted.
type exportRow struct {
	StayID          string `json:"stay_id"`
	CountryCode     string `json:"country_code"`
	City            string `json:"city,omitempty"`
	FromCountryCode string `json:"from_country_code,omitempty"`
	FromCity        string `json:"from_city,omitempty"`
	EntryDate       string `json:"entry_date"`
	ExitDate        string `json:"exit_date,omitempty"`
	VisaType        string `json:"visa_type,omitempty"`
	Notes           string `json:"notes,omitempty"`
}

func exportRowsToJSON(rows []domain.ExportRow) []exportRow {
	out := make([]exportRow, len(rows))
	for i, r := range rows {
		out[i] = exportRow(r)
	}
	return out
}
