package domain

// ExportRow is a single row in the full-data export: a flat, denormalized
// view of one reconciled stay. Dates are pre-formatted as "2006-01-02"
// strings so JSON and CSV encoders render them identically.
type ExportRow struct {
	StayID          string
	CountryCode     string
	City            string
	FromCountryCode string
	FromCity        string
	EntryDate       string
	ExitDate        string // empty string while the stay is still open
	VisaType        string
	Notes           string
}
