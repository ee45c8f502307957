package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/visaday/backend/internal/domain"
)

// ExportService assembles a flat export of a user's reconciled stay history.
type ExportService struct {
	stays StayLister
}

// NewExportService constructs an ExportService over the provided lister.
func NewExportService(stays StayLister) *ExportService {
	return &ExportService{stays: stays}
}

// Export returns one ExportRow per stay, entry date ascending. Dates are
// pre-formatted as "2006-01-02"; an open stay has an empty ExitDate.
func (s *ExportService) Export(ctx context.Context, userID uuid.UUID) ([]domain.ExportRow, error) {
	stays, err := s.stays.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	rows := make([]domain.ExportRow, 0, len(stays))
	for _, st := range stays {
		row := domain.ExportRow{
			StayID:          st.ID.String(),
			CountryCode:     st.CountryCode,
			City:            st.City,
			FromCountryCode: st.FromCountryCode,
			FromCity:        st.FromCity,
			EntryDate:       st.EntryDate.Format(time.DateOnly),
			VisaType:        st.VisaType,
			Notes:           st.Notes,
		}
		if st.ExitDate != nil {
			row.ExitDate = st.ExitDate.Format(time.DateOnly)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
