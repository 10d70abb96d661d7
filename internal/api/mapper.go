package api

import (
	"fmt"

	"github.com/delacruzpj/deskhub_client/internal/models"
)

func reportFromDTO(d reportDTO) (*models.Report, error) {
	status, err := models.ParseStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", d.ID, err)
	}

	evidence := make([]models.Evidence, 0, len(d.Evidence))
	for _, ev := range d.Evidence {
		evidence = append(evidence, models.Evidence{
			Kind: models.EvidenceKindForMIME(ev.FileType),
			URL:  ev.URL,
		})
	}
	if len(evidence) == 0 {
		evidence = nil
	}

	return &models.Report{
		ID:                  d.ID,
		ReporterID:          d.ReporterID,
		AssignedAgentID:     d.AssignedAgentID,
		ReporterName:        d.Name,
		ReporterType:        d.ReporterType,
		IncidentType:        d.IncidentType,
		Description:         d.Description,
		City:                d.City,
		BarangayComplainant: d.BarangayComplainant,
		BarangayIncident:    d.BarangayIncident,
		Status:              status,
		Evidence:            evidence,
		CreatedAt:           d.CreatedAt,
		UpdatedAt:           d.UpdatedAt,
	}, nil
}

func reportsFromDTO(dtos []reportDTO) ([]*models.Report, error) {
	reports := make([]*models.Report, 0, len(dtos))
	for _, d := range dtos {
		r, err := reportFromDTO(d)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, nil
}

func evidenceToDTO(evidence []models.Evidence) []EvidenceDTO {
	dtos := make([]EvidenceDTO, 0, len(evidence))
	for _, ev := range evidence {
		dtos = append(dtos, EvidenceDTO{FileType: string(ev.Kind), URL: ev.URL})
	}
	return dtos
}

// UpdateRequestFromReport builds the full-record PUT payload for a report.
func UpdateRequestFromReport(r *models.Report) UpdateReportRequest {
	return UpdateReportRequest{
		ReporterID:          r.ReporterID,
		Name:                r.ReporterName,
		City:                r.City,
		Description:         r.Description,
		BarangayComplainant: r.BarangayComplainant,
		BarangayIncident:    r.BarangayIncident,
		ReporterType:        r.ReporterType,
		IncidentType:        r.IncidentType,
		Status:              string(r.Status),
		Evidence:            evidenceToDTO(r.Evidence),
	}
}

func sessionFromAuthResponse(resp authResponse) (*models.Session, error) {
	role, err := models.ParseRole(resp.SafeUser.Role)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		Identity: models.Identity{
			ID:         resp.SafeUser.ID,
			Name:       resp.SafeUser.Name,
			Role:       role,
			City:       resp.SafeUser.City,
			Barangay:   resp.SafeUser.Barangay,
			ContactNum: resp.SafeUser.ContactNum,
		},
		Token: resp.Token,
	}, nil
}
