package api

import "time"

// LoginRequest carries the credentials for POST /auth/login.
type LoginRequest struct {
	ContactNum string `json:"contact_num" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// SignupAttachment is the scanned valid-ID file sent with a signup.
type SignupAttachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// SignupRequest carries the multipart signup form for POST /auth/signup.
type SignupRequest struct {
	Name                string `validate:"required,min=2,max=255"`
	DOB                 string `validate:"required"`
	City                string `validate:"required"`
	BarangayComplainant string `validate:"required"`
	ContactNum          string `validate:"required"`
	Password            string `validate:"required,min=8"`
	Role                string `validate:"required,oneof=user agent"`
	ValidID             SignupAttachment
}

// EvidenceDTO is a single evidence entry as the backend stores it.
type EvidenceDTO struct {
	FileType string `json:"fileType"`
	URL      string `json:"url"`
}

// CreateReportRequest carries a newly filed case for POST /reports.
type CreateReportRequest struct {
	ReporterID          string        `json:"reporterId" validate:"required"`
	Name                string        `json:"name" validate:"required"`
	City                string        `json:"city" validate:"required"`
	Description         string        `json:"description" validate:"required"`
	BarangayComplainant string        `json:"barangayComplainant" validate:"required"`
	BarangayIncident    string        `json:"barangayIncident" validate:"required"`
	ReporterType        string        `json:"reporterType" validate:"required,oneof=victim witness"`
	IncidentType        string        `json:"incidentType" validate:"required"`
	Location            string        `json:"location,omitempty"`
	Evidence            []EvidenceDTO `json:"evidence"`
}

// UpdateReportRequest carries the full record for PUT /reports/:id.
type UpdateReportRequest struct {
	ReporterID          string        `json:"reporterId"`
	Name                string        `json:"name"`
	City                string        `json:"city" validate:"required"`
	Description         string        `json:"description" validate:"required"`
	BarangayComplainant string        `json:"barangayComplainant"`
	BarangayIncident    string        `json:"barangayIncident" validate:"required"`
	ReporterType        string        `json:"reporterType"`
	IncidentType        string        `json:"incidentType" validate:"required"`
	Status              string        `json:"status"`
	Evidence            []EvidenceDTO `json:"evidence"`
}

// UpdateProfileRequest carries profile fields for PUT /users/:id.
type UpdateProfileRequest struct {
	Name       string `json:"name" validate:"required"`
	City       string `json:"city" validate:"required"`
	Barangay   string `json:"barangay" validate:"required"`
	ContactNum string `json:"contact_num" validate:"required"`
}

// changePasswordRequest carries the new credential for PATCH /users/:id.
type changePasswordRequest struct {
	Password string `json:"password"`
}

// statusPatchRequest carries the target status for PATCH /reports/:id.
type statusPatchRequest struct {
	Status string `json:"status"`
}

// identityDTO mirrors the backend's safeUser payload.
type identityDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	City       string `json:"city"`
	Barangay   string `json:"barangayComplainant"`
	ContactNum string `json:"contact_num"`
}

// authResponse mirrors the payload of a successful login, signup, or
// credential update.
type authResponse struct {
	Token    string      `json:"token"`
	SafeUser identityDTO `json:"safeUser"`
}

// reportDTO mirrors a report record as the backend serializes it.
type reportDTO struct {
	ID                  string        `json:"_id"`
	ReporterID          string        `json:"reporterId"`
	AssignedAgentID     string        `json:"agentId,omitempty"`
	Name                string        `json:"name"`
	ReporterType        string        `json:"reporterType"`
	IncidentType        string        `json:"incidentType"`
	Description         string        `json:"description"`
	City                string        `json:"city"`
	BarangayComplainant string        `json:"barangayComplainant"`
	BarangayIncident    string        `json:"barangayIncident"`
	Status              string        `json:"status"`
	Evidence            []EvidenceDTO `json:"evidence"`
	CreatedAt           time.Time     `json:"createdAt"`
	UpdatedAt           time.Time     `json:"updatedAt"`
}

// errorResponse is the backend's 4xx/5xx body shape. Some endpoints use
// "message", others "error".
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e errorResponse) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}
