package models

import (
	"fmt"
	"strings"
	"time"
)

// Status is a report's position in the case workflow.
type Status string

const (
	StatusUnopened Status = "unopened"
	StatusOpened   Status = "opened"
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
)

// statusRank orders statuses for the monotonic part of the workflow:
// unopened < opened < pending <= resolved.
var statusRank = map[Status]int{
	StatusUnopened: 0,
	StatusOpened:   1,
	StatusPending:  2,
	StatusResolved: 3,
}

// ParseStatus normalizes a backend status string.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(s))
	if _, ok := statusRank[st]; !ok {
		return "", fmt.Errorf("unknown report status %q", s)
	}
	return st, nil
}

// Valid reports whether the status is one of the four workflow states.
func (s Status) Valid() bool {
	_, ok := statusRank[s]
	return ok
}

// Terminal reports whether the status ends the normal workflow.
func (s Status) Terminal() bool {
	return s == StatusResolved
}

// InProgress reports whether the status counts as "in progress" for
// aggregation. Opened and pending are both in progress.
func (s Status) InProgress() bool {
	return s == StatusOpened || s == StatusPending
}

// CanTransition is the single authoritative transition-validity table.
// Allowed moves: unopened -> opened, opened <-> pending, and any non-terminal
// status -> pending or resolved. Nothing moves back to unopened. Leaving
// resolved is only allowed when allowResolvedRevert is set; the backend does
// not forbid it, so it is client policy.
func CanTransition(from, to Status, allowResolvedRevert bool) bool {
	if !from.Valid() || !to.Valid() || from == to {
		return false
	}
	if from == StatusResolved && !allowResolvedRevert {
		return false
	}
	switch to {
	case StatusUnopened:
		return false
	case StatusOpened:
		// the unopened -> opened crossing, or the agent toggling back
		// from pending while working
		return from == StatusUnopened || from == StatusPending || from == StatusResolved
	case StatusPending, StatusResolved:
		return true
	}
	return false
}

// EvidenceKind classifies an attached evidence file.
type EvidenceKind string

const (
	EvidenceImage EvidenceKind = "image"
	EvidenceVideo EvidenceKind = "video"
)

// EvidenceKindForMIME maps an attachment MIME type to an evidence kind.
// Anything that is not a video is treated as an image.
func EvidenceKindForMIME(mimeType string) EvidenceKind {
	if strings.HasPrefix(mimeType, "video") {
		return EvidenceVideo
	}
	return EvidenceImage
}

// Evidence is a single attached file reference. Evidence is append-only at
// filing time; the edit flow never touches it.
type Evidence struct {
	Kind EvidenceKind `json:"kind"`
	URL  string       `json:"url"`
}

// Report is a single filed incident case record. ID and CreatedAt are
// server-assigned and never change.
type Report struct {
	ID                  string     `json:"id"`
	ReporterID          string     `json:"reporter_id"`
	AssignedAgentID     string     `json:"assigned_agent_id,omitempty"`
	ReporterName        string     `json:"reporter_name"`
	ReporterType        string     `json:"reporter_type"`
	IncidentType        string     `json:"incident_type"`
	Description         string     `json:"description"`
	City                string     `json:"city"`
	BarangayComplainant string     `json:"barangay_complainant"`
	BarangayIncident    string     `json:"barangay_incident"`
	Status              Status     `json:"status"`
	Evidence            []Evidence `json:"evidence,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// Clone returns a deep copy of the report.
func (r *Report) Clone() *Report {
	if r == nil {
		return nil
	}
	cp := *r
	if r.Evidence != nil {
		cp.Evidence = make([]Evidence, len(r.Evidence))
		copy(cp.Evidence, r.Evidence)
	}
	return &cp
}

// Draft is the transient working copy of a report's editable fields. It is
// created when a reporter enters edit mode and discarded on cancel or
// successful save; it is never persisted.
type Draft struct {
	IncidentType     string
	Description      string
	BarangayIncident string
	City             string
}

// NewDraft snapshots the editable fields of a report.
func NewDraft(r *Report) Draft {
	return Draft{
		IncidentType:     r.IncidentType,
		Description:      r.Description,
		BarangayIncident: r.BarangayIncident,
		City:             r.City,
	}
}

// ApplyTo copies the draft's fields onto a report.
func (d Draft) ApplyTo(r *Report) {
	r.IncidentType = d.IncidentType
	r.Description = d.Description
	r.BarangayIncident = d.BarangayIncident
	r.City = d.City
}
