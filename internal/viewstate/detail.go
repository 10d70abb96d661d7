// Package viewstate holds the per-opened-report view/edit state machine:
// Viewing -> Editing -> (Saving -> Viewing | Viewing on cancel). Field edits
// live only in a transient draft; cancel discards it, a failed save keeps
// it, and opening a different report resets everything.
package viewstate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/delacruzpj/deskhub_client/internal/models"
)

var (
	ErrNoReportOpen   = errors.New("viewstate: no report is open")
	ErrNotEditing     = errors.New("viewstate: not in edit mode")
	ErrAlreadyEditing = errors.New("viewstate: an edit is already in progress")
	ErrSaveInProgress = errors.New("viewstate: a save is already in flight")
	ErrUnknownField   = errors.New("viewstate: unknown editable field")
)

// Mode is the detail view's current state.
type Mode int

const (
	ModeViewing Mode = iota
	ModeEditing
	ModeSaving
)

func (m Mode) String() string {
	switch m {
	case ModeViewing:
		return "viewing"
	case ModeEditing:
		return "editing"
	case ModeSaving:
		return "saving"
	}
	return "unknown"
}

// Editable field names, matching the edit form.
const (
	FieldIncidentType     = "incidentType"
	FieldDescription      = "description"
	FieldBarangayIncident = "barangayIncident"
	FieldCity             = "city"
)

// Lifecycle is what the detail view needs from the lifecycle controller.
type Lifecycle interface {
	View(ctx context.Context, id string) (*models.Report, error)
	Update(ctx context.Context, id string, draft models.Draft) (*models.Report, error)
	Transition(ctx context.Context, id string, target models.Status) (*models.Report, error)
	Delete(ctx context.Context, id string, confirmed bool) error
}

// Detail is the state of the single open report detail view.
type Detail struct {
	mu sync.Mutex

	lifecycle Lifecycle
	logger    *logrus.Logger

	report *models.Report
	draft  models.Draft
	dirty  map[string]bool
	mode   Mode
}

func NewDetail(lifecycle Lifecycle, logger *logrus.Logger) *Detail {
	return &Detail{
		lifecycle: lifecycle,
		logger:    logger,
		dirty:     make(map[string]bool),
	}
}

// Open loads a report into the view. Any previously open report's state,
// including an unsaved draft, is discarded first so nothing bleeds between
// reports. Viewing as an agent triggers the controller's auto-open side
// effect; if that side effect fails, the report is still shown and the
// error returned.
func (d *Detail) Open(ctx context.Context, id string) (*models.Report, error) {
	d.mu.Lock()
	d.reset()
	d.mu.Unlock()

	rep, err := d.lifecycle.View(ctx, id)
	if rep == nil {
		return nil, err
	}

	d.mu.Lock()
	d.report = rep
	d.mu.Unlock()
	return rep.Clone(), err
}

// Close discards all view state immediately.
func (d *Detail) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reset()
}

// Report returns a copy of the displayed record, or nil when closed.
func (d *Detail) Report() *models.Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.report.Clone()
}

// Mode returns the view's current state.
func (d *Detail) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Draft returns the working copy of the editable fields.
func (d *Detail) Draft() models.Draft {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

// DirtyFields lists the fields edited since entering edit mode.
func (d *Detail) DirtyFields() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	fields := make([]string, 0, len(d.dirty))
	for _, name := range []string{FieldIncidentType, FieldDescription, FieldBarangayIncident, FieldCity} {
		if d.dirty[name] {
			fields = append(fields, name)
		}
	}
	return fields
}

// BeginEdit snapshots the report's editable fields into a fresh draft and
// switches to editing.
func (d *Detail) BeginEdit() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.report == nil {
		return ErrNoReportOpen
	}
	if d.mode != ModeViewing {
		return ErrAlreadyEditing
	}
	d.draft = models.NewDraft(d.report)
	d.dirty = make(map[string]bool)
	d.mode = ModeEditing
	return nil
}

// SetField updates one draft field. Only the draft changes; the displayed
// report stays untouched until a successful save.
func (d *Detail) SetField(name, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mode != ModeEditing {
		return ErrNotEditing
	}
	switch name {
	case FieldIncidentType:
		d.draft.IncidentType = value
	case FieldDescription:
		d.draft.Description = value
	case FieldBarangayIncident:
		d.draft.BarangayIncident = value
	case FieldCity:
		d.draft.City = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	d.dirty[name] = true
	return nil
}

// Cancel discards the draft and returns to viewing the original record.
func (d *Detail) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.mode != ModeEditing {
		return ErrNotEditing
	}
	d.draft = models.Draft{}
	d.dirty = make(map[string]bool)
	d.mode = ModeViewing
	return nil
}

// Save submits the draft. On success the view shows the server-confirmed
// record and returns to viewing; on failure it stays in editing with the
// draft intact so nothing typed is lost.
func (d *Detail) Save(ctx context.Context) (*models.Report, error) {
	d.mu.Lock()
	if d.report == nil {
		d.mu.Unlock()
		return nil, ErrNoReportOpen
	}
	switch d.mode {
	case ModeSaving:
		d.mu.Unlock()
		return nil, ErrSaveInProgress
	case ModeViewing:
		d.mu.Unlock()
		return nil, ErrNotEditing
	}
	id := d.report.ID
	draft := d.draft
	d.mode = ModeSaving
	d.mu.Unlock()

	record, err := d.lifecycle.Update(ctx, id, draft)

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.mode = ModeEditing
		d.logger.WithError(err).WithField("report_id", id).Warn("Save failed, keeping draft")
		return nil, err
	}

	d.report = record.Clone()
	d.draft = models.Draft{}
	d.dirty = make(map[string]bool)
	d.mode = ModeViewing
	return record, nil
}

// SetStatus issues an explicit status transition for the open report and
// refreshes the displayed record on success.
func (d *Detail) SetStatus(ctx context.Context, target models.Status) (*models.Report, error) {
	d.mu.Lock()
	if d.report == nil {
		d.mu.Unlock()
		return nil, ErrNoReportOpen
	}
	id := d.report.ID
	d.mu.Unlock()

	record, err := d.lifecycle.Transition(ctx, id, target)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.report != nil && d.report.ID == record.ID {
		d.report = record.Clone()
	}
	return record, nil
}

// Delete removes the open report; on success the view closes.
func (d *Detail) Delete(ctx context.Context, confirmed bool) error {
	d.mu.Lock()
	if d.report == nil {
		d.mu.Unlock()
		return ErrNoReportOpen
	}
	id := d.report.ID
	d.mu.Unlock()

	if err := d.lifecycle.Delete(ctx, id, confirmed); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.report != nil && d.report.ID == id {
		d.reset()
	}
	return nil
}

// RefreshFrom pushes a newer record from a poll reconciliation into the
// open view. Ignored while editing or saving so the draft stays stable.
func (d *Detail) RefreshFrom(record *models.Report) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.report == nil || record == nil || d.report.ID != record.ID {
		return
	}
	if d.mode != ModeViewing {
		return
	}
	d.report = record.Clone()
}

// reset clears everything, caller holds the lock.
func (d *Detail) reset() {
	d.report = nil
	d.draft = models.Draft{}
	d.dirty = make(map[string]bool)
	d.mode = ModeViewing
}
