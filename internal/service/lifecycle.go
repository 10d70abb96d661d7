package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/delacruzpj/deskhub_client/internal/api"
	"github.com/delacruzpj/deskhub_client/internal/apperrors"
	"github.com/delacruzpj/deskhub_client/internal/cache"
	"github.com/delacruzpj/deskhub_client/internal/config"
	"github.com/delacruzpj/deskhub_client/internal/models"
	"github.com/delacruzpj/deskhub_client/internal/session"
)

var (
	ErrNotLoggedIn          = errors.New("service: no active session")
	ErrReportNotFound       = errors.New("service: report not found")
	ErrInvalidTransition    = errors.New("service: status transition not allowed")
	ErrConfirmationRequired = errors.New("service: delete requires explicit confirmation")
	ErrEditLocked           = errors.New("service: report can no longer be edited")
	ErrNotPermitted         = errors.New("service: action not permitted for this role")
)

// ReportsAPI defines the backend report operations the controller needs.
type ReportsAPI interface {
	ReportsByReporter(ctx context.Context, token, reporterID string) ([]*models.Report, error)
	ReportsByAgent(ctx context.Context, token, agentID string) ([]*models.Report, error)
	CreateReport(ctx context.Context, token string, req api.CreateReportRequest) (*models.Report, error)
	SetReportStatus(ctx context.Context, token, id string, status models.Status) (*models.Report, error)
	UpdateReport(ctx context.Context, token, id string, req api.UpdateReportRequest) (*models.Report, error)
	DeleteReport(ctx context.Context, token, id string) error
}

// EvidenceInput is one attachment on a case being filed.
type EvidenceInput struct {
	MIMEType string
	URL      string
}

// FileCaseInput carries a new case's form fields. Required-field checks run
// before any network call.
type FileCaseInput struct {
	Name                string `validate:"required"`
	City                string `validate:"required"`
	Description         string `validate:"required"`
	BarangayComplainant string `validate:"required"`
	BarangayIncident    string `validate:"required"`
	ReporterType        string `validate:"required,oneof=victim witness"`
	IncidentType        string `validate:"required"`
	Evidence            []EvidenceInput
}

// ReportService is the report lifecycle controller: it enforces the status
// transition table, serializes mutations per report, and reconciles
// optimistic cache state with server responses.
type ReportService struct {
	reports  ReportsAPI
	cache    *cache.Cache
	sessions *session.Manager
	logger   *logrus.Logger
	cfg      *config.Config
	validate *validator.Validate

	mu         sync.Mutex
	openIssued map[string]bool
}

func NewReportService(reports ReportsAPI, c *cache.Cache, sessions *session.Manager, logger *logrus.Logger, cfg *config.Config) *ReportService {
	return &ReportService{
		reports:    reports,
		cache:      c,
		sessions:   sessions,
		logger:     logger,
		cfg:        cfg,
		validate:   validator.New(),
		openIssued: make(map[string]bool),
	}
}

// OwnerKey is the cache key of the current session's report list.
func OwnerKey(sess *models.Session) cache.Key {
	return cache.Key{Role: sess.Identity.Role, OwnerID: sess.Identity.ID}
}

// List returns the cached report list for the current session.
func (s *ReportService) List() ([]*models.Report, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, ErrNotLoggedIn
	}
	return s.cache.List(OwnerKey(sess)), nil
}

// Refresh forces one fetch of the current session's list.
func (s *ReportService) Refresh(ctx context.Context) ([]*models.Report, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, ErrNotLoggedIn
	}
	return s.cache.Refresh(ctx, OwnerKey(sess))
}

// Stats aggregates the current session's cached list for the dashboard.
func (s *ReportService) Stats() (cache.Stats, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return cache.Stats{}, ErrNotLoggedIn
	}
	return s.cache.Stats(OwnerKey(sess)), nil
}

// View returns one report for display. When an agent views a report that is
// still unopened, the unopened -> opened transition is issued as a side
// effect, exactly once per crossing; viewing an already-opened report never
// issues a request. On a failed auto-open the report is still returned,
// with the error, so the screen can show both.
func (s *ReportService) View(ctx context.Context, id string) (*models.Report, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, ErrNotLoggedIn
	}

	rep, ok := s.cache.Get(OwnerKey(sess), id)
	if !ok {
		return nil, ErrReportNotFound
	}
	if sess.Identity.Role != models.RoleAgent || rep.Status != models.StatusUnopened {
		return rep, nil
	}

	s.mu.Lock()
	if s.openIssued[id] {
		s.mu.Unlock()
		return rep, nil
	}
	s.openIssued[id] = true
	s.mu.Unlock()

	record, err := s.Transition(ctx, id, models.StatusOpened)
	if err != nil {
		// allow a later view to retry the crossing
		s.mu.Lock()
		delete(s.openIssued, id)
		s.mu.Unlock()
		return rep, fmt.Errorf("service: auto-open failed: %w", err)
	}
	return record, nil
}

// Transition moves a report to a target status. Re-issuing the current
// status is a no-op with no network call. While one transition for a report
// is in flight, further ones are rejected with cache.ErrMutationInFlight.
// On failure the optimistic status is rolled back; there is no automatic
// retry.
func (s *ReportService) Transition(ctx context.Context, id string, target models.Status) (*models.Report, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, ErrNotLoggedIn
	}
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "Transition",
		"report_id": id,
		"target":    target,
	})

	key := OwnerKey(sess)
	rep, ok := s.cache.Get(key, id)
	if !ok {
		return nil, ErrReportNotFound
	}

	if rep.Status == target {
		log.Debug("Report already in target status, skipping request")
		return rep, nil
	}
	if !models.CanTransition(rep.Status, target, s.cfg.AllowResolvedRevert) {
		return nil, fmt.Errorf("service: %s -> %s: %w", rep.Status, target, ErrInvalidTransition)
	}

	if err := s.cache.TrackMutation(id); err != nil {
		return nil, err
	}
	prev, _ := s.cache.ApplyOptimistic(key, id, target)

	record, err := s.reports.SetReportStatus(ctx, sess.Token, id, target)
	if err != nil {
		s.cache.RollbackMutation(key, id, prev)
		log.WithError(err).Error("Status mutation failed, rolled back to last known-good status")
		return nil, fmt.Errorf("service: could not update report status: %w", err)
	}

	s.cache.CommitMutation(key, record)
	log.Info("Report status updated")
	return record, nil
}

// Update submits a reporter's edited draft as a full-record update. Only
// the owning reporter may edit; with LockEditsAfterReview set, edits are
// rejected once an agent has moved the report to pending or resolved.
func (s *ReportService) Update(ctx context.Context, id string, draft models.Draft) (*models.Report, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, ErrNotLoggedIn
	}
	if sess.Identity.Role != models.RoleReporter {
		return nil, ErrNotPermitted
	}
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "Update",
		"report_id": id,
	})

	key := OwnerKey(sess)
	rep, ok := s.cache.Get(key, id)
	if !ok {
		return nil, ErrReportNotFound
	}
	if rep.ReporterID != sess.Identity.ID {
		return nil, ErrNotPermitted
	}
	if s.cfg.LockEditsAfterReview &&
		(rep.Status == models.StatusPending || rep.Status == models.StatusResolved) {
		return nil, ErrEditLocked
	}

	updated := rep.Clone()
	draft.ApplyTo(updated)
	req := api.UpdateRequestFromReport(updated)
	if err := s.validate.Struct(req); err != nil {
		return nil, validationError(err)
	}

	if err := s.cache.TrackMutation(id); err != nil {
		return nil, err
	}

	record, err := s.reports.UpdateReport(ctx, sess.Token, id, req)
	if err != nil {
		s.cache.UntrackMutation(id)
		log.WithError(err).Error("Report update failed, draft left intact")
		return nil, fmt.Errorf("service: could not update report: %w", err)
	}

	s.cache.CommitMutation(key, record)
	log.Info("Report updated")
	return record, nil
}

// File submits a new case. Required-field validation runs before the
// request; on success the cache gains the server-assigned record, which
// starts out unopened.
func (s *ReportService) File(ctx context.Context, in FileCaseInput) (*models.Report, error) {
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return nil, ErrNotLoggedIn
	}
	if sess.Identity.Role != models.RoleReporter {
		return nil, ErrNotPermitted
	}
	log := s.logger.WithFields(logrus.Fields{
		"service":       "report",
		"method":        "File",
		"incident_type": in.IncidentType,
	})

	if err := s.validate.Struct(in); err != nil {
		return nil, validationError(err)
	}

	evidence := make([]api.EvidenceDTO, 0, len(in.Evidence))
	for _, ev := range in.Evidence {
		evidence = append(evidence, api.EvidenceDTO{
			FileType: string(models.EvidenceKindForMIME(ev.MIMEType)),
			URL:      ev.URL,
		})
	}

	req := api.CreateReportRequest{
		ReporterID:          sess.Identity.ID,
		Name:                in.Name,
		City:                in.City,
		Description:         in.Description,
		BarangayComplainant: in.BarangayComplainant,
		BarangayIncident:    in.BarangayIncident,
		ReporterType:        in.ReporterType,
		IncidentType:        in.IncidentType,
		Evidence:            evidence,
	}

	record, err := s.reports.CreateReport(ctx, sess.Token, req)
	if err != nil {
		log.WithError(err).Error("Failed to file case")
		return nil, fmt.Errorf("service: could not file case: %w", err)
	}

	s.cache.Upsert(OwnerKey(sess), record)
	log.WithField("report_id", record.ID).Info("Case filed")
	return record, nil
}

// Delete permanently removes a report. The caller must pass confirmed=true,
// obtained from a blocking confirmation step; otherwise no request is
// issued. On success the cache entry is removed.
func (s *ReportService) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrConfirmationRequired
	}
	sess := s.sessions.Current()
	if !sess.Authenticated() {
		return ErrNotLoggedIn
	}
	log := s.logger.WithFields(logrus.Fields{
		"service":   "report",
		"method":    "Delete",
		"report_id": id,
	})

	key := OwnerKey(sess)
	if _, ok := s.cache.Get(key, id); !ok {
		return ErrReportNotFound
	}

	if err := s.cache.TrackMutation(id); err != nil {
		return err
	}

	if err := s.reports.DeleteReport(ctx, sess.Token, id); err != nil {
		s.cache.UntrackMutation(id)
		log.WithError(err).Error("Failed to delete report")
		return fmt.Errorf("service: could not delete report: %w", err)
	}

	s.cache.Remove(key, id)
	s.mu.Lock()
	delete(s.openIssued, id)
	s.mu.Unlock()

	log.Info("Report deleted")
	return nil
}

// validationError converts validator output into the client's taxonomy.
func validationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &apperrors.ValidationError{
			Field:   f.Field(),
			Message: fmt.Sprintf("failed the %q check", f.Tag()),
		}
	}
	return &apperrors.ValidationError{Message: err.Error()}
}
