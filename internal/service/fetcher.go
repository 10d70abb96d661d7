package service

import (
	"context"

	"github.com/delacruzpj/deskhub_client/internal/apperrors"
	"github.com/delacruzpj/deskhub_client/internal/cache"
	"github.com/delacruzpj/deskhub_client/internal/models"
	"github.com/delacruzpj/deskhub_client/internal/session"
)

// Fetcher adapts the reports API to the cache's fetch contract, resolving
// the bearer token from the live session at fetch time.
type Fetcher struct {
	reports  ReportsAPI
	sessions *session.Manager
}

func NewFetcher(reports ReportsAPI, sessions *session.Manager) *Fetcher {
	return &Fetcher{reports: reports, sessions: sessions}
}

func (f *Fetcher) FetchReports(ctx context.Context, key cache.Key) ([]*models.Report, error) {
	sess := f.sessions.Current()
	if !sess.Authenticated() {
		return nil, &apperrors.AuthError{Message: "no active session"}
	}

	if key.Role == models.RoleAgent {
		return f.reports.ReportsByAgent(ctx, sess.Token, key.OwnerID)
	}
	return f.reports.ReportsByReporter(ctx, sess.Token, key.OwnerID)
}
