package cache

import "github.com/delacruzpj/deskhub_client/internal/models"

// Reconcile merges a poll result into the local snapshot. The poll wins for
// every record except those with a mutation in flight: there the local
// optimistic value is kept unless the polled record is strictly newer by
// updated_at. Records without timestamps fall back to last-response-wins,
// which is a documented simplification, not a conflict-free merge.
//
// Records the poll no longer returns are dropped unless a mutation is in
// flight for them; records only the poll knows about are added.
func Reconcile(local, polled []*models.Report, inFlight map[string]struct{}) []*models.Report {
	localByID := make(map[string]*models.Report, len(local))
	for _, r := range local {
		localByID[r.ID] = r
	}

	merged := make([]*models.Report, 0, len(polled))
	polledIDs := make(map[string]struct{}, len(polled))
	for _, p := range polled {
		polledIDs[p.ID] = struct{}{}

		l, known := localByID[p.ID]
		if !known {
			merged = append(merged, p)
			continue
		}
		if _, busy := inFlight[p.ID]; busy && !p.UpdatedAt.After(l.UpdatedAt) {
			// stale poll must not clobber an in-flight optimistic value
			merged = append(merged, l)
			continue
		}
		merged = append(merged, p)
	}

	for _, l := range local {
		if _, stillThere := polledIDs[l.ID]; stillThere {
			continue
		}
		if _, busy := inFlight[l.ID]; busy {
			merged = append(merged, l)
		}
	}
	return merged
}
