package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

// backdate moves an audit record's timestamp, which the append-only repo
// deliberately has no API for.
func backdate(t *testing.T, e *env, id string, ts time.Time) {
	t.Helper()
	_, err := e.db.ExecContext(e.ctx, `UPDATE audit SET timestamp = ? WHERE id = ?`, ts.UTC(), id)
	require.NoError(t, err)
}

func insertAudit(t *testing.T, e *env, actor string, target domain.AuditTarget, targetID string, age time.Duration) string {
	t.Helper()
	log := domain.AuditLog{
		Actor:    actor,
		Action:   domain.AuditChange,
		Target:   target,
		TargetID: targetID,
		Changes:  domain.Added(map[string]any{"probe": true}),
	}
	require.NoError(t, e.auditRepo.Insert(e.ctx, &log))
	backdate(t, e, log.ID, time.Now().Add(-age))
	return log.ID
}

func TestAuditLogsResolvesNames(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "Payroll")
	require.NoError(t, err)

	records, err := e.auditSvc.Logs(e.ctx, 30)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Test Actor", records[0].ActorName)
	assert.Equal(t, "Payroll", records[0].TargetName)
	assert.Equal(t, app.ID, records[0].TargetID)
}

func TestAuditLogsUnknownNamesFallBack(t *testing.T) {
	e := setup(t)

	// Actor no longer in the user table, target id without a live row.
	insertAudit(t, e, "ghost-actor", domain.TargetApplication, "ghost-app", time.Hour)
	insertAudit(t, e, e.actor.ID, domain.TargetSystem, "", time.Hour)

	records, err := e.auditSvc.Logs(e.ctx, 30)
	require.NoError(t, err)
	require.Len(t, records, 2)

	byActor := map[string]domain.AuditRecord{}
	for _, r := range records {
		byActor[r.Actor] = r
	}
	assert.Equal(t, "Unknown", byActor["ghost-actor"].ActorName)
	assert.Equal(t, "ghost-app", byActor["ghost-actor"].TargetName)
	assert.Equal(t, "Unknown", byActor[e.actor.ID].TargetName)
}

func TestAuditWindowNarrowRequestFiltersCached(t *testing.T) {
	e := setup(t)

	insertAudit(t, e, e.actor.ID, domain.TargetSystem, "x", time.Hour)
	old := insertAudit(t, e, e.actor.ID, domain.TargetSystem, "y", 10*24*time.Hour)

	// Prime a 30-day window.
	records, err := e.auditSvc.Logs(e.ctx, 30)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// A narrower request is answered from the cached window.
	records, err = e.auditSvc.Logs(e.ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.NotEqual(t, old, records[0].ID)
}

func TestAuditWindowWidensWithGapFetch(t *testing.T) {
	e := setup(t)

	recent := insertAudit(t, e, e.actor.ID, domain.TargetSystem, "recent", time.Hour)
	old := insertAudit(t, e, e.actor.ID, domain.TargetSystem, "old", 45*24*time.Hour)

	// Prime a 7-day window holding only the recent record.
	records, err := e.auditSvc.Logs(e.ctx, 7)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, recent, records[0].ID)

	// Widening fetches the gap and returns the union.
	records, err = e.auditSvc.Logs(e.ctx, 60)
	require.NoError(t, err)
	require.Len(t, records, 2)
	ids := []string{records[0].ID, records[1].ID}
	assert.ElementsMatch(t, []string{recent, old}, ids)

	// The cache now covers the wider window.
	window, ok := cache.Read[struct {
		LastDays int               `json:"lastDays"`
		Logs     []domain.AuditLog `json:"logs"`
	}](e.ctx, e.cache, cache.KeyAuditLogs)
	require.True(t, ok)
	assert.Equal(t, 60, window.LastDays)
	assert.Len(t, window.Logs, 2)
}

func TestAuditLogsDefaultsToThirtyDays(t *testing.T) {
	e := setup(t)

	insertAudit(t, e, e.actor.ID, domain.TargetSystem, "in", time.Hour)
	insertAudit(t, e, e.actor.ID, domain.TargetSystem, "out", 40*24*time.Hour)

	records, err := e.auditSvc.Logs(e.ctx, 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "in", records[0].TargetID)
}
