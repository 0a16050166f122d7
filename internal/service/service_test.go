package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/db"
	"laci-tracker/internal/domain"
	"laci-tracker/internal/repository"
)

type env struct {
	ctx       context.Context
	db        *sql.DB
	cache     *cache.Cache
	client    *cache.MemoryClient
	auditRepo *repository.AuditRepo
	entryRepo *repository.EntryRepo

	apps      *ApplicationService
	cats      *CategoryService
	fields    *FieldService
	entries   *EntryService
	approvals *ApprovalService
	approvers *ApproverService
	users     *UserService
	auditSvc  *AuditService
	scanner   *Scanner

	actor *domain.User
}

func setup(t *testing.T) *env {
	t.Helper()
	writeDB, _ := db.OpenTestSQLite(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	client := cache.NewMemoryClient()
	c := cache.New(client, logger)

	auditRepo := repository.NewAuditRepo(writeDB)
	rec := audit.NewRecorder(auditRepo, logger)

	appRepo := repository.NewApplicationRepo(writeDB)
	catRepo := repository.NewCategoryRepo(writeDB)
	fieldRepo := repository.NewFieldRepo(writeDB)
	entryRepo := repository.NewEntryRepo(writeDB)
	approvalRepo := repository.NewApprovalRepo(writeDB)
	approverRepo := repository.NewApproverRepo(writeDB)
	userRepo := repository.NewUserRepo(writeDB)

	e := &env{
		ctx:       ctx,
		db:        writeDB,
		cache:     c,
		client:    client,
		auditRepo: auditRepo,
		entryRepo: entryRepo,
	}
	e.apps = NewApplicationService(appRepo, c, rec, logger)
	e.cats = NewCategoryService(catRepo, c, rec, logger)
	e.fields = NewFieldService(fieldRepo, c, rec, logger)
	e.entries = NewEntryService(entryRepo, c, rec, logger)
	e.approvers = NewApproverService(approverRepo, c, []string{"LACI Administrators"}, logger)
	e.approvals = NewApprovalService(approvalRepo, e.approvers, c, rec, logger)
	e.users = NewUserService(userRepo, c, rec, logger)
	e.auditSvc = NewAuditService(auditRepo, e.users, e.apps, e.cats, e.fields, c, logger)
	e.scanner = NewScanner(e.apps, e.cats, e.fields, entryRepo, c, logger)

	actor, err := userRepo.Create(ctx, "Test Actor", "actor@example.com")
	require.NoError(t, err)
	e.actor = actor

	return e
}

func (e *env) auditLogs(t *testing.T) []domain.AuditLog {
	t.Helper()
	logs, err := e.auditRepo.List(e.ctx, domain.AuditFilter{})
	require.NoError(t, err)
	return logs
}

func TestApplicationCreateAuditsFlatSnapshot(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "Payroll")
	require.NoError(t, err)

	logs := e.auditLogs(t)
	require.Len(t, logs, 1)
	assert.Equal(t, domain.AuditAdd, logs[0].Action)
	assert.Equal(t, domain.TargetApplication, logs[0].Target)
	assert.Equal(t, app.ID, logs[0].TargetID)

	flat := logs[0].Changes.Flat()
	assert.Equal(t, "Payroll", flat["name"])
	// Volatile bookkeeping never reaches the audit payload.
	assert.NotContains(t, flat, "createdById")
	assert.NotContains(t, flat, "modifiedById")
}

func TestApplicationNoOpUpdateProducesNoAudit(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "Payroll")
	require.NoError(t, err)
	before := len(e.auditLogs(t))

	name := "Payroll"
	_, err = e.apps.Update(e.ctx, e.actor.ID, app.ID, ApplicationPatch{Name: &name})
	require.NoError(t, err)

	assert.Len(t, e.auditLogs(t), before, "identical update must not write an audit record")
}

func TestApplicationUpdateAuditsDiffOnly(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "Payroll")
	require.NoError(t, err)

	name := "Payroll v2"
	_, err = e.apps.Update(e.ctx, e.actor.ID, app.ID, ApplicationPatch{Name: &name})
	require.NoError(t, err)

	logs := e.auditLogs(t)
	var change *domain.AuditLog
	for i := range logs {
		if logs[i].Action == domain.AuditChange {
			change = &logs[i]
		}
	}
	require.NotNil(t, change)

	// Stored payloads come back as untyped maps; change records hold
	// {old,new} pairs per field.
	payload := change.Changes.Flat()
	require.Len(t, payload, 1, "diff must contain only the changed field")
	pair, ok := payload["name"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Payroll", pair["old"])
	assert.Equal(t, "Payroll v2", pair["new"])
}

func TestCategoryUpdateAuditsDiffOnly(t *testing.T) {
	e := setup(t)

	cat, err := e.cats.Create(e.ctx, e.actor.ID, "Operations", "")
	require.NoError(t, err)

	name := "Ops"
	_, err = e.cats.Update(e.ctx, e.actor.ID, cat.ID, MatrixPatch{Name: &name})
	require.NoError(t, err)

	var change *domain.AuditLog
	for _, l := range e.auditLogs(t) {
		if l.Target == domain.TargetCategory && l.Action == domain.AuditChange {
			l := l
			change = &l
		}
	}
	require.NotNil(t, change)

	payload := change.Changes.Flat()
	require.Len(t, payload, 1, "diff must contain only the changed field")
	pair, ok := payload["name"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Operations", pair["old"])
	assert.Equal(t, "Ops", pair["new"])
}

func TestApplicationGetByNameCleansHyphens(t *testing.T) {
	e := setup(t)

	_, err := e.apps.Create(e.ctx, e.actor.ID, "Customer Portal")
	require.NoError(t, err)

	app, err := e.apps.GetByName(e.ctx, "Customer-Portal")
	require.NoError(t, err)
	assert.Equal(t, "Customer Portal", app.Name)
}

func TestApplicationListFiltersDisabled(t *testing.T) {
	e := setup(t)

	enabled, err := e.apps.Create(e.ctx, e.actor.ID, "Enabled App")
	require.NoError(t, err)
	disabled, err := e.apps.Create(e.ctx, e.actor.ID, "Disabled App")
	require.NoError(t, err)
	off := false
	_, err = e.apps.Update(e.ctx, e.actor.ID, disabled.ID, ApplicationPatch{Enabled: &off})
	require.NoError(t, err)

	visible, err := e.apps.List(e.ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
	assert.Equal(t, enabled.ID, visible[0].ID)

	all, err := e.apps.List(e.ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestRecordHitBumpsCounterWithoutAudit(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "Payroll")
	require.NoError(t, err)
	before := len(e.auditLogs(t))

	require.NoError(t, e.apps.RecordHit(e.ctx, app.ID))
	require.NoError(t, e.apps.RecordHit(e.ctx, app.ID))

	got, err := e.apps.Get(e.ctx, app.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.HitCount)
	assert.Len(t, e.auditLogs(t), before)
}

func TestEntryUpsertChoreography(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "CRM")
	require.NoError(t, err)
	cat, err := e.cats.Create(e.ctx, e.actor.ID, "Operations", "")
	require.NoError(t, err)
	field, err := e.fields.Create(e.ctx, e.actor.ID, "Owner", "")
	require.NoError(t, err)

	// Seed the per-assignee responsibility key so invalidation is visible.
	respKey := cache.ResponsibilitiesKey("ada@example.com")
	require.NoError(t, e.client.Set(e.ctx, respKey, `[{"type":"done"}]`, cache.TTLHour))

	entry, created, err := e.entries.Upsert(e.ctx, e.actor.ID, app.ID, cat.ID, field.ID,
		[]string{"Ada Lovelace <ada@example.com>", "ops-team"})
	require.NoError(t, err)
	assert.True(t, created)

	// The assignee's cached responsibilities are gone.
	_, ok, err := e.client.Get(e.ctx, respKey)
	require.NoError(t, err)
	assert.False(t, ok)

	// Upsert for the same triple updates in place and audits a change.
	_, created, err = e.entries.Upsert(e.ctx, e.actor.ID, app.ID, cat.ID, field.ID,
		[]string{"Grace Hopper <grace@example.com>"})
	require.NoError(t, err)
	assert.False(t, created)

	logs := e.auditLogs(t)
	var actions []domain.AuditAction
	for _, l := range logs {
		if l.Target == domain.TargetEntry {
			actions = append(actions, l.Action)
		}
	}
	assert.ElementsMatch(t, []domain.AuditAction{domain.AuditAdd, domain.AuditChange}, actions)

	entries, err := e.entries.ListByApplication(e.ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, entry.ID, entries[0].ID)
	assert.Equal(t, []string{"Grace Hopper <grace@example.com>"}, entries[0].AssignedUsers)
}

// blindEntryRepo hides rows from the snapshot read so the row appears
// between the service's pre-write read and the upsert, like a concurrent
// writer would make it.
type blindEntryRepo struct {
	domain.EntryRepository
}

func (blindEntryRepo) ListByApplication(ctx context.Context, applicationID string) ([]domain.Entry, error) {
	return nil, nil
}

func TestEntryUpsertSurvivesConcurrentInsert(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "CRM")
	require.NoError(t, err)
	cat, err := e.cats.Create(e.ctx, e.actor.ID, "Operations", "")
	require.NoError(t, err)
	field, err := e.fields.Create(e.ctx, e.actor.ID, "Owner", "")
	require.NoError(t, err)

	// The row already exists in the store, but the snapshot read misses it.
	_, created, err := e.entryRepo.Upsert(e.ctx, &domain.Entry{
		ApplicationID: app.ID,
		CategoryID:    cat.ID,
		FieldID:       field.ID,
		AssignedUsers: []string{"ops-team"},
		CreatedByID:   e.actor.ID,
		ModifiedByID:  e.actor.ID,
	})
	require.NoError(t, err)
	require.True(t, created)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	blind := NewEntryService(blindEntryRepo{e.entryRepo}, e.cache,
		audit.NewRecorder(e.auditRepo, logger), logger)

	entry, created, err := blind.Upsert(e.ctx, e.actor.ID, app.ID, cat.ID, field.ID,
		[]string{"Grace Hopper <grace@example.com>"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, []string{"Grace Hopper <grace@example.com>"}, entry.AssignedUsers)

	// The change record survives with nil old values.
	var change *domain.AuditLog
	for _, l := range e.auditLogs(t) {
		if l.Target == domain.TargetEntry && l.Action == domain.AuditChange {
			l := l
			change = &l
		}
	}
	require.NotNil(t, change)
	pair, ok := change.Changes.Flat()["assignedUsers"].(map[string]any)
	require.True(t, ok)
	assert.Nil(t, pair["old"])
	assert.Equal(t, []any{"Grace Hopper <grace@example.com>"}, pair["new"])
}

func TestEntryUpsertPatchesCachedList(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "CRM")
	require.NoError(t, err)
	cat, err := e.cats.Create(e.ctx, e.actor.ID, "Operations", "")
	require.NoError(t, err)
	field, err := e.fields.Create(e.ctx, e.actor.ID, "Owner", "")
	require.NoError(t, err)
	field2, err := e.fields.Create(e.ctx, e.actor.ID, "Deputy", "")
	require.NoError(t, err)

	first, _, err := e.entries.Upsert(e.ctx, e.actor.ID, app.ID, cat.ID, field.ID, []string{"ops-team"})
	require.NoError(t, err)

	// Populate the cached list, then upsert a second entry: the cached list
	// is patched, not dropped.
	cached, err := e.entries.ListByApplication(e.ctx, app.ID)
	require.NoError(t, err)
	require.Len(t, cached, 1)

	second, _, err := e.entries.Upsert(e.ctx, e.actor.ID, app.ID, cat.ID, field2.ID, []string{"platform-team"})
	require.NoError(t, err)

	patched, ok := cache.Read[[]domain.Entry](e.ctx, e.cache, cache.EntriesKey(app.ID))
	require.True(t, ok, "cached entry list should still exist after upsert")
	ids := []string{patched[0].ID, patched[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestFindReplaceExactElementsOnly(t *testing.T) {
	e := setup(t)

	appA, err := e.apps.Create(e.ctx, e.actor.ID, "App A")
	require.NoError(t, err)
	appB, err := e.apps.Create(e.ctx, e.actor.ID, "App B")
	require.NoError(t, err)
	cat, err := e.cats.Create(e.ctx, e.actor.ID, "Operations", "")
	require.NoError(t, err)

	var fieldIDs []string
	for _, name := range []string{"F1", "F2", "F3"} {
		f, err := e.fields.Create(e.ctx, e.actor.ID, name, "")
		require.NoError(t, err)
		fieldIDs = append(fieldIDs, f.ID)
	}

	_, _, err = e.entries.Upsert(e.ctx, e.actor.ID, appA.ID, cat.ID, fieldIDs[0],
		[]string{"Homer Simpson", "ops-team"})
	require.NoError(t, err)
	_, _, err = e.entries.Upsert(e.ctx, e.actor.ID, appA.ID, cat.ID, fieldIDs[1],
		[]string{"Homer Simpson"})
	require.NoError(t, err)
	// Substring occurrences must be left alone.
	_, _, err = e.entries.Upsert(e.ctx, e.actor.ID, appB.ID, cat.ID, fieldIDs[2],
		[]string{"Homer Simpson Jr", "Homer Simpson"})
	require.NoError(t, err)

	replaced, err := e.entries.FindReplace(e.ctx, e.actor.ID, "", "Homer Simpson", "Marge Simpson")
	require.NoError(t, err)
	assert.Equal(t, 3, replaced)

	entriesA, err := e.entries.ListByApplication(e.ctx, appA.ID)
	require.NoError(t, err)
	for _, entry := range entriesA {
		assert.NotContains(t, entry.AssignedUsers, "Homer Simpson")
	}

	entriesB, err := e.entries.ListByApplication(e.ctx, appB.ID)
	require.NoError(t, err)
	require.Len(t, entriesB, 1)
	assert.ElementsMatch(t, []string{"Homer Simpson Jr", "Marge Simpson"}, entriesB[0].AssignedUsers)
}

func TestFindReplaceScopedToApplication(t *testing.T) {
	e := setup(t)

	appA, err := e.apps.Create(e.ctx, e.actor.ID, "App A")
	require.NoError(t, err)
	appB, err := e.apps.Create(e.ctx, e.actor.ID, "App B")
	require.NoError(t, err)
	cat, err := e.cats.Create(e.ctx, e.actor.ID, "Operations", "")
	require.NoError(t, err)
	f, err := e.fields.Create(e.ctx, e.actor.ID, "Owner", "")
	require.NoError(t, err)

	_, _, err = e.entries.Upsert(e.ctx, e.actor.ID, appA.ID, cat.ID, f.ID, []string{"Homer Simpson"})
	require.NoError(t, err)
	_, _, err = e.entries.Upsert(e.ctx, e.actor.ID, appB.ID, cat.ID, f.ID, []string{"Homer Simpson"})
	require.NoError(t, err)

	replaced, err := e.entries.FindReplace(e.ctx, e.actor.ID, appA.ID, "Homer Simpson", "Marge Simpson")
	require.NoError(t, err)
	assert.Equal(t, 1, replaced)

	entriesB, err := e.entries.ListByApplication(e.ctx, appB.ID)
	require.NoError(t, err)
	assert.Contains(t, entriesB[0].AssignedUsers, "Homer Simpson")
}

func TestApprovalRequiresRoster(t *testing.T) {
	e := setup(t)

	app, err := e.apps.Create(e.ctx, e.actor.ID, "CRM")
	require.NoError(t, err)

	identity := domain.Identity{Email: "actor@example.com"}
	err = e.approvals.SetApproval(e.ctx, identity, e.actor.ID, app.ID, true)
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	admin := domain.Identity{Email: "actor@example.com", Groups: []string{"LACI Administrators"}}
	_, err = e.approvers.Add(e.ctx, admin, e.actor.ID, domain.ApproverUser, "Test Actor", "actor@example.com")
	require.NoError(t, err)

	require.NoError(t, e.approvals.SetApproval(e.ctx, identity, e.actor.ID, app.ID, true))

	approvals, err := e.approvals.List(e.ctx)
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	assert.Equal(t, app.ID, approvals[0].ApplicationID)

	// Revoke removes the row and audits it.
	require.NoError(t, e.approvals.SetApproval(e.ctx, identity, e.actor.ID, app.ID, false))
	_, err = e.approvals.Get(e.ctx, app.ID)
	var notFound *domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestApproverManagementIsAdminOnly(t *testing.T) {
	e := setup(t)

	user := domain.Identity{Email: "actor@example.com", Groups: []string{"Engineers"}}
	_, err := e.approvers.Add(e.ctx, user, e.actor.ID, domain.ApproverGroup, "Ops", "ops-team")
	var denied *domain.AccessDeniedError
	require.ErrorAs(t, err, &denied)

	admin := domain.Identity{Email: "actor@example.com", Groups: []string{"LACI Administrators"}}
	added, err := e.approvers.Add(e.ctx, admin, e.actor.ID, domain.ApproverGroup, "Ops", "ops-team")
	require.NoError(t, err)

	// Group membership grants approval rights.
	ok, err := e.approvers.CanApprove(e.ctx, domain.Identity{Email: "x@example.com", Groups: []string{"ops-team"}})
	require.NoError(t, err)
	assert.True(t, ok)

	// UPN matching works too.
	_, err = e.approvers.Add(e.ctx, admin, e.actor.ID, domain.ApproverUser, "Via UPN", "upn@example.com")
	require.NoError(t, err)
	ok, err = e.approvers.CanApprove(e.ctx, domain.Identity{UPN: "upn@example.com"})
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.approvers.Remove(e.ctx, admin, added.ID))
}

func TestUserLoginUpsert(t *testing.T) {
	e := setup(t)

	identity := domain.Identity{Email: "new@example.com", DisplayName: "New User"}
	first, err := e.users.Login(e.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, "New User", first.Name)

	// Second login reuses the row.
	second, err := e.users.Login(e.ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var logins int
	for _, l := range e.auditLogs(t) {
		if l.Action == domain.AuditLogin {
			logins++
			assert.Equal(t, domain.TargetSystem, l.Target)
		}
	}
	assert.Equal(t, 2, logins)

	require.NoError(t, e.users.Logout(e.ctx, identity))
	var logouts int
	for _, l := range e.auditLogs(t) {
		if l.Action == domain.AuditLogout {
			logouts++
		}
	}
	assert.Equal(t, 1, logouts)
}
