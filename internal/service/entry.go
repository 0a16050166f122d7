package service

import (
	"context"
	"log/slog"
	"regexp"

	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

// assigneeEmailRe extracts the address from "Display Name <email>" assignee
// strings; bare names and group names carry no address to invalidate.
var assigneeEmailRe = regexp.MustCompile(`<(.+@.+)>`)

type EntryService struct {
	repo     domain.EntryRepository
	cache    *cache.Cache
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewEntryService(repo domain.EntryRepository, c *cache.Cache, rec *audit.Recorder, logger *slog.Logger) *EntryService {
	return &EntryService{repo: repo, cache: c, recorder: rec, logger: logger}
}

func (s *EntryService) ListByApplication(ctx context.Context, applicationID string) ([]domain.Entry, error) {
	return cache.ReadThrough(ctx, s.cache, cache.EntriesKey(applicationID), cache.TTLDay, false,
		func(ctx context.Context) ([]domain.Entry, error) {
			return s.repo.ListByApplication(ctx, applicationID)
		})
}

// Upsert creates or updates the entry for the (application, category, field)
// triple, audits the mutation, and performs the full invalidation fan-out:
// the approval list key, the per-assignee responsibility keys, and a
// patch-in-place of the cached entry list.
func (s *EntryService) Upsert(ctx context.Context, actorID, applicationID, categoryID, fieldID string, assignedUsers []string) (*domain.Entry, bool, error) {
	if applicationID == "" || categoryID == "" || fieldID == "" {
		return nil, false, domain.ErrValidation("applicationId, categoryId and fieldId are required")
	}
	if assignedUsers == nil {
		return nil, false, domain.ErrValidation("assignedUsers is required")
	}

	// Snapshot the prior row for the diff before the write replaces it.
	var prior *domain.Entry
	existing, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, false, err
	}
	for i := range existing {
		if existing[i].CategoryID == categoryID && existing[i].FieldID == fieldID {
			prior = &existing[i]
			break
		}
	}

	entry, created, err := s.repo.Upsert(ctx, &domain.Entry{
		ApplicationID: applicationID,
		CategoryID:    categoryID,
		FieldID:       fieldID,
		AssignedUsers: assignedUsers,
		CreatedByID:   actorID,
		ModifiedByID:  actorID,
	})
	if err != nil {
		return nil, false, err
	}

	if created {
		s.recorder.Record(ctx, actorID, domain.AuditAdd, domain.TargetEntry, entry.ID,
			domain.Added(audit.StripVolatile(audit.EntrySnapshot(entry))))
	} else {
		// A concurrent writer can insert the row between the snapshot read
		// and the upsert; prior is then nil and the change record carries
		// nil old values instead of being lost.
		var before map[string]any
		if prior != nil {
			before = audit.EntrySnapshot(prior)
		}
		changes := audit.StripVolatileChanges(audit.Diff(before, audit.EntrySnapshot(entry)))
		s.recorder.Record(ctx, actorID, domain.AuditChange, domain.TargetEntry, entry.ID,
			domain.Changed(changes))
	}

	s.cache.Invalidate(ctx, cache.KeyApprovals)
	s.patchCachedEntries(ctx, applicationID, entry)
	s.invalidateAssignees(ctx, entry.AssignedUsers)

	return entry, created, nil
}

func (s *EntryService) Delete(ctx context.Context, actorID, applicationID, entryID string) error {
	var victim *domain.Entry
	entries, err := s.repo.ListByApplication(ctx, applicationID)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].ID == entryID {
			victim = &entries[i]
			break
		}
	}
	if victim == nil {
		return domain.ErrNotFound("entry %s not found", entryID)
	}

	if err := s.repo.Delete(ctx, entryID); err != nil {
		return err
	}

	s.recorder.Record(ctx, actorID, domain.AuditDelete, domain.TargetEntry, entryID,
		domain.Removed(audit.StripVolatile(audit.EntrySnapshot(victim))))

	s.cache.Invalidate(ctx, cache.KeyApprovals)
	s.cache.Invalidate(ctx, cache.EntriesKey(applicationID))
	s.invalidateAssignees(ctx, victim.AssignedUsers)
	return nil
}

// FindReplace replaces exact assignee elements equal to find with replace,
// across one application or all of them. Substrings are never touched.
// Returns the number of entries updated.
func (s *EntryService) FindReplace(ctx context.Context, actorID string, applicationID, find, replace string) (int, error) {
	if find == "" || replace == "" {
		return 0, domain.ErrValidation("find and replace values are required")
	}

	var entries []domain.Entry
	var err error
	if applicationID != "" {
		entries, err = s.repo.ListByApplication(ctx, applicationID)
	} else {
		entries, err = s.repo.ListAll(ctx)
	}
	if err != nil {
		return 0, err
	}

	replaced := 0
	touchedApps := make(map[string]struct{})
	for i := range entries {
		entry := entries[i]
		updatedUsers := make([]string, len(entry.AssignedUsers))
		wasUpdated := false
		for j, user := range entry.AssignedUsers {
			if user == find {
				updatedUsers[j] = replace
				wasUpdated = true
			} else {
				updatedUsers[j] = user
			}
		}
		if !wasUpdated {
			continue
		}

		entry.AssignedUsers = updatedUsers
		entry.ModifiedByID = actorID
		if err := s.repo.Update(ctx, &entry); err != nil {
			return replaced, err
		}
		replaced++
		touchedApps[entry.ApplicationID] = struct{}{}
	}

	for appID := range touchedApps {
		s.cache.Invalidate(ctx, cache.EntriesKey(appID))
	}
	if replaced > 0 {
		s.cache.Invalidate(ctx, cache.KeyApprovals)
		s.invalidateAssignees(ctx, []string{find, replace})
		s.logger.Info("find-and-replace completed",
			"find", find, "replace", replace, "entries", replaced)
	}
	return replaced, nil
}

// patchCachedEntries applies update-or-append by entry id to the cached
// list. Non-atomic read-modify-write: an interleaved writer can lose an
// update, self-healing at TTL expiry.
func (s *EntryService) patchCachedEntries(ctx context.Context, applicationID string, entry *domain.Entry) {
	key := cache.EntriesKey(applicationID)
	entries, ok := cache.Read[[]domain.Entry](ctx, s.cache, key)
	if !ok {
		return
	}
	found := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i] = *entry
			found = true
		}
	}
	if !found {
		entries = append(entries, *entry)
	}
	cache.Write(ctx, s.cache, key, entries, cache.TTLDay)
}

// invalidateAssignees drops the per-user responsibility aggregate for every
// assignee string that carries an email address.
func (s *EntryService) invalidateAssignees(ctx context.Context, assignees []string) {
	for _, assignee := range assignees {
		m := assigneeEmailRe.FindStringSubmatch(assignee)
		if m == nil {
			continue
		}
		s.cache.Invalidate(ctx, cache.ResponsibilitiesKey(m[1]))
	}
}
