// Package service implements the business operations over the repositories,
// carrying the cache and audit choreography every mutation requires.
package service

import (
	"context"
	"log/slog"
	"strings"

	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

// ApplicationPatch is a partial update; nil fields are left untouched.
type ApplicationPatch struct {
	Name    *string
	Enabled *bool
}

type ApplicationService struct {
	repo     domain.ApplicationRepository
	cache    *cache.Cache
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewApplicationService(repo domain.ApplicationRepository, c *cache.Cache, rec *audit.Recorder, logger *slog.Logger) *ApplicationService {
	return &ApplicationService{repo: repo, cache: c, recorder: rec, logger: logger}
}

// List returns all applications through the cache. Disabled applications are
// filtered out unless showDisabled is set; the cache always holds the full
// list so both views share one key.
func (s *ApplicationService) List(ctx context.Context, showDisabled bool) ([]domain.Application, error) {
	apps, err := s.listCached(ctx)
	if err != nil {
		return nil, err
	}
	if showDisabled {
		return apps, nil
	}
	enabled := make([]domain.Application, 0, len(apps))
	for _, a := range apps {
		if a.Enabled {
			enabled = append(enabled, a)
		}
	}
	return enabled, nil
}

// Get resolves an application by id from the cached list.
func (s *ApplicationService) Get(ctx context.Context, id string) (*domain.Application, error) {
	apps, err := s.listCached(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if apps[i].ID == id {
			return &apps[i], nil
		}
	}
	return nil, domain.ErrNotFound("application %s not found", id)
}

// GetByName resolves an application by URL-ish name: hyphens become spaces
// and matching is case-insensitive.
func (s *ApplicationService) GetByName(ctx context.Context, name string) (*domain.Application, error) {
	clean := CleanName(name)
	apps, err := s.listCached(ctx)
	if err != nil {
		return nil, err
	}
	for i := range apps {
		if strings.EqualFold(apps[i].Name, clean) {
			return &apps[i], nil
		}
	}
	return nil, domain.ErrNotFound("application %q not found", clean)
}

func (s *ApplicationService) Create(ctx context.Context, actorID, name string) (*domain.Application, error) {
	if name == "" {
		return nil, domain.ErrValidation("application name is required")
	}

	created, err := s.repo.Create(ctx, &domain.Application{
		Name:         name,
		Enabled:      true,
		CreatedByID:  actorID,
		ModifiedByID: actorID,
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, cache.KeyApplications)

	s.recorder.Record(ctx, actorID, domain.AuditAdd, domain.TargetApplication, created.ID,
		domain.Added(audit.StripVolatile(audit.ApplicationSnapshot(created))))

	return created, nil
}

// Update applies a patch through the by-id path: the list cache is
// invalidated so the next read repopulates from the store.
func (s *ApplicationService) Update(ctx context.Context, actorID, id string, patch ApplicationPatch) (*domain.Application, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.applyPatch(ctx, actorID, existing, patch)
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyApplications)
	return updated, nil
}

// UpdateByName is the by-name path. It patches the cached list in place
// instead of invalidating it; concurrent writers to the list key can race,
// which is accepted because the list self-heals on TTL expiry.
func (s *ApplicationService) UpdateByName(ctx context.Context, actorID, name string, patch ApplicationPatch) (*domain.Application, error) {
	existing, err := s.repo.GetByName(ctx, CleanName(name))
	if err != nil {
		return nil, err
	}
	updated, err := s.applyPatch(ctx, actorID, existing, patch)
	if err != nil {
		return nil, err
	}
	s.patchCachedList(ctx, func(apps []domain.Application) []domain.Application {
		for i := range apps {
			if apps[i].ID == updated.ID {
				apps[i] = *updated
			}
		}
		return apps
	})
	return updated, nil
}

// RecordHit bumps the monotonic view counter. Hit count changes go through
// the normal update path but are volatile-adjacent: no audit record.
func (s *ApplicationService) RecordHit(ctx context.Context, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	existing.HitCount++
	if err := s.repo.Update(ctx, existing); err != nil {
		return err
	}
	s.patchCachedList(ctx, func(apps []domain.Application) []domain.Application {
		for i := range apps {
			if apps[i].ID == id {
				apps[i].HitCount = existing.HitCount
			}
		}
		return apps
	})
	return nil
}

// Delete removes the application, its entries, and its approval, then
// removes it from the cached list and drops its entry-list key.
func (s *ApplicationService) Delete(ctx context.Context, actorID, id string) error {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.patchCachedList(ctx, func(apps []domain.Application) []domain.Application {
		kept := apps[:0]
		for _, a := range apps {
			if a.ID != id {
				kept = append(kept, a)
			}
		}
		return kept
	})
	s.cache.Invalidate(ctx, cache.EntriesKey(id))
	s.cache.Invalidate(ctx, cache.KeyApprovals)

	s.recorder.Record(ctx, actorID, domain.AuditDelete, domain.TargetApplication, id,
		domain.Removed(audit.StripVolatile(audit.ApplicationSnapshot(existing))))

	return nil
}

func (s *ApplicationService) applyPatch(ctx context.Context, actorID string, existing *domain.Application, patch ApplicationPatch) (*domain.Application, error) {
	updated := *existing
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, domain.ErrValidation("application name is required")
		}
		updated.Name = *patch.Name
	}
	if patch.Enabled != nil {
		updated.Enabled = *patch.Enabled
	}
	updated.ModifiedByID = actorID

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}

	changes := audit.StripVolatileChanges(audit.Diff(
		audit.ApplicationSnapshot(existing), audit.ApplicationSnapshot(&updated)))
	s.recorder.Record(ctx, actorID, domain.AuditChange, domain.TargetApplication, existing.ID,
		domain.Changed(changes))

	return &updated, nil
}

func (s *ApplicationService) listCached(ctx context.Context) ([]domain.Application, error) {
	return cache.ReadThrough(ctx, s.cache, cache.KeyApplications, cache.TTLDay, false,
		func(ctx context.Context) ([]domain.Application, error) {
			return s.repo.List(ctx)
		})
}

// patchCachedList applies fn to the cached application list if present.
// Read-modify-write without locking: last writer wins, bounded by TTL.
func (s *ApplicationService) patchCachedList(ctx context.Context, fn func([]domain.Application) []domain.Application) {
	apps, ok := cache.Read[[]domain.Application](ctx, s.cache, cache.KeyApplications)
	if !ok {
		return
	}
	cache.Write(ctx, s.cache, cache.KeyApplications, fn(apps), cache.TTLDay)
}

// CleanName normalizes a URL path segment into an application name:
// hyphens read as spaces.
func CleanName(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, "-", " "))
}
