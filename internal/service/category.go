package service

import (
	"context"
	"log/slog"

	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

// MatrixPatch is a partial update for a category or field. Rank moves are
// permitted; rank collisions surface as conflicts from the store.
type MatrixPatch struct {
	Name        *string
	Rank        *int64
	Description *string
}

type CategoryService struct {
	repo     domain.CategoryRepository
	cache    *cache.Cache
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewCategoryService(repo domain.CategoryRepository, c *cache.Cache, rec *audit.Recorder, logger *slog.Logger) *CategoryService {
	return &CategoryService{repo: repo, cache: c, recorder: rec, logger: logger}
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return cache.ReadThrough(ctx, s.cache, cache.KeyCategories, cache.TTLWeek, false,
		func(ctx context.Context) ([]domain.Category, error) {
			return s.repo.List(ctx)
		})
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	cats, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range cats {
		if cats[i].ID == id {
			return &cats[i], nil
		}
	}
	return nil, domain.ErrNotFound("category %s not found", id)
}

func (s *CategoryService) Create(ctx context.Context, actorID, name, description string) (*domain.Category, error) {
	if name == "" {
		return nil, domain.ErrValidation("category name is required")
	}
	created, err := s.repo.Create(ctx, &domain.Category{Name: name, Description: description})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyCategories)
	s.recorder.Record(ctx, actorID, domain.AuditAdd, domain.TargetCategory, created.ID,
		domain.Added(audit.CategorySnapshot(created)))
	return created, nil
}

func (s *CategoryService) Update(ctx context.Context, actorID, id string, patch MatrixPatch) (*domain.Category, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, domain.ErrValidation("category name is required")
		}
		updated.Name = *patch.Name
	}
	if patch.Rank != nil {
		if *patch.Rank < 0 {
			return nil, domain.ErrValidation("category order must not be negative")
		}
		updated.Rank = *patch.Rank
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyCategories)

	changes := audit.StripVolatileChanges(audit.Diff(
		audit.CategorySnapshot(existing), audit.CategorySnapshot(&updated)))
	s.recorder.Record(ctx, actorID, domain.AuditChange, domain.TargetCategory, id,
		domain.Changed(changes))

	return &updated, nil
}
