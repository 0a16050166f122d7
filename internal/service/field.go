package service

import (
	"context"
	"log/slog"

	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

type FieldService struct {
	repo     domain.FieldRepository
	cache    *cache.Cache
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewFieldService(repo domain.FieldRepository, c *cache.Cache, rec *audit.Recorder, logger *slog.Logger) *FieldService {
	return &FieldService{repo: repo, cache: c, recorder: rec, logger: logger}
}

func (s *FieldService) List(ctx context.Context) ([]domain.Field, error) {
	return cache.ReadThrough(ctx, s.cache, cache.KeyFields, cache.TTLWeek, false,
		func(ctx context.Context) ([]domain.Field, error) {
			return s.repo.List(ctx)
		})
}

func (s *FieldService) Get(ctx context.Context, id string) (*domain.Field, error) {
	fields, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		if fields[i].ID == id {
			return &fields[i], nil
		}
	}
	return nil, domain.ErrNotFound("field %s not found", id)
}

func (s *FieldService) Create(ctx context.Context, actorID, name, description string) (*domain.Field, error) {
	if name == "" {
		return nil, domain.ErrValidation("field name is required")
	}
	created, err := s.repo.Create(ctx, &domain.Field{Name: name, Description: description})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyFields)
	s.recorder.Record(ctx, actorID, domain.AuditAdd, domain.TargetField, created.ID,
		domain.Added(audit.FieldSnapshot(created)))
	return created, nil
}

func (s *FieldService) Update(ctx context.Context, actorID, id string, patch MatrixPatch) (*domain.Field, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	updated := *existing
	if patch.Name != nil {
		if *patch.Name == "" {
			return nil, domain.ErrValidation("field name is required")
		}
		updated.Name = *patch.Name
	}
	if patch.Rank != nil {
		if *patch.Rank < 0 {
			return nil, domain.ErrValidation("field order must not be negative")
		}
		updated.Rank = *patch.Rank
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}

	if err := s.repo.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyFields)

	changes := audit.StripVolatileChanges(audit.Diff(
		audit.FieldSnapshot(existing), audit.FieldSnapshot(&updated)))
	s.recorder.Record(ctx, actorID, domain.AuditChange, domain.TargetField, id,
		domain.Changed(changes))

	return &updated, nil
}
