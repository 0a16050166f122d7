package service

import (
	"context"
	"errors"
	"log/slog"

	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

type UserService struct {
	repo     domain.UserRepository
	cache    *cache.Cache
	recorder *audit.Recorder
	logger   *slog.Logger
}

func NewUserService(repo domain.UserRepository, c *cache.Cache, rec *audit.Recorder, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, cache: c, recorder: rec, logger: logger}
}

func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	return cache.ReadThrough(ctx, s.cache, cache.KeyUsers, cache.TTLWeek, false,
		func(ctx context.Context) ([]domain.User, error) {
			return s.repo.List(ctx)
		})
}

func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	return cache.ReadThrough(ctx, s.cache, cache.UserKey(id), cache.TTLWeek, false,
		func(ctx context.Context) (*domain.User, error) {
			return s.repo.Get(ctx, id)
		})
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// Login upserts the local account for a signed-in identity: unknown emails
// get a row on first sight, known ones a last_logon touch. Either way a
// login audit record is written.
func (s *UserService) Login(ctx context.Context, identity domain.Identity) (*domain.User, error) {
	if identity.Email == "" {
		return nil, domain.ErrUnauthenticated("signed-in identity carries no email")
	}

	user, err := s.repo.GetByEmail(ctx, identity.Email)
	if err != nil {
		var notFound *domain.NotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		name := identity.DisplayName
		if name == "" {
			name = "Unknown"
		}
		user, err = s.repo.Create(ctx, name, identity.Email)
		if err != nil {
			return nil, err
		}
		s.cache.Invalidate(ctx, cache.KeyUsers)
	}

	if err := s.repo.TouchLastLogon(ctx, user.ID); err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.UserKey(user.ID))

	s.recorder.Record(ctx, user.ID, domain.AuditLogin, domain.TargetSystem, user.ID,
		domain.Added(map[string]any{"user": identity.Email, "loggedIn": true}))

	return user, nil
}

// Logout only audits; there is no server-side session state to tear down.
func (s *UserService) Logout(ctx context.Context, identity domain.Identity) error {
	user, err := s.repo.GetByEmail(ctx, identity.Email)
	if err != nil {
		return err
	}
	s.recorder.Record(ctx, user.ID, domain.AuditLogout, domain.TargetSystem, user.ID,
		domain.Added(map[string]any{"user": identity.Email, "loggedIn": false}))
	return nil
}
