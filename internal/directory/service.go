package directory

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

// Service fronts the directory client with the cache. Directory data is
// expensive to fetch and changes slowly, so it gets the long TTL plus a
// proactive background refresh when the remaining TTL drops under the
// threshold. Refresh failures never surface to the request that noticed
// the low TTL.
type Service struct {
	client domain.DirectoryClient
	cache  *cache.Cache
	logger *slog.Logger
}

func NewService(client domain.DirectoryClient, c *cache.Cache, logger *slog.Logger) *Service {
	return &Service{client: client, cache: c, logger: logger}
}

// Users returns the cached user list, refreshing it in the background when
// it is close to expiry. force bypasses the cache and rewrites it.
func (s *Service) Users(ctx context.Context, force bool) ([]domain.DirectoryEntity, error) {
	return s.cached(ctx, cache.KeyDirectoryUsers, force, s.client.Users)
}

// Groups is Users for groups.
func (s *Service) Groups(ctx context.Context, force bool) ([]domain.DirectoryEntity, error) {
	return s.cached(ctx, cache.KeyDirectoryGroups, force, s.client.Groups)
}

// Both fetches users and groups concurrently, the way the search and
// scanner paths consume them.
func (s *Service) Both(ctx context.Context) (users, groups []domain.DirectoryEntity, err error) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		users, err = s.Users(gctx, false)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = s.Groups(gctx, false)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return users, groups, nil
}

// Search returns the ranked matches for query across users and groups.
func (s *Service) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	users, groups, err := s.Both(ctx)
	if err != nil {
		return nil, err
	}
	return search(append(users, groups...), query), nil
}

func (s *Service) cached(ctx context.Context, key string, force bool, loader func(context.Context) ([]domain.DirectoryEntity, error)) ([]domain.DirectoryEntity, error) {
	if force {
		fresh, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		cache.Write(ctx, s.cache, key, fresh, cache.TTLWeek)
		return fresh, nil
	}

	entities, err := cache.ReadThrough(ctx, s.cache, key, cache.TTLWeek, false, loader)
	if err != nil {
		return nil, err
	}

	if ttl, ok := s.cache.RemainingTTL(ctx, key); ok && ttl < cache.RefreshThreshold {
		s.logger.Info("directory cache near expiry, refreshing in background", "key", key, "ttl", ttl)
		go s.refresh(key, loader)
	}

	return entities, nil
}

// refresh repopulates one key off the request path. It gets its own
// context: the triggering request may be long gone before the fetch ends.
func (s *Service) refresh(key string, loader func(context.Context) ([]domain.DirectoryEntity, error)) {
	ctx := context.Background()
	fresh, err := loader(ctx)
	if err != nil {
		s.logger.Error("background directory refresh failed", "key", key, "error", err)
		return
	}
	cache.Write(ctx, s.cache, key, fresh, cache.TTLWeek)
	s.logger.Info("background directory refresh completed", "key", key)
}
