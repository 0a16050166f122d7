package service

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

// auditWindow is the cached audit payload: the raw logs plus how many days
// back they cover, so narrower requests filter locally and wider ones fetch
// only the missing gap.
type auditWindow struct {
	LastDays int               `json:"lastDays"`
	Logs     []domain.AuditLog `json:"logs"`
}

type AuditService struct {
	repo         domain.AuditRepository
	users        *UserService
	applications *ApplicationService
	categories   *CategoryService
	fields       *FieldService
	cache        *cache.Cache
	logger       *slog.Logger
}

func NewAuditService(repo domain.AuditRepository, users *UserService, applications *ApplicationService, categories *CategoryService, fields *FieldService, c *cache.Cache, logger *slog.Logger) *AuditService {
	return &AuditService{
		repo:         repo,
		users:        users,
		applications: applications,
		categories:   categories,
		fields:       fields,
		cache:        c,
		logger:       logger,
	}
}

// Logs returns the audit trail for the last lastDays days, newest first,
// with actor and target display names resolved at read time.
func (s *AuditService) Logs(ctx context.Context, lastDays int) ([]domain.AuditRecord, error) {
	if lastDays <= 0 {
		lastDays = 30
	}

	logs, err := s.window(ctx, lastDays)
	if err != nil {
		return nil, err
	}
	return s.resolveNames(ctx, logs)
}

func (s *AuditService) window(ctx context.Context, lastDays int) ([]domain.AuditLog, error) {
	window, err := cache.ReadThrough(ctx, s.cache, cache.KeyAuditLogs, cache.TTLHour, false,
		func(ctx context.Context) (auditWindow, error) {
			logs, err := s.repo.List(ctx, domain.AuditFilter{Days: lastDays})
			if err != nil {
				return auditWindow{}, err
			}
			return auditWindow{LastDays: lastDays, Logs: logs}, nil
		})
	if err != nil {
		return nil, err
	}

	if lastDays <= window.LastDays {
		cutoff := time.Now().UTC().AddDate(0, 0, -lastDays)
		filtered := make([]domain.AuditLog, 0, len(window.Logs))
		for _, l := range window.Logs {
			if !l.Timestamp.Before(cutoff) {
				filtered = append(filtered, l)
			}
		}
		return filtered, nil
	}

	// Widen: fetch only the gap older than the cached window and re-cache
	// the union under the larger day count.
	before := time.Now().UTC()
	if n := len(window.Logs); n > 0 {
		before = window.Logs[n-1].Timestamp
	}
	gap, err := s.repo.List(ctx, domain.AuditFilter{Days: lastDays, Before: before})
	if err != nil {
		return nil, err
	}

	union := append(window.Logs, gap...)
	cache.Write(ctx, s.cache, cache.KeyAuditLogs,
		auditWindow{LastDays: lastDays, Logs: union}, cache.TTLHour)
	return union, nil
}

func (s *AuditService) resolveNames(ctx context.Context, logs []domain.AuditLog) ([]domain.AuditRecord, error) {
	var (
		users []domain.User
		apps  []domain.Application
		cats  []domain.Category
		flds  []domain.Field
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { users, err = s.users.List(gctx); return })
	g.Go(func() (err error) { apps, err = s.applications.List(gctx, true); return })
	g.Go(func() (err error) { cats, err = s.categories.List(gctx); return })
	g.Go(func() (err error) { flds, err = s.fields.List(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	userNames := make(map[string]string, len(users))
	for _, u := range users {
		userNames[u.ID] = u.Name
	}
	targetNames := map[domain.AuditTarget]map[string]string{
		domain.TargetApplication: make(map[string]string, len(apps)),
		domain.TargetCategory:    make(map[string]string, len(cats)),
		domain.TargetField:       make(map[string]string, len(flds)),
	}
	for _, a := range apps {
		targetNames[domain.TargetApplication][a.ID] = a.Name
	}
	for _, c := range cats {
		targetNames[domain.TargetCategory][c.ID] = c.Name
	}
	for _, f := range flds {
		targetNames[domain.TargetField][f.ID] = f.Name
	}

	records := make([]domain.AuditRecord, 0, len(logs))
	for _, l := range logs {
		rec := domain.AuditRecord{AuditLog: l}
		rec.ActorName = userNames[l.Actor]
		if rec.ActorName == "" {
			rec.ActorName = "Unknown"
		}
		rec.TargetName = targetName(l, targetNames)
		records = append(records, rec)
	}
	return records, nil
}

func targetName(l domain.AuditLog, names map[domain.AuditTarget]map[string]string) string {
	if l.TargetID == "" {
		return "Unknown"
	}
	if byID, ok := names[l.Target]; ok {
		if name, ok := byID[l.TargetID]; ok {
			return name
		}
	}
	return l.TargetID
}
