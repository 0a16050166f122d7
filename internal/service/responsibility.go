package service

import (
	"context"
	"log/slog"
	"strings"

	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

// Scanner walks every application's entries looking for responsibilities
// assigned to one user, emitting typed progress events as it goes. The
// event sequence is a producer/consumer stream: consumers read
// incrementally because each application costs a cache-or-fetch round trip.
type Scanner struct {
	applications *ApplicationService
	categories   *CategoryService
	fields       *FieldService
	entries      domain.EntryRepository
	cache        *cache.Cache
	logger       *slog.Logger
}

func NewScanner(applications *ApplicationService, categories *CategoryService, fields *FieldService, entries domain.EntryRepository, c *cache.Cache, logger *slog.Logger) *Scanner {
	return &Scanner{
		applications: applications,
		categories:   categories,
		fields:       fields,
		entries:      entries,
		cache:        c,
		logger:       logger,
	}
}

// Scan produces the event stream for the identity's responsibilities. The
// channel is always closed, with a terminal done or error event; internal
// failures never escape as errors. The only hard error is a missing email.
//
// Cancellation is cooperative: the context is checked between applications,
// so a consumer that stops reading wastes at most one application's worth
// of work.
func (s *Scanner) Scan(ctx context.Context, identity domain.Identity, showDisabled bool) (<-chan domain.StreamEvent, error) {
	if identity.Email == "" {
		return nil, domain.ErrValidation("user email is required")
	}

	out := make(chan domain.StreamEvent)
	go func() {
		defer close(out)
		s.run(ctx, identity, showDisabled, out)
	}()
	return out, nil
}

func (s *Scanner) run(ctx context.Context, identity domain.Identity, showDisabled bool, out chan<- domain.StreamEvent) {
	key := cache.ResponsibilitiesKey(identity.Email)

	// A cached sequence replays verbatim instead of re-scanning.
	if cached, ok := cache.Read[[]domain.StreamEvent](ctx, s.cache, key); ok && len(cached) > 0 {
		s.logger.Info("replaying cached responsibilities", "email", identity.Email)
		for _, ev := range cached {
			if !emit(ctx, out, ev) {
				return
			}
		}
		return
	}

	apps, err := s.applications.List(ctx, showDisabled)
	if err != nil {
		s.logger.Error("responsibility scan failed to list applications", "error", err)
		emit(ctx, out, domain.ErrorEvent("Internal Server Error"))
		return
	}
	if len(apps) == 0 {
		emit(ctx, out, domain.ErrorEvent("No applications found"))
		return
	}

	categories, err := s.categories.List(ctx)
	if err == nil && len(categories) == 0 {
		err = domain.ErrNotFound("no categories defined")
	}
	var fields []domain.Field
	if err == nil {
		fields, err = s.fields.List(ctx)
		if err == nil && len(fields) == 0 {
			err = domain.ErrNotFound("no fields defined")
		}
	}
	if err != nil {
		s.logger.Error("responsibility scan failed to fetch categories or fields", "error", err)
		emit(ctx, out, domain.ErrorEvent("Failed to fetch categories or fields"))
		return
	}

	categoryNames := make(map[string]string, len(categories))
	for _, c := range categories {
		categoryNames[c.ID] = c.Name
	}
	fieldNames := make(map[string]string, len(fields))
	for _, f := range fields {
		fieldNames[f.ID] = f.Name
	}

	var batches [][]domain.Assignment
	total := 0
	processed := 0

	for _, app := range apps {
		select {
		case <-ctx.Done():
			s.logger.Info("responsibility scan cancelled", "email", identity.Email, "processed", processed)
			return
		default:
		}

		entries, err := cache.ReadThrough(ctx, s.cache, cache.EntriesKey(app.ID), cache.TTLHour, false,
			func(ctx context.Context) ([]domain.Entry, error) {
				return s.entries.ListByApplication(ctx, app.ID)
			})
		if err != nil {
			s.logger.Error("responsibility scan failed to fetch entries",
				"application", app.ID, "error", err)
			emit(ctx, out, domain.ErrorEvent("Internal Server Error"))
			return
		}

		var matched []domain.Assignment
		for _, entry := range entries {
			if !assignedTo(entry, identity) {
				continue
			}
			matched = append(matched, domain.Assignment{
				Entry:           entry,
				ApplicationName: app.Name,
				CategoryName:    categoryNames[entry.CategoryID],
				FieldName:       fieldNames[entry.FieldID],
			})
		}

		total += len(matched)
		processed++
		if len(matched) > 0 {
			batches = append(batches, matched)
		}
	}

	if !emit(ctx, out, domain.TotalEvent(total)) {
		return
	}
	if !emit(ctx, out, domain.ProgressEvent(processed)) {
		return
	}

	// Cache the replayable tail: the assignment batches plus the terminal
	// done marker, exactly as they are about to be emitted.
	sequence := make([]domain.StreamEvent, 0, len(batches)+1)
	for _, batch := range batches {
		sequence = append(sequence, domain.AssignmentsEvent(batch))
	}
	sequence = append(sequence, domain.DoneEvent())
	cache.Write(ctx, s.cache, key, sequence, cache.TTLHour)

	for _, ev := range sequence {
		if !emit(ctx, out, ev) {
			return
		}
	}
}

// assignedTo applies the substring matching rule: any assignee string that
// case-insensitively contains the caller's email, display name, or one of
// their group names counts as a match. Assignee strings mix plain names,
// "Name <email>" pairs, and bare group names, so structured parsing would
// lose matches.
func assignedTo(entry domain.Entry, identity domain.Identity) bool {
	email := strings.ToLower(identity.Email)
	name := strings.ToLower(identity.DisplayName)

	for _, assignee := range entry.AssignedUsers {
		a := strings.ToLower(assignee)
		if email != "" && strings.Contains(a, email) {
			return true
		}
		if name != "" && strings.Contains(a, name) {
			return true
		}
		for _, group := range identity.Groups {
			if group != "" && strings.Contains(a, strings.ToLower(group)) {
				return true
			}
		}
	}
	return false
}

// emit sends one event, abandoning the scan when the consumer is gone.
func emit(ctx context.Context, out chan<- domain.StreamEvent, ev domain.StreamEvent) bool {
	select {
	case out <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
