package service

import (
	"context"
	"log/slog"
	"slices"

	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

type ApproverService struct {
	repo        domain.ApproverRepository
	cache       *cache.Cache
	adminGroups []string
	logger      *slog.Logger
}

func NewApproverService(repo domain.ApproverRepository, c *cache.Cache, adminGroups []string, logger *slog.Logger) *ApproverService {
	return &ApproverService{repo: repo, cache: c, adminGroups: adminGroups, logger: logger}
}

func (s *ApproverService) List(ctx context.Context) ([]domain.Approver, error) {
	return cache.ReadThrough(ctx, s.cache, cache.KeyApprovers, cache.TTLDay, false,
		func(ctx context.Context) ([]domain.Approver, error) {
			return s.repo.List(ctx)
		})
}

// Add grants approval rights to a directory principal. Admin only.
func (s *ApproverService) Add(ctx context.Context, identity domain.Identity, actorID string, typ domain.ApproverType, displayName, identifier string) (*domain.Approver, error) {
	if !s.IsAdmin(identity) {
		return nil, domain.ErrAccessDenied("only administrators manage approvers")
	}
	if typ != domain.ApproverUser && typ != domain.ApproverGroup {
		return nil, domain.ErrValidation("approver type must be user or group")
	}
	if displayName == "" || identifier == "" {
		return nil, domain.ErrValidation("displayName and identifier are required")
	}

	added, err := s.repo.Add(ctx, &domain.Approver{
		Type:        typ,
		DisplayName: displayName,
		Identifier:  identifier,
		CreatedByID: actorID,
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx, cache.KeyApprovers)
	return added, nil
}

func (s *ApproverService) Remove(ctx context.Context, identity domain.Identity, id string) error {
	if !s.IsAdmin(identity) {
		return domain.ErrAccessDenied("only administrators manage approvers")
	}
	if err := s.repo.Remove(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, cache.KeyApprovers)
	return nil
}

// IsAdmin reports whether the identity belongs to any configured admin
// group.
func (s *ApproverService) IsAdmin(identity domain.Identity) bool {
	for _, g := range identity.Groups {
		if slices.Contains(s.adminGroups, g) {
			return true
		}
	}
	return false
}

// CanApprove matches the identity's email, UPN, preferred username, and
// group memberships against the approver roster identifiers.
func (s *ApproverService) CanApprove(ctx context.Context, identity domain.Identity) (bool, error) {
	approvers, err := s.List(ctx)
	if err != nil {
		return false, err
	}

	identifiers := make([]string, 0, len(approvers))
	for _, a := range approvers {
		identifiers = append(identifiers, a.Identifier)
	}

	for _, candidate := range []string{identity.Email, identity.UPN, identity.PreferredUsername} {
		if candidate != "" && slices.Contains(identifiers, candidate) {
			return true, nil
		}
	}
	for _, group := range identity.Groups {
		if slices.Contains(identifiers, group) {
			return true, nil
		}
	}
	return false, nil
}
