package service

import (
	"context"
	"log/slog"

	"laci-tracker/internal/audit"
	"laci-tracker/internal/cache"
	"laci-tracker/internal/domain"
)

type ApprovalService struct {
	repo      domain.ApprovalRepository
	approvers *ApproverService
	cache     *cache.Cache
	recorder  *audit.Recorder
	logger    *slog.Logger
}

func NewApprovalService(repo domain.ApprovalRepository, approvers *ApproverService, c *cache.Cache, rec *audit.Recorder, logger *slog.Logger) *ApprovalService {
	return &ApprovalService{repo: repo, approvers: approvers, cache: c, recorder: rec, logger: logger}
}

func (s *ApprovalService) List(ctx context.Context) ([]domain.Approval, error) {
	return cache.ReadThrough(ctx, s.cache, cache.KeyApprovals, cache.TTLDay, false,
		func(ctx context.Context) ([]domain.Approval, error) {
			return s.repo.List(ctx)
		})
}

func (s *ApprovalService) Get(ctx context.Context, applicationID string) (*domain.Approval, error) {
	return s.repo.Get(ctx, applicationID)
}

// SetApproval approves or revokes the application's sign-off. Only roster
// approvers may call it. The approve path writes its audit record inside
// the approval transaction; revoke audits through the recorder.
func (s *ApprovalService) SetApproval(ctx context.Context, identity domain.Identity, actorID, applicationID string, approve bool) error {
	allowed, err := s.approvers.CanApprove(ctx, identity)
	if err != nil {
		return err
	}
	if !allowed {
		return domain.ErrAccessDenied("user is not an approver")
	}

	s.cache.Invalidate(ctx, cache.KeyApprovals)

	if approve {
		return s.repo.Approve(ctx, applicationID, actorID)
	}

	if err := s.repo.Revoke(ctx, applicationID); err != nil {
		return err
	}
	s.recorder.Record(ctx, actorID, domain.AuditChange, domain.TargetApplication, applicationID,
		domain.Added(map[string]any{"approval": "revoked"}))
	return nil
}
