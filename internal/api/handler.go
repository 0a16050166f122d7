// Package api exposes the tracker's services over HTTP. Handlers translate
// between wire shapes and service calls; all policy lives in the services.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"laci-tracker/internal/directory"
	"laci-tracker/internal/domain"
	"laci-tracker/internal/middleware"
	"laci-tracker/internal/service"
)

type Handler struct {
	applications *service.ApplicationService
	categories   *service.CategoryService
	fields       *service.FieldService
	entries      *service.EntryService
	approvals    *service.ApprovalService
	approvers    *service.ApproverService
	users        *service.UserService
	audit        *service.AuditService
	scanner      *service.Scanner
	// directory is nil when no directory backend is configured.
	directory *directory.Service
	cacheCtl  CacheController
	logger    *slog.Logger
}

// CacheController is the slice of the cache the admin endpoints touch.
type CacheController interface {
	Invalidate(ctx context.Context, key string)
}

type Services struct {
	Applications *service.ApplicationService
	Categories   *service.CategoryService
	Fields       *service.FieldService
	Entries      *service.EntryService
	Approvals    *service.ApprovalService
	Approvers    *service.ApproverService
	Users        *service.UserService
	Audit        *service.AuditService
	Scanner      *service.Scanner
	Directory    *directory.Service
}

func NewHandler(svc Services, cacheCtl CacheController, logger *slog.Logger) *Handler {
	return &Handler{
		applications: svc.Applications,
		categories:   svc.Categories,
		fields:       svc.Fields,
		entries:      svc.Entries,
		approvals:    svc.Approvals,
		approvers:    svc.Approvers,
		users:        svc.Users,
		audit:        svc.Audit,
		scanner:      svc.Scanner,
		directory:    svc.Directory,
		cacheCtl:     cacheCtl,
		logger:       logger,
	}
}

// Routes returns the authenticated /v1 API surface. Health endpoints are
// mounted separately, outside the authenticator.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/applications", func(r chi.Router) {
		r.Get("/", h.listApplications)
		r.Post("/", h.createApplication)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getApplication)
			r.Put("/", h.updateApplication)
			r.Delete("/", h.deleteApplication)
			r.Post("/hit", h.recordApplicationHit)
			r.Post("/approval", h.setApproval)
			r.Get("/entries", h.listEntries)
			r.Post("/entries", h.upsertEntry)
			r.Delete("/entries/{entryID}", h.deleteEntry)
		})
		r.Get("/name/{name}", h.getApplicationByName)
		r.Put("/name/{name}", h.updateApplicationByName)
	})

	r.Get("/approvals", h.listApprovals)

	r.Route("/categories", func(r chi.Router) {
		r.Get("/", h.listCategories)
		r.Post("/", h.createCategory)
		r.Put("/{id}", h.updateCategory)
	})
	r.Route("/fields", func(r chi.Router) {
		r.Get("/", h.listFields)
		r.Post("/", h.createField)
		r.Put("/{id}", h.updateField)
	})

	r.Post("/find-replace", h.findReplace)

	r.Route("/approvers", func(r chi.Router) {
		r.Get("/", h.listApprovers)
		r.Post("/", h.addApprover)
		r.Delete("/{id}", h.removeApprover)
	})

	r.Get("/audit", h.listAudit)

	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Post("/auth/login", h.login)
	r.Post("/auth/logout", h.logout)

	r.Route("/directory", func(r chi.Router) {
		r.Get("/users", h.directoryUsers)
		r.Get("/groups", h.directoryGroups)
		r.Get("/search", h.directorySearch)
	})

	r.Get("/my-responsibilities", h.myResponsibilities)

	r.Post("/cache/clear", h.clearCache)

	return r
}

// identity returns the authenticated caller, which the authenticator
// guarantees is present on every /v1 request.
func (h *Handler) identity(r *http.Request) (domain.Identity, error) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		return domain.Identity{}, domain.ErrUnauthenticated("no authenticated identity")
	}
	return id, nil
}

// actor resolves the caller's local user row. Callers that have never hit
// the login endpoint have no row and cannot mutate.
func (h *Handler) actor(r *http.Request) (*domain.User, error) {
	identity, err := h.identity(r)
	if err != nil {
		return nil, err
	}
	user, err := h.users.GetByEmail(r.Context(), identity.Email)
	if err != nil {
		var notFound *domain.NotFoundError
		if errors.As(err, &notFound) {
			return nil, domain.ErrUnauthenticated("no local account; call /v1/auth/login first")
		}
		return nil, err
	}
	return user, nil
}
