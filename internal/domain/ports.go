package domain

import (
	"context"
	"time"
)

// ApplicationRepository persists applications. Implemented by
// repository.ApplicationRepo.
type ApplicationRepository interface {
	Get(ctx context.Context, id string) (*Application, error)
	GetByName(ctx context.Context, name string) (*Application, error)
	List(ctx context.Context) ([]Application, error)
	Create(ctx context.Context, app *Application) (*Application, error)
	Update(ctx context.Context, app *Application) error
	// Delete removes the application, its entries, and its approval in one
	// transaction.
	Delete(ctx context.Context, id string) error
}

// CategoryRepository persists matrix categories.
type CategoryRepository interface {
	Get(ctx context.Context, id string) (*Category, error)
	List(ctx context.Context) ([]Category, error)
	// Create assigns the next rank (max+1) inside the insert transaction.
	Create(ctx context.Context, c *Category) (*Category, error)
	Update(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
}

// FieldRepository persists matrix fields.
type FieldRepository interface {
	Get(ctx context.Context, id string) (*Field, error)
	List(ctx context.Context) ([]Field, error)
	Create(ctx context.Context, f *Field) (*Field, error)
	Update(ctx context.Context, f *Field) error
	Delete(ctx context.Context, id string) error
}

// EntryRepository persists responsibility entries. Every write deletes the
// owning application's approval inside the same transaction.
type EntryRepository interface {
	ListAll(ctx context.Context) ([]Entry, error)
	ListByApplication(ctx context.Context, applicationID string) ([]Entry, error)
	// Upsert creates the entry, or updates in place when a row for the
	// (application, category, field) triple already exists. Reports whether
	// a new row was created.
	Upsert(ctx context.Context, e *Entry) (entry *Entry, created bool, err error)
	Update(ctx context.Context, e *Entry) error
	Delete(ctx context.Context, id string) error
	DeleteByApplication(ctx context.Context, applicationID string) error
}

// ApprovalRepository persists per-application sign-offs.
type ApprovalRepository interface {
	Get(ctx context.Context, applicationID string) (*Approval, error)
	List(ctx context.Context) ([]Approval, error)
	// Approve upserts the approval row and writes the matching audit record
	// in one transaction.
	Approve(ctx context.Context, applicationID, approverID string) error
	Revoke(ctx context.Context, applicationID string) error
}

// ApproverRepository persists directory principals with approval rights.
type ApproverRepository interface {
	List(ctx context.Context) ([]Approver, error)
	Add(ctx context.Context, a *Approver) (*Approver, error)
	Remove(ctx context.Context, id string) error
	IsApprover(ctx context.Context, identifier string) (bool, error)
}

// UserRepository persists locally-known accounts.
type UserRepository interface {
	Get(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context) ([]User, error)
	Create(ctx context.Context, name, email string) (*User, error)
	TouchLastLogon(ctx context.Context, id string) error
}

// AuditFilter narrows an audit listing. Zero values mean "no filter".
type AuditFilter struct {
	// Days bounds the window to records newer than now-Days.
	Days int
	// Before excludes records at or after the given instant; combined with
	// Days it selects the older gap when a cached window is widened.
	Before time.Time
	Action *AuditAction
	Target *AuditTarget
}

// AuditRepository appends and reads immutable audit records. Insert never
// updates or deletes existing rows.
type AuditRepository interface {
	Insert(ctx context.Context, log *AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]AuditLog, error)
}

// DirectoryClient fetches users and groups from the external directory.
// Implemented by directory.GraphClient.
type DirectoryClient interface {
	Users(ctx context.Context) ([]DirectoryEntity, error)
	Groups(ctx context.Context) ([]DirectoryEntity, error)
}
