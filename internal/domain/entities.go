package domain

import "time"

// Application is a catalog entry in the responsibility matrix. Name lookups
// are case-insensitive; HitCount is bumped through the update path on view.
type Application struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Enabled      bool      `json:"enabled"`
	HitCount     int64     `json:"hitCount"`
	CreatedByID  string    `json:"createdById,omitempty"`
	ModifiedByID string    `json:"modifiedById,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Category is one axis of the responsibility matrix ("what kind of
// responsibility"). Rank is a unique integer ordering.
type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Rank        int64  `json:"order"`
	Description string `json:"description"`
}

// Field is the other axis of the matrix ("which role").
type Field struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Rank        int64  `json:"order"`
	Description string `json:"description"`
}

// Entry is a responsibility assignment at one (application, category, field)
// intersection. At most one entry exists per triple; assignee strings mix
// plain names, "Name <email>" pairs, and bare group names.
type Entry struct {
	ID            string    `json:"id"`
	ApplicationID string    `json:"applicationId"`
	CategoryID    string    `json:"categoryId"`
	FieldID       string    `json:"fieldId"`
	AssignedUsers []string  `json:"assignedUsers"`
	CreatedByID   string    `json:"createdById,omitempty"`
	ModifiedByID  string    `json:"modifiedById"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	UpdatedAt     time.Time `json:"updatedAt,omitzero"`
}

// Assignment is an entry joined with the display names the scanner resolves.
type Assignment struct {
	Entry
	ApplicationName string `json:"applicationName"`
	CategoryName    string `json:"categoryName"`
	FieldName       string `json:"fieldName"`
}

// Approval records the latest sign-off for an application. Any entry change
// for the application deletes this row — approval is a point-in-time
// statement about a specific configuration.
type Approval struct {
	ID            string    `json:"approvalId"`
	ApplicationID string    `json:"applicationId"`
	ApproverID    string    `json:"approverId"`
	ApprovedAt    time.Time `json:"approvedAt"`
}

// ApproverType discriminates directory principals granted approval rights.
type ApproverType string

const (
	ApproverUser  ApproverType = "user"
	ApproverGroup ApproverType = "group"
)

// Approver is a directory principal allowed to approve applications.
// Identifier is matched against session email/UPN/preferred-username or
// group membership.
type Approver struct {
	ID          string       `json:"id"`
	Type        ApproverType `json:"type"`
	DisplayName string       `json:"displayName"`
	Identifier  string       `json:"identifier"`
	CreatedByID string       `json:"createdById"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// User is a locally-known account, upserted on first login.
type User struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Enabled    bool      `json:"enabled"`
	FirstLogon time.Time `json:"first_logon,omitzero"`
	LastLogon  time.Time `json:"last_logon,omitzero"`
}

// Identity is the resolved caller, supplied by the external session
// mechanism. The core never sees protocol details, only this.
type Identity struct {
	Email             string
	DisplayName       string
	Groups            []string
	UPN               string
	PreferredUsername string
}

// DirectoryEntity is a user or group returned by the external directory.
type DirectoryEntity struct {
	ID                string   `json:"id"`
	DisplayName       string   `json:"displayName"`
	UserPrincipalName string   `json:"userPrincipalName,omitempty"`
	Mail              string   `json:"mail,omitempty"`
	ProxyAddresses    []string `json:"proxyAddresses,omitempty"`
}

// SearchResult is the reduced shape the directory search returns.
type SearchResult struct {
	DisplayName string  `json:"displayName"`
	Mail        *string `json:"mail"`
}
