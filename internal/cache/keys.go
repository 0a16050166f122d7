package cache

import "fmt"

// Cache keys are plain strings namespaced by convention: an entity's plural
// name for a list, "entity:id" for a single record, and
// "user:<email>:responsibilities" for the per-user aggregate. Callers own
// knowing every key a mutation affects; invalidation is per-key only.
const (
	KeyApplications = "applications"
	KeyCategories   = "categories"
	KeyFields       = "fields"
	KeyUsers        = "users"
	KeyApprovers    = "approvers"
	KeyApprovals    = "application_approvals"
	KeyAuditLogs    = "audit_logs"

	KeyDirectoryUsers  = "directory_users"
	KeyDirectoryGroups = "directory_groups"
)

// EntriesKey is the per-application entry list key.
func EntriesKey(applicationID string) string {
	return fmt.Sprintf("entries:%s", applicationID)
}

// UserKey is the single-user record key.
func UserKey(id string) string {
	return fmt.Sprintf("user:%s", id)
}

// ResponsibilitiesKey is the per-user cached scan result key.
func ResponsibilitiesKey(email string) string {
	return fmt.Sprintf("user:%s:responsibilities", email)
}
