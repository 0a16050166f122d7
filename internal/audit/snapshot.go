package audit

import "laci-tracker/internal/domain"

// Snapshot functions project entities to the flat maps the diff engine and
// the "add"/"delete" payloads work on. Keys match the JSON field names the
// API exposes, so audit payloads read the same as the entities themselves.

func ApplicationSnapshot(a *domain.Application) map[string]any {
	return map[string]any{
		"name":         a.Name,
		"enabled":      a.Enabled,
		"hitCount":     a.HitCount,
		"createdById":  a.CreatedByID,
		"modifiedById": a.ModifiedByID,
	}
}

func CategorySnapshot(c *domain.Category) map[string]any {
	return map[string]any{
		"name":        c.Name,
		"order":       c.Rank,
		"description": c.Description,
	}
}

func FieldSnapshot(f *domain.Field) map[string]any {
	return map[string]any{
		"name":        f.Name,
		"order":       f.Rank,
		"description": f.Description,
	}
}

func EntrySnapshot(e *domain.Entry) map[string]any {
	return map[string]any{
		"applicationId": e.ApplicationID,
		"categoryId":    e.CategoryID,
		"fieldId":       e.FieldID,
		"assignedUsers": assigneeList(e.AssignedUsers),
		"createdById":   e.CreatedByID,
		"modifiedById":  e.ModifiedByID,
	}
}

// assigneeList converts to []any so reflect.DeepEqual comparisons behave
// the same before and after a JSON round trip.
func assigneeList(users []string) []any {
	out := make([]any, len(users))
	for i, u := range users {
		out[i] = u
	}
	return out
}
