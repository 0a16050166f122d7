package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"laci-tracker/internal/domain"
)

func TestDiffIdenticalSnapshotsIsEmpty(t *testing.T) {
	snap := map[string]any{
		"name":          "CRM",
		"enabled":       true,
		"assignedUsers": []any{"a", "b"},
	}
	assert.Empty(t, Diff(snap, snap))
}

func TestDiffReportsOnlyChangedKeys(t *testing.T) {
	prev := map[string]any{"name": "CRM", "enabled": true, "hitCount": int64(3)}
	next := map[string]any{"name": "CRM v2", "enabled": true, "hitCount": int64(3)}

	diff := Diff(prev, next)
	assert.Len(t, diff, 1)
	assert.Equal(t, domain.Change{Old: "CRM", New: "CRM v2"}, diff["name"])
}

func TestDiffSliceValuesCompareByContent(t *testing.T) {
	prev := map[string]any{"assignedUsers": []any{"a", "b"}}
	same := map[string]any{"assignedUsers": []any{"a", "b"}}
	changed := map[string]any{"assignedUsers": []any{"a", "c"}}

	assert.Empty(t, Diff(prev, same))
	diff := Diff(prev, changed)
	assert.Len(t, diff, 1)
	assert.Equal(t, []any{"a", "c"}, diff["assignedUsers"].New)
}

func TestDiffNewKeyHasNilOld(t *testing.T) {
	diff := Diff(map[string]any{}, map[string]any{"description": "added later"})
	assert.Equal(t, domain.Change{Old: nil, New: "added later"}, diff["description"])
}

func TestStripVolatile(t *testing.T) {
	stripped := StripVolatile(map[string]any{
		"name":         "CRM",
		"modifiedBy":   "someone",
		"modifiedById": "u1",
		"createdById":  "u1",
		"createdAt":    "2026-01-01",
		"updatedAt":    "2026-01-02",
	})
	assert.Equal(t, map[string]any{"name": "CRM"}, stripped)
}

func TestStripVolatileChanges(t *testing.T) {
	stripped := StripVolatileChanges(map[string]domain.Change{
		"name":         {Old: "a", New: "b"},
		"modifiedById": {Old: "u1", New: "u2"},
		"updatedAt":    {Old: "t1", New: "t2"},
	})
	assert.Len(t, stripped, 1)
	assert.Contains(t, stripped, "name")
}

func TestEntrySnapshotDiffAfterAssigneeSwap(t *testing.T) {
	before := &domain.Entry{
		ApplicationID: "app", CategoryID: "cat", FieldID: "f",
		AssignedUsers: []string{"Ada <ada@example.com>"},
		ModifiedByID:  "u1",
	}
	after := &domain.Entry{
		ApplicationID: "app", CategoryID: "cat", FieldID: "f",
		AssignedUsers: []string{"Grace <grace@example.com>"},
		ModifiedByID:  "u2",
	}

	diff := StripVolatileChanges(Diff(EntrySnapshot(before), EntrySnapshot(after)))
	assert.Len(t, diff, 1, "only the assignee change is audit-worthy")
	assert.Contains(t, diff, "assignedUsers")
}
