package domain

import (
	"encoding/json"
	"time"
)

// AuditAction enumerates the kinds of recorded actions.
type AuditAction string

const (
	AuditAdd    AuditAction = "add"
	AuditChange AuditAction = "change"
	AuditDelete AuditAction = "delete"
	AuditLogin  AuditAction = "login"
	AuditLogout AuditAction = "logout"
)

// AuditTarget enumerates the kinds of entities an audit record points at.
type AuditTarget string

const (
	TargetApplication AuditTarget = "application"
	TargetCategory    AuditTarget = "category"
	TargetField       AuditTarget = "field"
	TargetEntry       AuditTarget = "entry"
	TargetSystem      AuditTarget = "system"
)

// Change is an old/new pair for one field of a "change" record.
type Change struct {
	Old any `json:"old"`
	New any `json:"new"`
}

// ChangeSet is the changes payload of an audit record. The wire shape
// differs by kind: "add" and "delete" records carry a flat field→value map,
// "change" records carry field→{old,new} pairs. The tagged union keeps the
// two meanings apart in code while serializing to the original shapes.
type ChangeSet struct {
	flat    map[string]any
	changed map[string]Change
}

// Added builds a ChangeSet carrying the flat snapshot of a created entity.
func Added(values map[string]any) ChangeSet {
	return ChangeSet{flat: values}
}

// Removed builds a ChangeSet carrying the flat snapshot of a deleted entity.
// Same wire shape as Added; the record's action disambiguates.
func Removed(values map[string]any) ChangeSet {
	return ChangeSet{flat: values}
}

// Changed builds a ChangeSet of field-level old/new pairs.
func Changed(changes map[string]Change) ChangeSet {
	return ChangeSet{changed: changes}
}

// Empty reports whether the set carries no changes at all. Empty sets must
// never be written to the audit log.
func (c ChangeSet) Empty() bool {
	return len(c.flat) == 0 && len(c.changed) == 0
}

// Flat returns the flat payload of an Added/Removed set, or nil.
func (c ChangeSet) Flat() map[string]any { return c.flat }

// Pairs returns the old/new payload of a Changed set, or nil.
func (c ChangeSet) Pairs() map[string]Change { return c.changed }

func (c ChangeSet) MarshalJSON() ([]byte, error) {
	if c.changed != nil {
		return json.Marshal(c.changed)
	}
	if c.flat != nil {
		return json.Marshal(c.flat)
	}
	return []byte("null"), nil
}

func (c *ChangeSet) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ChangeSet{}
		return nil
	}
	// Stored payloads are read back untyped; pair-shaped values stay inside
	// the flat map, which is fine for display purposes.
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.flat = m
	c.changed = nil
	return nil
}

// AuditLog is one append-only audit record.
type AuditLog struct {
	ID        string      `json:"id"`
	Actor     string      `json:"actor"`
	Action    AuditAction `json:"action"`
	Target    AuditTarget `json:"target"`
	TargetID  string      `json:"targetId"`
	Changes   ChangeSet   `json:"changes"`
	Timestamp time.Time   `json:"timestamp"`
}

// AuditRecord is the export shape: an AuditLog with display names resolved
// at read time. Names are never stored denormalized.
type AuditRecord struct {
	AuditLog
	ActorName  string `json:"actor_name"`
	TargetName string `json:"target_name"`
}
