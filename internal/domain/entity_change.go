package domain

import "time"

// ChangedEntity names the kind of record a manual edit touched.
type ChangedEntity string

const (
	ChangedEntityTicket ChangedEntity = "TICKET"
	ChangedEntityAgent  ChangedEntity = "AGENT"
)

// ChangedField names an editable field.
type ChangedField string

const (
	FieldSummary     ChangedField = "SUMMARY"
	FieldDescription ChangedField = "DESCRIPTION"
	FieldPriority    ChangedField = "PRIORITY"
	FieldFirstName   ChangedField = "FIRSTNAME"
	FieldLastName    ChangedField = "LASTNAME"
)

// EntityChange is an immutable audit trail entry for a manual field edit.
type EntityChange struct {
	ID          string
	Entity      ChangedEntity
	EntityID    string
	Field       ChangedField
	OldValue    string
	NewValue    string
	ChangedByID string
	ChangedAt   time.Time
}
