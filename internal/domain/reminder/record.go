// internal/domain/reminder/record.go
package reminder

import (
	"database/sql"
)

// Display field keys shared by all record sources and message templates.
const (
	FieldReference = "reference_no" // policy, license or certificate number
	FieldSubject   = "subject_name" // vehicle, premises or holder the record covers
	FieldAmount    = "amount"
	FieldCompany   = "company_name"
)

// Recipient is who a reminder for a record goes to.
type Recipient struct {
	Name  string
	Email string
	Phone string
}

// Record is a renewable record of some service type, as read from the back-office tables.
type Record struct {
	ID          string
	ServiceType ServiceType
	ExpiryDate  sql.NullTime  // stored expiry or policy end date
	StartDate   sql.NullTime  // for term-based records
	TermYears   sql.NullInt32 // policy paying term, in years
	Recipient   Recipient
	Fields      map[string]string
}

// Field returns a display field or "".
func (r *Record) Field(key string) string {
	if r.Fields == nil {
		return ""
	}
	return r.Fields[key]
}
