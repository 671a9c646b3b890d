// internal/domain/reminder/expiry.go
package reminder

import (
	"fmt"
	"time"
)

// ExpiryResolver produces the canonical expiry date of a record.
// It returns ErrUnresolvedExpiry when the record lacks the data to do so.
type ExpiryResolver interface {
	ResolveExpiry(r *Record) (time.Time, error)
}

// StoredExpiry uses the expiry date stored on the record unchanged.
type StoredExpiry struct{}

func (StoredExpiry) ResolveExpiry(r *Record) (time.Time, error) {
	if !r.ExpiryDate.Valid {
		return time.Time{}, fmt.Errorf("record %s has no expiry date: %w", r.ID, ErrUnresolvedExpiry)
	}
	return r.ExpiryDate.Time, nil
}

// TermExpiry is for records that run a whole number of years from a start date,
// such as life policies (end = start + ppt years). A stored end date wins;
// otherwise the end date is recomputed here and never written back.
type TermExpiry struct{}

func (TermExpiry) ResolveExpiry(r *Record) (time.Time, error) {
	if r.ExpiryDate.Valid {
		return r.ExpiryDate.Time, nil
	}
	if !r.StartDate.Valid || !r.TermYears.Valid || r.TermYears.Int32 <= 0 {
		return time.Time{}, fmt.Errorf("record %s has no start date or term: %w", r.ID, ErrUnresolvedExpiry)
	}
	return r.StartDate.Time.AddDate(int(r.TermYears.Int32), 0, 0), nil
}

// Expiry is a resolved expiry date as seen from a reference date.
type Expiry struct {
	Date      time.Time
	DaysUntil int // zero on the expiry day, negative once expired
}

func (e Expiry) Expired() bool { return e.DaysUntil < 0 }

// ComputeExpiry resolves the expiry of r and counts the days left as of reference.
func ComputeExpiry(resolver ExpiryResolver, r *Record, reference time.Time) (Expiry, error) {
	date, err := resolver.ResolveExpiry(r)
	if err != nil {
		return Expiry{}, err
	}
	return Expiry{Date: date, DaysUntil: DaysUntil(date, reference)}, nil
}

// DaysUntil counts calendar days from reference to expiry. Each side is read
// as a calendar date in its own location, so DATE columns decoded as UTC compare
// correctly against a local reference date.
func DaysUntil(expiry, reference time.Time) int {
	e := CalendarDate(expiry)
	r := CalendarDate(reference)
	return int(e.Sub(r).Hours() / 24)
}

// CalendarDate returns t's calendar date as midnight UTC.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
