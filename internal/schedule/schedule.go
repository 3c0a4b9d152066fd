// Package schedule stores the recurring weekly shuttle timetable. The data
// is read-mostly reference data, maintained through the admin endpoints and
// the CSV import/export tool.
package schedule

import (
	"context"
	"errors"
	"time"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
)

var ErrEntryNotFound = errors.New("schedule entry not found")

// Entry is one recurring weekly departure towards a destination hospital.
type Entry struct {
	ID                int64
	DestinationID     int64
	DayOfWeek         string // English weekday name, e.g. "Monday"
	DepartureTime     bustime.TimeOfDay
	DepartureLocation string
	CreatedAt         time.Time
}

// Repository contains all DB interactions for timetable entries.
type Repository interface {
	// FindEntries satisfies bustime.Finder.
	FindEntries(ctx context.Context, destinationID int64, dayOfWeek string) ([]bustime.Entry, error)

	List(ctx context.Context, destinationID int64, dayOfWeek string) ([]Entry, error)
	Create(ctx context.Context, e Entry) (*Entry, error)
	// Upsert creates or updates an entry keyed by destination, day and
	// departure time. Used by the CSV importer.
	Upsert(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id int64) error
}

// ValidDayOfWeek reports whether s is one of the seven English weekday
// names the resolver matches against.
func ValidDayOfWeek(s string) bool {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s == d.String() {
			return true
		}
	}
	return false
}
