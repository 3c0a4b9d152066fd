// Package bustime decides whether a hospital appointment can be served by a
// scheduled shuttle departure, and if so which one. The rule only applies to
// one partner accommodation and a fixed set of partner hospitals; everyone
// else arranges their own transport.
package bustime

import (
	"context"
	"fmt"
	"time"
)

// DefaultSlack is the travel buffer required between a shuttle departure and
// the appointment itself.
const DefaultSlack = 30 * time.Minute

// Entry is one recurring weekly departure, as exposed by the schedule store.
type Entry struct {
	Departure      TimeOfDay
	PickupLocation string
}

// Finder is the read-only query the resolver needs from the schedule store.
type Finder interface {
	FindEntries(ctx context.Context, scheduleGroupID int64, dayOfWeek string) ([]Entry, error)
}

// Rules carries the deployment-specific business data behind the resolution
// rule. The eligible set and the alias table have both changed over the
// system's history, so they are configuration rather than literals.
type Rules struct {
	// EligibleHospitals lists hospital ids for which shuttle assignment
	// applies at all.
	EligibleHospitals []int64
	// ScheduleAliases maps a hospital id to the id whose timetable it
	// shares. Hospitals not present map to themselves.
	ScheduleAliases map[int64]int64
	// AccommodationName is the exact name of the one accommodation whose
	// residents ride the shuttle.
	AccommodationName string
	// Slack is the minimum buffer between departure and appointment.
	// Zero means DefaultSlack.
	Slack time.Duration
}

func (r Rules) slack() time.Duration {
	if r.Slack <= 0 {
		return DefaultSlack
	}
	return r.Slack
}

func (r Rules) eligible(hospitalID int64) bool {
	for _, id := range r.EligibleHospitals {
		if id == hospitalID {
			return true
		}
	}
	return false
}

// ScheduleGroup resolves the timetable a hospital's departures live under.
func (r Rules) ScheduleGroup(hospitalID int64) int64 {
	if primary, ok := r.ScheduleAliases[hospitalID]; ok {
		return primary
	}
	return hospitalID
}

// Input identifies one appointment. Zero-valued fields count as absent.
type Input struct {
	HospitalID    int64
	Accommodation string
	Date          time.Time
	Time          *TimeOfDay
}

// Resolver picks shuttle departures for appointments. It is stateless and
// safe for concurrent use.
type Resolver struct {
	finder Finder
	rules  Rules
}

func NewResolver(finder Finder, rules Rules) *Resolver {
	return &Resolver{finder: finder, rules: rules}
}

// Resolve returns the latest scheduled departure that still leaves the
// required slack before the appointment, or nil when no shuttle fits.
// A nil result is a normal outcome (the patient needs a taxi instead);
// only a failing schedule lookup returns an error.
func (r *Resolver) Resolve(ctx context.Context, in Input) (*TimeOfDay, error) {
	if in.HospitalID == 0 || in.Accommodation == "" || in.Date.IsZero() || in.Time == nil {
		return nil, nil
	}
	if !r.rules.eligible(in.HospitalID) || in.Accommodation != r.rules.AccommodationName {
		return nil, nil
	}

	groupID := r.rules.ScheduleGroup(in.HospitalID)

	// time.Weekday.String is always the English name, independent of any
	// host locale. Timetable rows store the same names.
	dayOfWeek := in.Date.Weekday().String()

	entries, err := r.finder.FindEntries(ctx, groupID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("find schedule entries: %w", err)
	}

	latestDeparture := in.Time.Add(-r.rules.slack())

	var chosen *Entry
	for i := range entries {
		e := &entries[i]
		if e.Departure.After(latestDeparture) {
			continue
		}
		if chosen == nil || e.Departure.After(chosen.Departure) {
			chosen = e
		}
	}
	if chosen == nil {
		return nil, nil
	}

	departure := chosen.Departure
	return &departure, nil
}
