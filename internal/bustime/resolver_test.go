package bustime

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type finderCall struct {
	groupID   int64
	dayOfWeek string
}

type fakeFinder struct {
	entries map[string][]Entry
	calls   []finderCall
	err     error
}

func key(groupID int64, day string) string {
	return fmt.Sprintf("%d/%s", groupID, day)
}

func (f *fakeFinder) add(groupID int64, day string, departure string, location string) {
	t, err := ParseTimeOfDay(departure)
	if err != nil {
		panic(err)
	}
	if f.entries == nil {
		f.entries = make(map[string][]Entry)
	}
	f.entries[key(groupID, day)] = append(f.entries[key(groupID, day)], Entry{
		Departure:      t,
		PickupLocation: location,
	})
}

func (f *fakeFinder) FindEntries(ctx context.Context, groupID int64, dayOfWeek string) ([]Entry, error) {
	f.calls = append(f.calls, finderCall{groupID: groupID, dayOfWeek: dayOfWeek})
	if f.err != nil {
		return nil, f.err
	}
	return f.entries[key(groupID, dayOfWeek)], nil
}

func testRules() Rules {
	return Rules{
		EligibleHospitals: []int64{1, 3, 7, 10},
		ScheduleAliases:   map[int64]int64{3: 1, 7: 1, 10: 1},
		AccommodationName: "Det grønlandske Patienthjem",
	}
}

func tod(s string) *TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return &t
}

var (
	// 2026-09-02 is a Wednesday, 2026-09-07 a Monday.
	wednesday = time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)
	monday    = time.Date(2026, 9, 7, 0, 0, 0, 0, time.UTC)
)

func TestResolveGuards(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "07:30", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	tests := []struct {
		name string
		in   Input
	}{
		{
			name: "ineligible hospital",
			in:   Input{HospitalID: 2, Accommodation: "Det grønlandske Patienthjem", Date: wednesday, Time: tod("08:25")},
		},
		{
			name: "wrong accommodation",
			in:   Input{HospitalID: 1, Accommodation: "Hotel Hans Egede", Date: wednesday, Time: tod("08:25")},
		},
		{
			name: "missing hospital",
			in:   Input{Accommodation: "Det grønlandske Patienthjem", Date: wednesday, Time: tod("08:25")},
		},
		{
			name: "missing accommodation",
			in:   Input{HospitalID: 1, Date: wednesday, Time: tod("08:25")},
		},
		{
			name: "missing date",
			in:   Input{HospitalID: 1, Accommodation: "Det grønlandske Patienthjem", Time: tod("08:25")},
		},
		{
			name: "missing time",
			in:   Input{HospitalID: 1, Accommodation: "Det grønlandske Patienthjem", Date: wednesday},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Resolve(context.Background(), tt.in)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}

	// None of the guarded inputs should ever hit the schedule store.
	assert.Empty(t, finder.calls)
}

func TestResolveAliasing(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "07:30", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	got, err := r.Resolve(context.Background(), Input{
		HospitalID:    3,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("08:25"),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "07:30", got.String())

	require.Len(t, finder.calls, 1)
	assert.Equal(t, int64(1), finder.calls[0].groupID, "aliased hospital must query the primary's timetable")
}

func TestResolveSlackSelection(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "07:00", "Hovedindgangen")
	finder.add(1, "Wednesday", "07:30", "Hovedindgangen")
	finder.add(1, "Wednesday", "08:00", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	// 08:25 minus 30 minutes is 07:55; 07:30 is the latest departure
	// that still makes it.
	got, err := r.Resolve(context.Background(), Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("08:25"),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "07:30", got.String())
}

func TestResolveBoundaryIsInclusive(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "08:00", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	// An 08:30 appointment leaves exactly 30 minutes for the 08:00 bus.
	got, err := r.Resolve(context.Background(), Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("08:30"),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "08:00", got.String())
}

func TestResolveNoFit(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "09:00", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	got, err := r.Resolve(context.Background(), Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("09:10"),
	})
	require.NoError(t, err)
	assert.Nil(t, got, "09:00 misses the 08:40 boundary")
}

func TestResolveDayOfWeek(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "07:30", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	got, err := r.Resolve(context.Background(), Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          monday,
		Time:          tod("08:25"),
	})
	require.NoError(t, err)
	assert.Nil(t, got, "a Monday appointment must not match Wednesday departures")

	require.Len(t, finder.calls, 1)
	assert.Equal(t, "Monday", finder.calls[0].dayOfWeek)
}

func TestResolveIdempotent(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "07:00", "Hovedindgangen")
	finder.add(1, "Wednesday", "07:30", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	in := Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("08:25"),
	}

	first, err := r.Resolve(context.Background(), in)
	require.NoError(t, err)
	second, err := r.Resolve(context.Background(), in)
	require.NoError(t, err)

	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestResolveEqualDeparturesPicksOne(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "07:30", "Hovedindgangen")
	finder.add(1, "Wednesday", "07:30", "P-pladsen")
	r := NewResolver(finder, testRules())

	got, err := r.Resolve(context.Background(), Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("08:25"),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "07:30", got.String())
}

func TestResolveEarlyMorningWrapsThroughMidnight(t *testing.T) {
	finder := &fakeFinder{}
	finder.add(1, "Wednesday", "23:00", "Hovedindgangen")
	r := NewResolver(finder, testRules())

	// 00:10 minus 30 minutes wraps to a 23:40 boundary on the same
	// day's timetable, so the late 23:00 departure qualifies.
	got, err := r.Resolve(context.Background(), Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("00:10"),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "23:00", got.String())
}

func TestResolveFinderError(t *testing.T) {
	finder := &fakeFinder{err: errors.New("connection refused")}
	r := NewResolver(finder, testRules())

	_, err := r.Resolve(context.Background(), Input{
		HospitalID:    1,
		Accommodation: "Det grønlandske Patienthjem",
		Date:          wednesday,
		Time:          tod("08:25"),
	})
	require.Error(t, err)
}

func TestScheduleGroupIdentityFallback(t *testing.T) {
	rules := testRules()
	assert.Equal(t, int64(1), rules.ScheduleGroup(1))
	assert.Equal(t, int64(1), rules.ScheduleGroup(3))
	assert.Equal(t, int64(1), rules.ScheduleGroup(10))
	assert.Equal(t, int64(5), rules.ScheduleGroup(5))
}
