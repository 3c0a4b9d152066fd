package schedule

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
)

type memScheduleRepo struct {
	entries []Entry
	nextID  int64
}

func (m *memScheduleRepo) FindEntries(_ context.Context, destinationID int64, dayOfWeek string) ([]bustime.Entry, error) {
	var result []bustime.Entry
	for _, e := range m.entries {
		if e.DestinationID == destinationID && e.DayOfWeek == dayOfWeek {
			result = append(result, bustime.Entry{Departure: e.DepartureTime, PickupLocation: e.DepartureLocation})
		}
	}
	return result, nil
}

func (m *memScheduleRepo) List(_ context.Context, destinationID int64, dayOfWeek string) ([]Entry, error) {
	var result []Entry
	for _, e := range m.entries {
		if destinationID != 0 && e.DestinationID != destinationID {
			continue
		}
		if dayOfWeek != "" && e.DayOfWeek != dayOfWeek {
			continue
		}
		result = append(result, e)
	}
	return result, nil
}

func (m *memScheduleRepo) Create(_ context.Context, e Entry) (*Entry, error) {
	m.nextID++
	e.ID = m.nextID
	m.entries = append(m.entries, e)
	return &e, nil
}

func (m *memScheduleRepo) Upsert(_ context.Context, e Entry) error {
	for i := range m.entries {
		if m.entries[i].DestinationID == e.DestinationID &&
			m.entries[i].DayOfWeek == e.DayOfWeek &&
			m.entries[i].DepartureTime == e.DepartureTime {
			m.entries[i].DepartureLocation = e.DepartureLocation
			return nil
		}
	}
	_, err := m.Create(context.Background(), e)
	return err
}

func (m *memScheduleRepo) Delete(_ context.Context, id int64) error {
	for i := range m.entries {
		if m.entries[i].ID == id {
			m.entries = append(m.entries[:i], m.entries[i+1:]...)
			return nil
		}
	}
	return ErrEntryNotFound
}

type staticHospitals map[int64]bool

func (s staticHospitals) HospitalExists(_ context.Context, id int64) (bool, error) {
	return s[id], nil
}

func TestImportCSV(t *testing.T) {
	input := strings.Join([]string{
		"destination_id,day_of_week,departure_time,departure_location",
		"1,Monday,07:00,Main entrance",
		"1,Monday,07:30,Main entrance",
		"1,Funday,08:00,Main entrance",   // unknown weekday
		"x,Monday,08:00,Main entrance",   // bad id
		"1,Monday,nope,Main entrance",    // bad time
		"9,Monday,08:00,Main entrance",   // unknown hospital
		"1,Monday",                       // truncated row
		"1,Tuesday,07:00,South entrance", // valid again
	}, "\n")

	repo := &memScheduleRepo{}
	res, err := ImportCSV(context.Background(), strings.NewReader(input), repo, staticHospitals{1: true})
	require.NoError(t, err)

	assert.Equal(t, 3, res.Imported)
	assert.Equal(t, 5, res.Skipped)
	require.Len(t, repo.entries, 3)
	assert.Equal(t, "Tuesday", repo.entries[2].DayOfWeek)
	assert.Equal(t, "07:00", repo.entries[2].DepartureTime.String())
}

func TestImportCSVUpsertsExistingRows(t *testing.T) {
	repo := &memScheduleRepo{}
	hospitals := staticHospitals{1: true}

	first := "destination_id,day_of_week,departure_time,departure_location\n1,Monday,07:00,Main entrance\n"
	_, err := ImportCSV(context.Background(), strings.NewReader(first), repo, hospitals)
	require.NoError(t, err)

	second := "destination_id,day_of_week,departure_time,departure_location\n1,Monday,07:00,Side entrance\n"
	res, err := ImportCSV(context.Background(), strings.NewReader(second), repo, hospitals)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Imported)
	require.Len(t, repo.entries, 1)
	assert.Equal(t, "Side entrance", repo.entries[0].DepartureLocation)
}

func TestExportCSVRoundTrips(t *testing.T) {
	repo := &memScheduleRepo{}
	hospitals := staticHospitals{1: true}

	input := strings.Join([]string{
		"destination_id,day_of_week,departure_time,departure_location",
		"1,Monday,07:00,Main entrance",
		"1,Wednesday,08:30,Main entrance",
	}, "\n")
	_, err := ImportCSV(context.Background(), strings.NewReader(input), repo, hospitals)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(context.Background(), &buf, repo))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "destination_id,day_of_week,departure_time,departure_location", lines[0])
	assert.Equal(t, "1,Monday,07:00,Main entrance", lines[1])
	assert.Equal(t, "1,Wednesday,08:30,Main entrance", lines[2])
}

func TestValidDayOfWeek(t *testing.T) {
	assert.True(t, ValidDayOfWeek("Monday"))
	assert.True(t, ValidDayOfWeek("Sunday"))
	assert.False(t, ValidDayOfWeek("monday"))
	assert.False(t, ValidDayOfWeek(""))
	assert.False(t, ValidDayOfWeek("Funday"))
}
