package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
)

type Hospital struct {
	ID        int64
	Name      string
	Address   string
	ImagePath string
}

type Accommodation struct {
	ID   int64
	Name string
}

type Patient struct {
	ID                     uuid.UUID
	Name                   string
	LastName               string
	DateOfBirth            *time.Time
	Room                   string
	PhoneNo                *string
	DefaultAccommodationID *int64
	CreatedAt              time.Time
}

// Appointment is one hospital visit for one patient. The two bus-time
// fields implement the manual-override precedence: staff may pin a manual
// departure, while the computed one tracks the current timetable.
type Appointment struct {
	ID              uuid.UUID
	PatientID       uuid.UUID
	HospitalID      int64
	AccommodationID *int64
	AppointmentDate time.Time
	AppointmentTime bustime.TimeOfDay

	BusTimeManual   *bustime.TimeOfDay
	BusTimeComputed *bustime.TimeOfDay

	Translator bool
	HasTaxi    bool
	Wheelchair bool
	Trolley    bool
	Companion  bool

	Department        *string
	Description       string
	DepartureLocation *string
	Status            bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EffectiveBusTime is the value operations act on: the manual override when
// set, the computed one otherwise.
func (a *Appointment) EffectiveBusTime() *bustime.TimeOfDay {
	if a.BusTimeManual != nil {
		return a.BusTimeManual
	}
	return a.BusTimeComputed
}

// NeedsTaxi reports whether no shuttle serves this appointment, which is
// what flags the patient for alternate transport in reporting.
func (a *Appointment) NeedsTaxi() bool {
	return a.EffectiveBusTime() == nil
}

type AppointmentDetail struct {
	Appointment
	Patient       *Patient
	Hospital      *Hospital
	Accommodation *Accommodation
}

type EventLog struct {
	ID            int64
	EventType     string
	AppointmentID *uuid.UUID
	Payload       []byte
	CreatedAt     time.Time
}
