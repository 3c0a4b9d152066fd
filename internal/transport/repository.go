package transport

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrHospitalNotFound      = errors.New("hospital not found")
	ErrAccommodationNotFound = errors.New("accommodation not found")
	ErrPatientNotFound       = errors.New("patient not found")
	ErrAppointmentNotFound   = errors.New("appointment not found")
)

// Repository contains all DB interactions needed by the service.
type Repository interface {
	GetHospitalByID(ctx context.Context, id int64) (*Hospital, error)
	ListHospitals(ctx context.Context) ([]Hospital, error)
	CreateHospital(ctx context.Context, h Hospital) (*Hospital, error)
	HospitalExists(ctx context.Context, id int64) (bool, error)

	GetAccommodationByID(ctx context.Context, id int64) (*Accommodation, error)
	ListAccommodations(ctx context.Context) ([]Accommodation, error)
	CreateAccommodation(ctx context.Context, a Accommodation) (*Accommodation, error)

	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListPatients(ctx context.Context) ([]Patient, error)
	CreatePatient(ctx context.Context, p Patient) (*Patient, error)

	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error)
	UpdateAppointment(ctx context.Context, a Appointment) (*Appointment, error)
	DeleteAppointment(ctx context.Context, id uuid.UUID) error

	// Reporting reads. Ranges are inclusive on both dates.
	ListAppointmentsByDate(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error)
	ListFutureAppointments(ctx context.Context, from time.Time) ([]AppointmentDetail, error)
	ListTranslatorAppointments(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error)
	FindAppointmentsByPatient(ctx context.Context, name, room, accommodation string, from time.Time) ([]AppointmentDetail, error)

	ToggleAppointmentStatus(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ToggleAppointmentTaxi(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// Cleanup worker. Appointments cascade with their patient.
	DeletePatientsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)

	// Event logging
	InsertEvent(ctx context.Context, ev EventLog) error
}
