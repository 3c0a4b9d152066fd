package api

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
	"github.com/patienthjem/bus-scheduling/internal/transport"
)

type HospitalRequest struct {
	Name      string `json:"name"`
	Address   string `json:"address"`
	ImagePath string `json:"image_path"`
}

type HospitalResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Address   string `json:"address"`
	ImagePath string `json:"image_path"`
}

type AccommodationRequest struct {
	Name string `json:"name"`
}

type AccommodationResponse struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ScheduleRequest struct {
	DestinationID     int64  `json:"destination_id"`
	DayOfWeek         string `json:"day_of_week"`
	DepartureTime     string `json:"departure_time"`
	DepartureLocation string `json:"departure_location"`
}

type ScheduleResponse struct {
	ID                int64  `json:"id"`
	DestinationID     int64  `json:"destination_id"`
	DayOfWeek         string `json:"day_of_week"`
	DepartureTime     string `json:"departure_time"`
	DepartureLocation string `json:"departure_location"`
}

type PatientRequest struct {
	Name                   string  `json:"name"`
	LastName               string  `json:"last_name"`
	DateOfBirth            *string `json:"date_of_birth,omitempty"`
	Room                   string  `json:"room"`
	PhoneNo                *string `json:"phone_no,omitempty"`
	DefaultAccommodationID *int64  `json:"default_accommodation_id,omitempty"`
}

type PatientResponse struct {
	ID                     uuid.UUID `json:"id"`
	Name                   string    `json:"name"`
	LastName               string    `json:"last_name"`
	DateOfBirth            *string   `json:"date_of_birth,omitempty"`
	Room                   string    `json:"room"`
	PhoneNo                *string   `json:"phone_no,omitempty"`
	DefaultAccommodationID *int64    `json:"default_accommodation_id,omitempty"`
}

// OptionalTime distinguishes an absent field from an explicit null or empty
// string, which the manual bus-time clear flow depends on.
type OptionalTime struct {
	Set   bool
	Value *bustime.TimeOfDay
}

func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		o.Value = nil
		return nil
	}
	t, err := bustime.ParseTimeOfDay(*s)
	if err != nil {
		return err
	}
	o.Value = &t
	return nil
}

type CreateAppointmentRequest struct {
	PatientID       string `json:"patient_id"`
	HospitalID      int64  `json:"hospital_id"`
	AccommodationID *int64 `json:"accommodation_id,omitempty"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
	BusTimeManual   string `json:"bus_time_manual,omitempty"`

	Translator bool `json:"translator"`
	HasTaxi    bool `json:"has_taxi"`
	Wheelchair bool `json:"wheelchair"`
	Trolley    bool `json:"trolley"`
	Companion  bool `json:"companion"`

	Department        *string `json:"department,omitempty"`
	Description       string  `json:"description"`
	DepartureLocation *string `json:"departure_location,omitempty"`
}

type UpdateAppointmentRequest struct {
	HospitalID      *int64       `json:"hospital_id,omitempty"`
	AccommodationID *int64       `json:"accommodation_id,omitempty"`
	AppointmentDate *string      `json:"appointment_date,omitempty"`
	AppointmentTime *string      `json:"appointment_time,omitempty"`
	BusTimeManual   OptionalTime `json:"bus_time_manual"`

	Translator *bool `json:"translator,omitempty"`
	HasTaxi    *bool `json:"has_taxi,omitempty"`
	Wheelchair *bool `json:"wheelchair,omitempty"`
	Trolley    *bool `json:"trolley,omitempty"`
	Companion  *bool `json:"companion,omitempty"`

	Department        *string `json:"department,omitempty"`
	Description       *string `json:"description,omitempty"`
	DepartureLocation *string `json:"departure_location,omitempty"`
	Status            *bool   `json:"status,omitempty"`
}

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	PatientID       uuid.UUID `json:"patient_id"`
	HospitalID      int64     `json:"hospital_id"`
	AccommodationID *int64    `json:"accommodation_id,omitempty"`
	AppointmentDate string    `json:"appointment_date"`
	AppointmentTime string    `json:"appointment_time"`

	BusTimeManual    *string `json:"bus_time_manual"`
	BusTimeComputed  *string `json:"bus_time_computed"`
	BusTimeEffective *string `json:"bus_time_effective"`
	NeedsTaxi        bool    `json:"needs_taxi"`

	Translator bool `json:"translator"`
	HasTaxi    bool `json:"has_taxi"`
	Wheelchair bool `json:"wheelchair"`
	Trolley    bool `json:"trolley"`
	Companion  bool `json:"companion"`

	Department        *string `json:"department,omitempty"`
	Description       string  `json:"description"`
	DepartureLocation *string `json:"departure_location,omitempty"`
	Status            bool    `json:"status"`

	PatientName       *string `json:"patient_name,omitempty"`
	PatientRoom       *string `json:"patient_room,omitempty"`
	HospitalName      *string `json:"hospital_name,omitempty"`
	AccommodationName *string `json:"accommodation_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type CalculateBusTimeRequest struct {
	HospitalID      int64  `json:"hospital_id"`
	AccommodationID int64  `json:"accommodation_id"`
	AppointmentDate string `json:"appointment_date"`
	AppointmentTime string `json:"appointment_time"`
}

type CalculateBusTimeResponse struct {
	Success bool    `json:"success"`
	BusTime *string `json:"bus_time"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func timeString(t *bustime.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}

func toAppointmentResponse(a *transport.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                a.ID,
		PatientID:         a.PatientID,
		HospitalID:        a.HospitalID,
		AccommodationID:   a.AccommodationID,
		AppointmentDate:   a.AppointmentDate.Format(time.DateOnly),
		AppointmentTime:   a.AppointmentTime.String(),
		BusTimeManual:     timeString(a.BusTimeManual),
		BusTimeComputed:   timeString(a.BusTimeComputed),
		BusTimeEffective:  timeString(a.EffectiveBusTime()),
		NeedsTaxi:         a.NeedsTaxi(),
		Translator:        a.Translator,
		HasTaxi:           a.HasTaxi,
		Wheelchair:        a.Wheelchair,
		Trolley:           a.Trolley,
		Companion:         a.Companion,
		Department:        a.Department,
		Description:       a.Description,
		DepartureLocation: a.DepartureLocation,
		Status:            a.Status,
		CreatedAt:         a.CreatedAt,
	}
}

func toDetailResponse(d *transport.AppointmentDetail) AppointmentResponse {
	resp := toAppointmentResponse(&d.Appointment)
	if d.Patient != nil {
		resp.PatientName = &d.Patient.Name
		resp.PatientRoom = &d.Patient.Room
	}
	if d.Hospital != nil {
		resp.HospitalName = &d.Hospital.Name
	}
	if d.Accommodation != nil {
		resp.AccommodationName = &d.Accommodation.Name
	}
	return resp
}

func toDetailResponses(ds []transport.AppointmentDetail) []AppointmentResponse {
	result := make([]AppointmentResponse, 0, len(ds))
	for i := range ds {
		result = append(result, toDetailResponse(&ds[i]))
	}
	return result
}

func toPatientResponse(p *transport.Patient) PatientResponse {
	return PatientResponse{
		ID:                     p.ID,
		Name:                   p.Name,
		LastName:               p.LastName,
		DateOfBirth:            dateString(p.DateOfBirth),
		Room:                   p.Room,
		PhoneNo:                p.PhoneNo,
		DefaultAccommodationID: p.DefaultAccommodationID,
	}
}
