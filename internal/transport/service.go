package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
	redisclient "github.com/patienthjem/bus-scheduling/internal/redis"
)

const (
	EventAppointmentCreated = "APPOINTMENT_CREATED"
	EventAppointmentUpdated = "APPOINTMENT_UPDATED"
	EventAppointmentDeleted = "APPOINTMENT_DELETED"
	EventBusTimesRecomputed = "BUS_TIMES_RECOMPUTED"
)

var (
	ErrAppointmentBusy = errors.New("appointment is being updated, please retry")
)

type Service struct {
	repo     Repository
	resolver *bustime.Resolver
	locker   redisclient.Locker
}

func NewService(repo Repository, resolver *bustime.Resolver, locker redisclient.Locker) *Service {
	return &Service{
		repo:     repo,
		resolver: resolver,
		locker:   locker,
	}
}

// CreateAppointmentInput carries the appointment create payload. A non-nil
// BusTimeManual pins the bus time from the start.
type CreateAppointmentInput struct {
	PatientID       uuid.UUID
	HospitalID      int64
	AccommodationID *int64
	Date            time.Time
	Time            bustime.TimeOfDay
	BusTimeManual   *bustime.TimeOfDay

	Translator bool
	HasTaxi    bool
	Wheelchair bool
	Trolley    bool
	Companion  bool

	Department        *string
	Description       string
	DepartureLocation *string
}

// TimePatch is a tri-state update field: absent, explicitly cleared, or set
// to a value.
type TimePatch struct {
	Set   bool               // present in the payload at all
	Value *bustime.TimeOfDay // nil with Set means an explicit clear
}

// UpdateAppointmentInput carries a partial update; nil pointer fields are
// left unchanged.
type UpdateAppointmentInput struct {
	HospitalID      *int64
	AccommodationID *int64
	Date            *time.Time
	Time            *bustime.TimeOfDay
	BusTimeManual   TimePatch

	Translator *bool
	HasTaxi    *bool
	Wheelchair *bool
	Trolley    *bool
	Companion  *bool

	Department        *string
	Description       *string
	DepartureLocation *string
	Status            *bool
}

// CreateAppointment validates references, computes the shuttle departure and
// stores the appointment. The computed time is stored even when a manual
// one is supplied; the effective value always prefers the manual one.
func (s *Service) CreateAppointment(ctx context.Context, in CreateAppointmentInput) (*Appointment, error) {
	if _, err := s.repo.GetPatientByID(ctx, in.PatientID); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load patient: %w", err)
	}
	if _, err := s.repo.GetHospitalByID(ctx, in.HospitalID); err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load hospital: %w", err)
	}
	if in.AccommodationID != nil {
		if _, err := s.repo.GetAccommodationByID(ctx, *in.AccommodationID); err != nil {
			if errors.Is(err, ErrAccommodationNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("load accommodation: %w", err)
		}
	}

	computed, err := s.computeBusTime(ctx, in.HospitalID, in.AccommodationID, in.Date, in.Time)
	if err != nil {
		return nil, err
	}

	appt := Appointment{
		PatientID:         in.PatientID,
		HospitalID:        in.HospitalID,
		AccommodationID:   in.AccommodationID,
		AppointmentDate:   in.Date,
		AppointmentTime:   in.Time,
		BusTimeManual:     in.BusTimeManual,
		BusTimeComputed:   computed,
		Translator:        in.Translator,
		HasTaxi:           in.HasTaxi,
		Wheelchair:        in.Wheelchair,
		Trolley:           in.Trolley,
		Companion:         in.Companion,
		Department:        in.Department,
		Description:       in.Description,
		DepartureLocation: in.DepartureLocation,
	}

	created, err := s.repo.CreateAppointment(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.logEvent(ctx, &created.ID, EventAppointmentCreated, map[string]any{
		"patient_id":  in.PatientID.String(),
		"hospital_id": in.HospitalID,
		"date":        in.Date.Format(time.DateOnly),
	})

	return created, nil
}

// UpdateAppointment applies a partial update under the per-appointment lock,
// so a manual bus-time edit and a concurrent recompute cannot race.
//
// Manual bus-time handling: a supplied value pins it; an explicit clear
// drops it and falls back to a fresh computation; an absent field leaves it
// untouched but still recomputes against the updated inputs.
func (s *Service) UpdateAppointment(ctx context.Context, id uuid.UUID, in UpdateAppointmentInput) (*Appointment, error) {
	var updated *Appointment

	err := s.locker.WithAppointmentLock(ctx, id, func(lockCtx context.Context) error {
		appt, err := s.repo.GetAppointmentByID(lockCtx, id)
		if err != nil {
			return err
		}

		if in.HospitalID != nil {
			if _, err := s.repo.GetHospitalByID(lockCtx, *in.HospitalID); err != nil {
				return err
			}
			appt.HospitalID = *in.HospitalID
		}
		if in.AccommodationID != nil {
			if _, err := s.repo.GetAccommodationByID(lockCtx, *in.AccommodationID); err != nil {
				return err
			}
			appt.AccommodationID = in.AccommodationID
		}
		if in.Date != nil {
			appt.AppointmentDate = *in.Date
		}
		if in.Time != nil {
			appt.AppointmentTime = *in.Time
		}
		if in.Translator != nil {
			appt.Translator = *in.Translator
		}
		if in.HasTaxi != nil {
			appt.HasTaxi = *in.HasTaxi
		}
		if in.Wheelchair != nil {
			appt.Wheelchair = *in.Wheelchair
		}
		if in.Trolley != nil {
			appt.Trolley = *in.Trolley
		}
		if in.Companion != nil {
			appt.Companion = *in.Companion
		}
		if in.Department != nil {
			appt.Department = in.Department
		}
		if in.Description != nil {
			appt.Description = *in.Description
		}
		if in.DepartureLocation != nil {
			appt.DepartureLocation = in.DepartureLocation
		}
		if in.Status != nil {
			appt.Status = *in.Status
		}

		switch {
		case in.BusTimeManual.Set && in.BusTimeManual.Value != nil:
			// Manual override supplied; computed stays as it was.
			appt.BusTimeManual = in.BusTimeManual.Value
		default:
			if in.BusTimeManual.Set {
				appt.BusTimeManual = nil
			}
			computed, err := s.computeBusTime(lockCtx, appt.HospitalID, appt.AccommodationID, appt.AppointmentDate, appt.AppointmentTime)
			if err != nil {
				return err
			}
			appt.BusTimeComputed = computed
		}

		updated, err = s.repo.UpdateAppointment(lockCtx, *appt)
		if err != nil {
			return fmt.Errorf("update appointment: %w", err)
		}

		s.logEvent(lockCtx, &updated.ID, EventAppointmentUpdated, map[string]any{
			"manual_set":     in.BusTimeManual.Set && in.BusTimeManual.Value != nil,
			"manual_cleared": in.BusTimeManual.Set && in.BusTimeManual.Value == nil,
		})

		return nil
	})

	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrAppointmentBusy
		}
		return nil, err
	}

	return updated, nil
}

func (s *Service) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.DeleteAppointment(ctx, id); err != nil {
		return err
	}
	s.logEvent(ctx, &id, EventAppointmentDeleted, map[string]any{})
	return nil
}

func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	detail, err := s.repo.GetAppointmentDetail(ctx, id)
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// CalculateBusTime answers the standalone calculate request without touching
// any appointment.
func (s *Service) CalculateBusTime(ctx context.Context, hospitalID, accommodationID int64, date time.Time, t bustime.TimeOfDay) (*bustime.TimeOfDay, error) {
	if _, err := s.repo.GetHospitalByID(ctx, hospitalID); err != nil {
		return nil, err
	}
	acc, err := s.repo.GetAccommodationByID(ctx, accommodationID)
	if err != nil {
		return nil, err
	}
	return s.resolveBusTime(ctx, hospitalID, acc.Name, date, t)
}

// computeBusTime runs the resolver against the identified accommodation. A
// missing accommodation reference simply resolves to no bus time.
func (s *Service) computeBusTime(ctx context.Context, hospitalID int64, accommodationID *int64, date time.Time, t bustime.TimeOfDay) (*bustime.TimeOfDay, error) {
	var accommodationName string
	if accommodationID != nil {
		acc, err := s.repo.GetAccommodationByID(ctx, *accommodationID)
		if err != nil {
			if errors.Is(err, ErrAccommodationNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("load accommodation: %w", err)
		}
		accommodationName = acc.Name
	}
	return s.resolveBusTime(ctx, hospitalID, accommodationName, date, t)
}

func (s *Service) resolveBusTime(ctx context.Context, hospitalID int64, accommodationName string, date time.Time, t bustime.TimeOfDay) (*bustime.TimeOfDay, error) {
	bt, err := s.resolver.Resolve(ctx, bustime.Input{
		HospitalID:    hospitalID,
		Accommodation: accommodationName,
		Date:          date,
		Time:          &t,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve bus time: %w", err)
	}
	return bt, nil
}

// -------- Reporting reads --------

// RidesToday lists today's appointments ordered by effective bus time, with
// appointments lacking one sorted last.
func (s *Service) RidesToday(ctx context.Context) ([]AppointmentDetail, error) {
	today := dateOnly(time.Now())
	appts, err := s.repo.ListAppointmentsByDate(ctx, today, today)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	endOfDay := bustime.NewTimeOfDay(23, 59)
	sort.SliceStable(appts, func(i, j int) bool {
		bi, bj := appts[i].EffectiveBusTime(), appts[j].EffectiveBusTime()
		mi, mj := endOfDay, endOfDay
		if bi != nil {
			mi = *bi
		}
		if bj != nil {
			mj = *bj
		}
		if mi != mj {
			return mi.Before(mj)
		}
		return appts[i].AppointmentTime.Before(appts[j].AppointmentTime)
	})

	return appts, nil
}

// DepartureGroup is one shuttle departure with the patients riding it.
type DepartureGroup struct {
	DepartureTime string      `json:"departure_time"`
	Patients      []RideEntry `json:"patients"`
}

type RideEntry struct {
	Name string `json:"name"`
	Room string `json:"room"`
}

// DeparturesToday groups today's bus riders by effective departure time,
// the shape the house's departure board consumes.
func (s *Service) DeparturesToday(ctx context.Context) ([]DepartureGroup, error) {
	today := dateOnly(time.Now())
	appts, err := s.repo.ListAppointmentsByDate(ctx, today, today)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	grouped := make(map[string][]RideEntry)
	for i := range appts {
		a := &appts[i]
		bt := a.EffectiveBusTime()
		if bt == nil {
			continue
		}
		key := bt.String()
		grouped[key] = append(grouped[key], RideEntry{
			Name: a.Patient.Name,
			Room: a.Patient.Room,
		})
	}

	keys := make([]string, 0, len(grouped))
	for k := range grouped {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	result := make([]DepartureGroup, 0, len(keys))
	for _, k := range keys {
		result = append(result, DepartureGroup{DepartureTime: k, Patients: grouped[k]})
	}
	return result, nil
}

// TaxiUsers lists appointments within the horizon that no shuttle serves.
func (s *Service) TaxiUsers(ctx context.Context, days int) ([]AppointmentDetail, error) {
	if days < 0 {
		days = 0
	}
	today := dateOnly(time.Now())
	appts, err := s.repo.ListAppointmentsByDate(ctx, today, today.AddDate(0, 0, days))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}

	var result []AppointmentDetail
	for _, a := range appts {
		if a.NeedsTaxi() {
			result = append(result, a)
		}
	}
	return result, nil
}

// TranslatorView lists translator-flagged appointments over the next five
// days.
func (s *Service) TranslatorView(ctx context.Context) ([]AppointmentDetail, error) {
	today := dateOnly(time.Now())
	return s.repo.ListTranslatorAppointments(ctx, today, today.AddDate(0, 0, 5))
}

func (s *Service) FutureAppointments(ctx context.Context) ([]AppointmentDetail, error) {
	return s.repo.ListFutureAppointments(ctx, dateOnly(time.Now()))
}

// FindPatient looks up a patient's future appointments by name, room and
// accommodation, the three fields patients identify themselves by.
func (s *Service) FindPatient(ctx context.Context, name, room, accommodation string) ([]AppointmentDetail, error) {
	return s.repo.FindAppointmentsByPatient(ctx, name, room, accommodation, dateOnly(time.Now()))
}

func (s *Service) ToggleStatus(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.ToggleAppointmentStatus(ctx, id)
}

func (s *Service) ToggleTaxi(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.repo.ToggleAppointmentTaxi(ctx, id)
}

// -------- Maintenance --------

// RecalculateBusTimes recomputes the stored computed bus time for future
// appointments. Appointments with a manual override are left alone.
func (s *Service) RecalculateBusTimes(ctx context.Context) (int, error) {
	appts, err := s.repo.ListFutureAppointments(ctx, dateOnly(time.Now()))
	if err != nil {
		return 0, fmt.Errorf("list appointments: %w", err)
	}

	updated := 0
	for i := range appts {
		a := appts[i].Appointment
		if a.BusTimeManual != nil {
			continue
		}

		bt, err := s.computeBusTime(ctx, a.HospitalID, a.AccommodationID, a.AppointmentDate, a.AppointmentTime)
		if err != nil {
			return updated, err
		}
		if timesEqual(bt, a.BusTimeComputed) {
			continue
		}

		a.BusTimeComputed = bt
		if _, err := s.repo.UpdateAppointment(ctx, a); err != nil {
			return updated, fmt.Errorf("update appointment %s: %w", a.ID, err)
		}
		updated++
	}

	s.logEvent(ctx, nil, EventBusTimesRecomputed, map[string]any{"updated": updated})

	return updated, nil
}

// DeleteExpiredPatients removes patients registered before the retention
// cutoff. Their appointments go with them through the FK cascade; the home
// re-registers returning patients on their next stay.
func (s *Service) DeleteExpiredPatients(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	deleted, err := s.repo.DeletePatientsCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired patients: %w", err)
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("removed patients past retention")
	}
	return deleted, nil
}

func (s *Service) logEvent(ctx context.Context, appointmentID *uuid.UUID, eventType string, payload map[string]any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to marshal event payload")
		data = nil
	}

	ev := EventLog{
		EventType:     eventType,
		AppointmentID: appointmentID,
		Payload:       data,
		CreatedAt:     time.Now(),
	}

	if err := s.repo.InsertEvent(ctx, ev); err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("failed to insert event log")
	}
}

func timesEqual(a, b *bustime.TimeOfDay) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
