package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Helpers

const appointmentColumns = `
	id, patient_id, hospital_id, accommodation_id,
	appointment_date, appointment_time,
	bus_time_manual, bus_time_computed,
	translator, has_taxi, wheelchair, trolley, companion,
	department, description, departure_location, status,
	created_at, updated_at
`

func scanHospital(row pgx.Row) (*Hospital, error) {
	var h Hospital

	err := row.Scan(
		&h.ID,
		&h.Name,
		&h.Address,
		&h.ImagePath,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, err
	}

	return &h, nil
}

func scanAccommodation(row pgx.Row) (*Accommodation, error) {
	var a Accommodation

	err := row.Scan(&a.ID, &a.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccommodationNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.LastName,
		&p.DateOfBirth,
		&p.Room,
		&p.PhoneNo,
		&p.DefaultAccommodationID,
		&p.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.HospitalID,
		&a.AccommodationID,
		&a.AppointmentDate,
		&a.AppointmentTime,
		&a.BusTimeManual,
		&a.BusTimeComputed,
		&a.Translator,
		&a.HasTaxi,
		&a.Wheelchair,
		&a.Trolley,
		&a.Companion,
		&a.Department,
		&a.Description,
		&a.DepartureLocation,
		&a.Status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

// Interface methods

func (r *PgRepository) GetHospitalByID(ctx context.Context, id int64) (*Hospital, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, address, image_path
		FROM hospitals
		WHERE id = $1
	`, id)
	return scanHospital(row)
}

func (r *PgRepository) ListHospitals(ctx context.Context) ([]Hospital, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, address, image_path
		FROM hospitals
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *h)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateHospital(ctx context.Context, h Hospital) (*Hospital, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO hospitals (name, address, image_path)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, image_path
	`, h.Name, h.Address, h.ImagePath)
	return scanHospital(row)
}

func (r *PgRepository) HospitalExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM hospitals WHERE id = $1)
	`, id).Scan(&exists)
	return exists, err
}

func (r *PgRepository) GetAccommodationByID(ctx context.Context, id int64) (*Accommodation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name
		FROM accommodations
		WHERE id = $1
	`, id)
	return scanAccommodation(row)
}

func (r *PgRepository) ListAccommodations(ctx context.Context) ([]Accommodation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name
		FROM accommodations
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Accommodation
	for rows.Next() {
		a, err := scanAccommodation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreateAccommodation(ctx context.Context, a Accommodation) (*Accommodation, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO accommodations (name)
		VALUES ($1)
		RETURNING id, name
	`, a.Name)
	return scanAccommodation(row)
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, last_name, date_of_birth, room, phone_no, default_accommodation_id, created_at
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) ListPatients(ctx context.Context) ([]Patient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, last_name, date_of_birth, room, phone_no, default_accommodation_id, created_at
		FROM patients
		ORDER BY name, last_name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}

	return result, rows.Err()
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, name, last_name, date_of_birth, room, phone_no, default_accommodation_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		RETURNING id, name, last_name, date_of_birth, room, phone_no, default_accommodation_id, created_at
	`, id, p.Name, p.LastName, p.DateOfBirth, p.Room, p.PhoneNo, p.DefaultAccommodationID)
	return scanPatient(row)
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	id := a.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, hospital_id, accommodation_id,
			appointment_date, appointment_time,
			bus_time_manual, bus_time_computed,
			translator, has_taxi, wheelchair, trolley, companion,
			department, description, departure_location, status,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now(), now())
		RETURNING `+appointmentColumns,
		id, a.PatientID, a.HospitalID, a.AccommodationID,
		a.AppointmentDate, a.AppointmentTime,
		a.BusTimeManual, a.BusTimeComputed,
		a.Translator, a.HasTaxi, a.Wheelchair, a.Trolley, a.Companion,
		a.Department, a.Description, a.DepartureLocation, a.Status,
	)
	return scanAppointment(row)
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) UpdateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET patient_id = $2,
		    hospital_id = $3,
		    accommodation_id = $4,
		    appointment_date = $5,
		    appointment_time = $6,
		    bus_time_manual = $7,
		    bus_time_computed = $8,
		    translator = $9,
		    has_taxi = $10,
		    wheelchair = $11,
		    trolley = $12,
		    companion = $13,
		    department = $14,
		    description = $15,
		    departure_location = $16,
		    status = $17,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns,
		a.ID, a.PatientID, a.HospitalID, a.AccommodationID,
		a.AppointmentDate, a.AppointmentTime,
		a.BusTimeManual, a.BusTimeComputed,
		a.Translator, a.HasTaxi, a.Wheelchair, a.Trolley, a.Companion,
		a.Department, a.Description, a.DepartureLocation, a.Status,
	)
	return scanAppointment(row)
}

func (r *PgRepository) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

const detailQuery = `
	SELECT
		a.id, a.patient_id, a.hospital_id, a.accommodation_id,
		a.appointment_date, a.appointment_time,
		a.bus_time_manual, a.bus_time_computed,
		a.translator, a.has_taxi, a.wheelchair, a.trolley, a.companion,
		a.department, a.description, a.departure_location, a.status,
		a.created_at, a.updated_at,
		p.id, p.name, p.last_name, p.date_of_birth, p.room, p.phone_no, p.default_accommodation_id, p.created_at,
		h.id, h.name, h.address, h.image_path,
		ac.id, ac.name
	FROM appointments a
	JOIN patients p ON p.id = a.patient_id
	JOIN hospitals h ON h.id = a.hospital_id
	LEFT JOIN accommodations ac ON ac.id = a.accommodation_id
`

func scanDetail(row pgx.Row) (*AppointmentDetail, error) {
	var d AppointmentDetail
	var p Patient
	var h Hospital
	var acID *int64
	var acName *string

	err := row.Scan(
		&d.ID, &d.PatientID, &d.HospitalID, &d.AccommodationID,
		&d.AppointmentDate, &d.AppointmentTime,
		&d.BusTimeManual, &d.BusTimeComputed,
		&d.Translator, &d.HasTaxi, &d.Wheelchair, &d.Trolley, &d.Companion,
		&d.Department, &d.Description, &d.DepartureLocation, &d.Status,
		&d.CreatedAt, &d.UpdatedAt,
		&p.ID, &p.Name, &p.LastName, &p.DateOfBirth, &p.Room, &p.PhoneNo, &p.DefaultAccommodationID, &p.CreatedAt,
		&h.ID, &h.Name, &h.Address, &h.ImagePath,
		&acID, &acName,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	d.Patient = &p
	d.Hospital = &h
	if acID != nil && acName != nil {
		d.Accommodation = &Accommodation{ID: *acID, Name: *acName}
	}

	return &d, nil
}

func (r *PgRepository) queryDetails(ctx context.Context, where string, args ...any) ([]AppointmentDetail, error) {
	rows, err := r.pool.Query(ctx, detailQuery+where, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AppointmentDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}

	return result, rows.Err()
}

func (r *PgRepository) GetAppointmentDetail(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	row := r.pool.QueryRow(ctx, detailQuery+` WHERE a.id = $1`, id)
	return scanDetail(row)
}

func (r *PgRepository) ListAppointmentsByDate(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	return r.queryDetails(ctx, `
		WHERE a.appointment_date BETWEEN $1 AND $2
		ORDER BY a.appointment_date, a.appointment_time
	`, from, to)
}

func (r *PgRepository) ListFutureAppointments(ctx context.Context, from time.Time) ([]AppointmentDetail, error) {
	return r.queryDetails(ctx, `
		WHERE a.appointment_date >= $1
		ORDER BY a.appointment_date, a.appointment_time
	`, from)
}

func (r *PgRepository) ListTranslatorAppointments(ctx context.Context, from, to time.Time) ([]AppointmentDetail, error) {
	return r.queryDetails(ctx, `
		WHERE a.translator AND a.appointment_date BETWEEN $1 AND $2
		ORDER BY a.appointment_date, a.appointment_time
	`, from, to)
}

func (r *PgRepository) FindAppointmentsByPatient(ctx context.Context, name, room, accommodation string, from time.Time) ([]AppointmentDetail, error) {
	return r.queryDetails(ctx, `
		WHERE p.name = $1 AND p.room = $2 AND ac.name = $3 AND a.appointment_date >= $4
		ORDER BY a.appointment_date, a.appointment_time
	`, name, room, accommodation, from)
}

func (r *PgRepository) ToggleAppointmentStatus(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = NOT status,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id)
	return scanAppointment(row)
}

func (r *PgRepository) ToggleAppointmentTaxi(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET has_taxi = NOT has_taxi,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns, id)
	return scanAppointment(row)
}

func (r *PgRepository) DeletePatientsCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	// Appointments reference patients with ON DELETE CASCADE, so one
	// statement clears both.
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM patients
		WHERE created_at < $1
	`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PgRepository) InsertEvent(ctx context.Context, ev EventLog) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO event_logs (event_type, appointment_id, payload, created_at)
		VALUES ($1, $2, $3, COALESCE($4, now()))
	`, ev.EventType, ev.AppointmentID, ev.Payload, nullableTime(ev.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert event log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
