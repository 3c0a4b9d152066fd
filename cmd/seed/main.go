package main

import (
	"context"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
	"github.com/patienthjem/bus-scheduling/internal/config"
	"github.com/patienthjem/bus-scheduling/internal/db"
	"github.com/patienthjem/bus-scheduling/internal/logging"
	"github.com/patienthjem/bus-scheduling/internal/schedule"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load error")
	}

	logging.Init("seed", cfg.Env)
	log.Info().Msg("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	gofakeit.Seed(time.Now().UnixNano())

	resolver := bustime.NewResolver(schedule.NewPgRepository(pool), bustime.Rules{
		EligibleHospitals: cfg.BusEligibleHospitals,
		ScheduleAliases:   cfg.BusScheduleAliases,
		AccommodationName: cfg.BusAccommodation,
		Slack:             cfg.BusSlack,
	})

	if err := seedReferenceData(context.Background(), pool, cfg.BusAccommodation); err != nil {
		log.Fatal().Err(err).Msg("seed reference data")
	}
	if err := seedPatients(context.Background(), pool, 60); err != nil {
		log.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedAppointments(context.Background(), pool, resolver, cfg.BusAccommodation, 200); err != nil {
		log.Fatal().Err(err).Msg("seed appointments")
	}

	log.Info().Msg("seed complete")
}

// seedReferenceData inserts the hospitals, the accommodation and the weekly
// timetable the bus rule runs against. Hospital ids matter: 1 carries the
// shared timetable, 3, 7 and 10 alias to it.
func seedReferenceData(ctx context.Context, pool *pgxpool.Pool, accommodationName string) error {
	log.Info().Msg("seeding hospitals, accommodations and schedules")

	hospitals := []struct {
		id      int64
		name    string
		address string
	}{
		{1, "Rigshospitalet", "Blegdamsvej 9, 2100 København Ø"},
		{2, "Herlev Hospital", "Borgmester Ib Juuls Vej 1, 2730 Herlev"},
		{3, "Rigshospitalet Glostrup", "Valdemar Hansens Vej 1-23, 2600 Glostrup"},
		{4, "Hvidovre Hospital", "Kettegård Allé 30, 2650 Hvidovre"},
		{5, "Bispebjerg Hospital", "Bispebjerg Bakke 23, 2400 København NV"},
		{6, "Gentofte Hospital", "Gentofte Hospitalsvej 1, 2900 Hellerup"},
		{7, "Kennedy Centret", "Gl. Landevej 7, 2600 Glostrup"},
		{8, "Amager Hospital", "Italiensvej 1, 2300 København S"},
		{9, "Frederiksberg Hospital", "Nordre Fasanvej 57, 2000 Frederiksberg"},
		{10, "Mary Elizabeths Hospital", "Juliane Maries Vej 6, 2100 København Ø"},
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, h := range hospitals {
		_, err := tx.Exec(ctx, `
			INSERT INTO hospitals (id, name, address, image_path)
			VALUES ($1, $2, $3, '')
			ON CONFLICT (id) DO NOTHING
		`, h.id, h.name, h.address)
		if err != nil {
			return err
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO accommodations (id, name)
		VALUES (1, $1)
		ON CONFLICT (id) DO NOTHING
	`, accommodationName)
	if err != nil {
		return err
	}

	// Weekday shuttle departures towards the shared timetable hospital.
	departures := []string{"07:00", "07:30", "08:15", "09:00", "10:30", "12:00", "14:00"}
	for d := time.Monday; d <= time.Friday; d++ {
		for _, dep := range departures {
			_, err := tx.Exec(ctx, `
				INSERT INTO schedules (destination_id, day_of_week, departure_time, departure_location, created_at)
				VALUES (1, $1, $2, 'Hovedindgangen', now())
			`, d.String(), dep+":00")
			if err != nil {
				return err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Msg("reference data seeded")
	return nil
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	log.Info().Int("count", count).Msg("seeding patients")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	accommodationID := int64(1)

	for i := 0; i < count; i++ {
		id := uuid.New()
		name := gofakeit.FirstName()
		lastName := gofakeit.LastName()
		room := gofakeit.Numerify("Værelse ###")
		phone := gofakeit.Phone()

		_, err := tx.Exec(ctx, `
			INSERT INTO patients (id, name, last_name, date_of_birth, room, phone_no, default_accommodation_id, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		`, id, name, lastName, gofakeit.DateRange(
			time.Date(1935, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2015, 1, 1, 0, 0, 0, 0, time.UTC),
		), room, phone, accommodationID)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Msg("patients seeded")
	return nil
}

// seedAppointments runs each generated appointment through the same bus-time
// resolution the service applies on create, so seeded rows satisfy the
// computed-field invariant out of the box.
func seedAppointments(ctx context.Context, pool *pgxpool.Pool, resolver *bustime.Resolver, accommodationName string, count int) error {
	log.Info().Int("count", count).Msg("seeding appointments")

	rows, err := pool.Query(ctx, `SELECT id FROM patients`)
	if err != nil {
		return err
	}
	defer rows.Close()

	var patientIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return err
		}
		patientIDs = append(patientIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if len(patientIDs) == 0 {
		log.Warn().Msg("no patients to attach appointments to")
		return nil
	}

	departments := []string{"Kardiologi", "Onkologi", "Ortopædkirurgi", "Øjenafdeling", "Dermatologi"}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	accommodationID := int64(1)

	for i := 0; i < count; i++ {
		id := uuid.New()
		patientID := patientIDs[gofakeit.Number(0, len(patientIDs)-1)]
		hospitalID := int64(gofakeit.Number(1, 10))
		date := time.Now().AddDate(0, 0, gofakeit.Number(0, 30))
		hour := gofakeit.Number(8, 15)
		minute := []int{0, 15, 30, 45}[gofakeit.Number(0, 3)]
		apptTime := bustime.NewTimeOfDay(hour, minute)
		department := departments[gofakeit.Number(0, len(departments)-1)]

		computed, err := resolver.Resolve(ctx, bustime.Input{
			HospitalID:    hospitalID,
			Accommodation: accommodationName,
			Date:          date,
			Time:          &apptTime,
		})
		if err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO appointments (
				id, patient_id, hospital_id, accommodation_id,
				appointment_date, appointment_time, bus_time_computed,
				translator, has_taxi, wheelchair, trolley, companion,
				department, description, status,
				created_at, updated_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7,
			        $8, false, $9, false, $10,
			        $11, '', false, now(), now())
		`, id, patientID, hospitalID, accommodationID,
			date.Format(time.DateOnly), apptTime, computed,
			gofakeit.Bool(), gofakeit.Bool(), gofakeit.Bool(),
			department)
		if err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}

	log.Info().Msg("appointments seeded")
	return nil
}
