package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/patienthjem/bus-scheduling/internal/schedule"
	"github.com/patienthjem/bus-scheduling/internal/transport"
)

const (
	// taxiDaysPublic is the default horizon for the public taxi list
	// (today and tomorrow); staff dashboards pass days explicitly.
	taxiDaysPublic = 1
)

type RouterConfig struct {
	Service      *transport.Service
	Repo         transport.Repository
	ScheduleRepo schedule.Repository
	PgPool       *pgxpool.Pool
	Redis        *redis.Client
	Env          string
	Version      string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Apply middleware
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	// Health endpoints
	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Reference data
	r.Get("/hospitals", listHospitalsHandler(cfg.Repo))
	r.Post("/hospitals", createHospitalHandler(cfg.Repo))
	r.Get("/hospitals/{id}", getHospitalHandler(cfg.Repo))

	r.Get("/accommodations", listAccommodationsHandler(cfg.Repo))
	r.Post("/accommodations", createAccommodationHandler(cfg.Repo))

	r.Get("/schedules", listSchedulesHandler(cfg.ScheduleRepo))
	r.Post("/schedules", createScheduleHandler(cfg.ScheduleRepo, cfg.Repo))
	r.Delete("/schedules/{id}", deleteScheduleHandler(cfg.ScheduleRepo))

	// Patients
	r.Get("/patients", listPatientsHandler(cfg.Repo))
	r.Post("/patients", createPatientHandler(cfg.Repo))
	r.Get("/patients/{id}", getPatientHandler(cfg.Repo))

	// Appointments
	r.Route("/appointments", func(r chi.Router) {
		r.Post("/", createAppointmentHandler(cfg.Service))
		r.Post("/calculate-bus-time", calculateBusTimeHandler(cfg.Service))
		r.Post("/recalculate", recalculateHandler(cfg.Service))

		r.Get("/rides-today", ridesTodayHandler(cfg.Service))
		r.Get("/departures-today", departuresTodayHandler(cfg.Service))
		r.Get("/taxi-users", taxiUsersHandler(cfg.Service, taxiDaysPublic))
		r.Get("/translator-view", translatorViewHandler(cfg.Service))
		r.Get("/future", futureAppointmentsHandler(cfg.Service))
		r.Get("/find-patient", findPatientHandler(cfg.Service))

		r.Get("/{id}", getAppointmentHandler(cfg.Service))
		r.Put("/{id}", updateAppointmentHandler(cfg.Service))
		r.Delete("/{id}", deleteAppointmentHandler(cfg.Service))
		r.Patch("/{id}/toggle-status", toggleStatusHandler(cfg.Service))
		r.Patch("/{id}/toggle-taxi", toggleTaxiHandler(cfg.Service))
	})

	return r
}
