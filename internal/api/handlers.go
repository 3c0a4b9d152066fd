package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/patienthjem/bus-scheduling/internal/bustime"
	"github.com/patienthjem/bus-scheduling/internal/transport"
)

func createAppointmentHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		patientID, err := uuid.Parse(req.PatientID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "patient_id must be a valid UUID")
			return
		}

		date, err := time.Parse(time.DateOnly, req.AppointmentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_date", "appointment_date must be YYYY-MM-DD")
			return
		}

		apptTime, err := bustime.ParseTimeOfDay(req.AppointmentTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_time", "appointment_time must be HH:MM")
			return
		}

		var manual *bustime.TimeOfDay
		if req.BusTimeManual != "" {
			t, err := bustime.ParseTimeOfDay(req.BusTimeManual)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_bus_time_manual", "bus_time_manual must be HH:MM")
				return
			}
			manual = &t
		}

		appt, err := svc.CreateAppointment(r.Context(), transport.CreateAppointmentInput{
			PatientID:         patientID,
			HospitalID:        req.HospitalID,
			AccommodationID:   req.AccommodationID,
			Date:              date,
			Time:              apptTime,
			BusTimeManual:     manual,
			Translator:        req.Translator,
			HasTaxi:           req.HasTaxi,
			Wheelchair:        req.Wheelchair,
			Trolley:           req.Trolley,
			Companion:         req.Companion,
			Department:        req.Department,
			Description:       req.Description,
			DepartureLocation: req.DepartureLocation,
		})
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		detail, err := svc.GetAppointment(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toDetailResponse(detail))
	}
}

func updateAppointmentHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", err.Error())
			return
		}

		in := transport.UpdateAppointmentInput{
			HospitalID:      req.HospitalID,
			AccommodationID: req.AccommodationID,
			BusTimeManual: transport.TimePatch{
				Set:   req.BusTimeManual.Set,
				Value: req.BusTimeManual.Value,
			},
			Translator:        req.Translator,
			HasTaxi:           req.HasTaxi,
			Wheelchair:        req.Wheelchair,
			Trolley:           req.Trolley,
			Companion:         req.Companion,
			Department:        req.Department,
			Description:       req.Description,
			DepartureLocation: req.DepartureLocation,
			Status:            req.Status,
		}

		if req.AppointmentDate != nil {
			date, err := time.Parse(time.DateOnly, *req.AppointmentDate)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_appointment_date", "appointment_date must be YYYY-MM-DD")
				return
			}
			in.Date = &date
		}
		if req.AppointmentTime != nil {
			t, err := bustime.ParseTimeOfDay(*req.AppointmentTime)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_appointment_time", "appointment_time must be HH:MM")
				return
			}
			in.Time = &t
		}

		appt, err := svc.UpdateAppointment(r.Context(), id, in)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func deleteAppointmentHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		if err := svc.DeleteAppointment(r.Context(), id); err != nil {
			handleAppointmentError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func calculateBusTimeHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CalculateBusTimeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		date, err := time.Parse(time.DateOnly, req.AppointmentDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_date", "appointment_date must be YYYY-MM-DD")
			return
		}

		apptTime, err := bustime.ParseTimeOfDay(req.AppointmentTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_appointment_time", "appointment_time must be HH:MM")
			return
		}

		bt, err := svc.CalculateBusTime(r.Context(), req.HospitalID, req.AccommodationID, date, apptTime)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, CalculateBusTimeResponse{
			Success: true,
			BusTime: timeString(bt),
		})
	}
}

func ridesTodayHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.RidesToday(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponses(appts))
	}
}

func departuresTodayHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := svc.DeparturesToday(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, groups)
	}
}

func taxiUsersHandler(svc *transport.Service, defaultDays int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := defaultDays
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "invalid_days", "days must be a non-negative integer")
				return
			}
			days = n
		}

		appts, err := svc.TaxiUsers(r.Context(), days)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponses(appts))
	}
}

func translatorViewHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.TranslatorView(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponses(appts))
	}
}

func futureAppointmentsHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		appts, err := svc.FutureAppointments(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponses(appts))
	}
}

func findPatientHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("name")
		room := r.URL.Query().Get("room")
		accommodation := r.URL.Query().Get("accommodation")
		if name == "" || room == "" || accommodation == "" {
			writeError(w, http.StatusBadRequest, "missing_parameters", "name, room, and accommodation are required parameters")
			return
		}

		appts, err := svc.FindPatient(r.Context(), name, room, accommodation)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		if len(appts) == 0 {
			writeError(w, http.StatusNotFound, "patient_not_found", "no matching patient found with a future appointment")
			return
		}
		writeJSON(w, http.StatusOK, toDetailResponses(appts))
	}
}

func toggleStatusHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.ToggleStatus(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": appt.ID, "status": appt.Status})
	}
}

func toggleTaxiHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := appointmentID(w, r)
		if !ok {
			return
		}

		appt, err := svc.ToggleTaxi(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": appt.ID, "has_taxi": appt.HasTaxi})
	}
}

func recalculateHandler(svc *transport.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		updated, err := svc.RecalculateBusTimes(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"updated": updated})
	}
}

func appointmentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_appointment_id", "id must be a valid UUID")
		return uuid.Nil, false
	}
	return id, true
}

func handleAppointmentError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, transport.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, transport.ErrHospitalNotFound):
		writeError(w, http.StatusNotFound, "hospital_not_found", err.Error())
	case errors.Is(err, transport.ErrAccommodationNotFound):
		writeError(w, http.StatusNotFound, "accommodation_not_found", err.Error())
	case errors.Is(err, transport.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, transport.ErrAppointmentBusy):
		writeError(w, http.StatusConflict, "appointment_busy", "appointment is currently being updated, please retry shortly")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
