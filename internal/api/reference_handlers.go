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
	"github.com/patienthjem/bus-scheduling/internal/schedule"
	"github.com/patienthjem/bus-scheduling/internal/transport"
)

func listHospitalsHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hospitals, err := repo.ListHospitals(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		result := make([]HospitalResponse, 0, len(hospitals))
		for _, h := range hospitals {
			result = append(result, HospitalResponse(h))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getHospitalHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(w, r, "id")
		if !ok {
			return
		}

		h, err := repo.GetHospitalByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, transport.ErrHospitalNotFound) {
				writeError(w, http.StatusNotFound, "hospital_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, HospitalResponse(*h))
	}
}

func createHospitalHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HospitalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "missing_name", "name is required")
			return
		}

		h, err := repo.CreateHospital(r.Context(), transport.Hospital{
			Name:      req.Name,
			Address:   req.Address,
			ImagePath: req.ImagePath,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, HospitalResponse(*h))
	}
}

func listAccommodationsHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accommodations, err := repo.ListAccommodations(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		result := make([]AccommodationResponse, 0, len(accommodations))
		for _, a := range accommodations {
			result = append(result, AccommodationResponse(a))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func createAccommodationHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AccommodationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "missing_name", "name is required")
			return
		}

		a, err := repo.CreateAccommodation(r.Context(), transport.Accommodation{Name: req.Name})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, AccommodationResponse(*a))
	}
}

func listSchedulesHandler(repo schedule.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var destinationID int64
		if v := r.URL.Query().Get("destination_id"); v != "" {
			parsed, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_destination_id", "destination_id must be an integer")
				return
			}
			destinationID = parsed
		}

		dayOfWeek := r.URL.Query().Get("day_of_week")
		if dayOfWeek != "" && !schedule.ValidDayOfWeek(dayOfWeek) {
			writeError(w, http.StatusBadRequest, "invalid_day_of_week", "day_of_week must be a full English weekday name")
			return
		}

		entries, err := repo.List(r.Context(), destinationID, dayOfWeek)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		result := make([]ScheduleResponse, 0, len(entries))
		for _, e := range entries {
			result = append(result, toScheduleResponse(e))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func createScheduleHandler(repo schedule.Repository, hospitals transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ScheduleRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}

		if !schedule.ValidDayOfWeek(req.DayOfWeek) {
			writeError(w, http.StatusBadRequest, "invalid_day_of_week", "day_of_week must be a full English weekday name")
			return
		}

		departure, err := bustime.ParseTimeOfDay(req.DepartureTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_departure_time", "departure_time must be HH:MM")
			return
		}

		if _, err := hospitals.GetHospitalByID(r.Context(), req.DestinationID); err != nil {
			if errors.Is(err, transport.ErrHospitalNotFound) {
				writeError(w, http.StatusNotFound, "hospital_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		e, err := repo.Create(r.Context(), schedule.Entry{
			DestinationID:     req.DestinationID,
			DayOfWeek:         req.DayOfWeek,
			DepartureTime:     departure,
			DepartureLocation: req.DepartureLocation,
		})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, toScheduleResponse(*e))
	}
}

func deleteScheduleHandler(repo schedule.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := int64Param(w, r, "id")
		if !ok {
			return
		}

		if err := repo.Delete(r.Context(), id); err != nil {
			if errors.Is(err, schedule.ErrEntryNotFound) {
				writeError(w, http.StatusNotFound, "schedule_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listPatientsHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		patients, err := repo.ListPatients(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		result := make([]PatientResponse, 0, len(patients))
		for i := range patients {
			result = append(result, toPatientResponse(&patients[i]))
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func getPatientHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_patient_id", "id must be a valid UUID")
			return
		}

		p, err := repo.GetPatientByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, transport.ErrPatientNotFound) {
				writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusOK, toPatientResponse(p))
	}
}

func createPatientHandler(repo transport.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req PatientRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Name == "" || req.Room == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "name and room are required")
			return
		}

		p := transport.Patient{
			Name:                   req.Name,
			LastName:               req.LastName,
			Room:                   req.Room,
			PhoneNo:                req.PhoneNo,
			DefaultAccommodationID: req.DefaultAccommodationID,
		}
		if req.DateOfBirth != nil {
			dob, err := time.Parse(time.DateOnly, *req.DateOfBirth)
			if err != nil {
				writeError(w, http.StatusBadRequest, "invalid_date_of_birth", "date_of_birth must be YYYY-MM-DD")
				return
			}
			p.DateOfBirth = &dob
		}

		created, err := repo.CreatePatient(r.Context(), p)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, toPatientResponse(created))
	}
}

func toScheduleResponse(e schedule.Entry) ScheduleResponse {
	return ScheduleResponse{
		ID:                e.ID,
		DestinationID:     e.DestinationID,
		DayOfWeek:         e.DayOfWeek,
		DepartureTime:     e.DepartureTime.String(),
		DepartureLocation: e.DepartureLocation,
	}
}

func int64Param(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_"+name, name+" must be an integer")
		return 0, false
	}
	return id, true
}
