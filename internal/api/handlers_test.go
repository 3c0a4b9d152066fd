package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalTimeUnmarshal(t *testing.T) {
	type payload struct {
		BusTimeManual OptionalTime `json:"bus_time_manual"`
	}

	var absent payload
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.False(t, absent.BusTimeManual.Set)

	var null payload
	require.NoError(t, json.Unmarshal([]byte(`{"bus_time_manual": null}`), &null))
	assert.True(t, null.BusTimeManual.Set)
	assert.Nil(t, null.BusTimeManual.Value)

	var empty payload
	require.NoError(t, json.Unmarshal([]byte(`{"bus_time_manual": ""}`), &empty))
	assert.True(t, empty.BusTimeManual.Set)
	assert.Nil(t, empty.BusTimeManual.Value)

	var set payload
	require.NoError(t, json.Unmarshal([]byte(`{"bus_time_manual": "07:30"}`), &set))
	assert.True(t, set.BusTimeManual.Set)
	require.NotNil(t, set.BusTimeManual.Value)
	assert.Equal(t, "07:30", set.BusTimeManual.Value.String())

	var bad payload
	assert.Error(t, json.Unmarshal([]byte(`{"bus_time_manual": "later"}`), &bad))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

// The validation tests below exercise only the request-parsing paths, which
// reject before the service is ever touched.

func TestCreateAppointmentValidation(t *testing.T) {
	handler := createAppointmentHandler(nil)

	cases := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{`, "invalid_request_body"},
		{"bad patient id", `{"patient_id":"nope","hospital_id":1,"appointment_date":"2026-09-02","appointment_time":"10:00"}`, "invalid_patient_id"},
		{"bad date", `{"patient_id":"70d5be9d-cd2a-4f19-9e29-24a84fa2b1e8","hospital_id":1,"appointment_date":"02/09/2026","appointment_time":"10:00"}`, "invalid_appointment_date"},
		{"bad time", `{"patient_id":"70d5be9d-cd2a-4f19-9e29-24a84fa2b1e8","hospital_id":1,"appointment_date":"2026-09-02","appointment_time":"ten"}`, "invalid_appointment_time"},
		{"bad manual bus time", `{"patient_id":"70d5be9d-cd2a-4f19-9e29-24a84fa2b1e8","hospital_id":1,"appointment_date":"2026-09-02","appointment_time":"10:00","bus_time_manual":"early"}`, "invalid_bus_time_manual"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/appointments", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()
			handler(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tc.code, errorCode(t, rec))
		})
	}
}

func TestAppointmentIDMustBeUUID(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/appointments/{id}/toggle-status", toggleStatusHandler(nil))

	req := httptest.NewRequest(http.MethodPost, "/appointments/42/toggle-status", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_appointment_id", errorCode(t, rec))
}

func TestCalculateBusTimeValidation(t *testing.T) {
	handler := calculateBusTimeHandler(nil)

	body := `{"hospital_id":1,"accommodation_id":1,"appointment_date":"2026-09-02","appointment_time":"quarter past"}`
	req := httptest.NewRequest(http.MethodPost, "/appointments/calculate-bus-time", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_appointment_time", errorCode(t, rec))
}

func TestTaxiUsersDaysValidation(t *testing.T) {
	handler := taxiUsersHandler(nil, 1)

	for _, days := range []string{"abc", "-1"} {
		req := httptest.NewRequest(http.MethodGet, "/appointments/taxi-users?days="+days, nil)
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, "days=%s", days)
		assert.Equal(t, "invalid_days", errorCode(t, rec))
	}
}

func TestFindPatientRequiresAllParams(t *testing.T) {
	handler := findPatientHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/appointments/find-patient?name=Pipaluk&room=14", nil)
	rec := httptest.NewRecorder()
	handler(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "missing_parameters", errorCode(t, rec))
}
