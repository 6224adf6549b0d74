package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlink-cl/airlink-api/internal/middleware"
	"github.com/airlink-cl/airlink-api/internal/model"
	"github.com/airlink-cl/airlink-api/internal/repository"
)

type mockSeatStore struct {
	listByTrip       func(ctx context.Context, tripID uint64) ([]repository.SeatRow, error)
	countByTrip      func(ctx context.Context, tripID uint64) (int, error)
	ensureCabinClass func(ctx context.Context, name string, priority uint32) (uint64, error)
	createBulk       func(ctx context.Context, seats []model.Seat) error
	reserve          func(ctx context.Context, passengerID uint64, selections []model.SeatSelection) error
}

func (m *mockSeatStore) ListByTrip(ctx context.Context, tripID uint64) ([]repository.SeatRow, error) {
	return m.listByTrip(ctx, tripID)
}
func (m *mockSeatStore) CountByTrip(ctx context.Context, tripID uint64) (int, error) {
	return m.countByTrip(ctx, tripID)
}
func (m *mockSeatStore) EnsureCabinClass(ctx context.Context, name string, priority uint32) (uint64, error) {
	return m.ensureCabinClass(ctx, name, priority)
}
func (m *mockSeatStore) CreateBulk(ctx context.Context, seats []model.Seat) error {
	return m.createBulk(ctx, seats)
}
func (m *mockSeatStore) Reserve(ctx context.Context, passengerID uint64, selections []model.SeatSelection) error {
	return m.reserve(ctx, passengerID, selections)
}

type mockTripChecker struct {
	exists func(ctx context.Context, tripID uint64) (bool, error)
}

func (m *mockTripChecker) Exists(ctx context.Context, tripID uint64) (bool, error) {
	return m.exists(ctx, tripID)
}

func newSeatContext(t *testing.T, method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestListSeatsMockTripSkipsStorage(t *testing.T) {
	store := &mockSeatStore{
		countByTrip: func(context.Context, uint64) (int, error) {
			t.Fatal("storage must not be touched for mock trips")
			return 0, nil
		},
	}
	h := NewSeatHandler(store, &mockTripChecker{exists: func(context.Context, uint64) (bool, error) {
		t.Fatal("storage must not be touched for mock trips")
		return false, nil
	}})

	c, rec := newSeatContext(t, http.MethodGet, "/api/asientos/mock-42", "")
	c.SetParamNames("idViaje")
	c.SetParamValues("mock-42")

	require.NoError(t, h.ListSeats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TripID   string            `json:"idViaje"`
		Seats    []json.RawMessage `json:"asientos"`
		Total    int               `json:"total"`
		Availabe int               `json:"disponibles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "mock-42", resp.TripID)
	assert.Len(t, resp.Seats, 180)
	assert.Equal(t, 180, resp.Total)
}

func TestListSeatsGeneratesLayoutOnFirstRead(t *testing.T) {
	var created []model.Seat
	store := &mockSeatStore{
		countByTrip: func(context.Context, uint64) (int, error) { return 0, nil },
		ensureCabinClass: func(_ context.Context, name string, _ uint32) (uint64, error) {
			if name == cabinPremium {
				return 1, nil
			}
			return 2, nil
		},
		createBulk: func(_ context.Context, seats []model.Seat) error {
			created = seats
			return nil
		},
		listByTrip: func(context.Context, uint64) ([]repository.SeatRow, error) {
			return []repository.SeatRow{
				{Seat: model.Seat{ID: 1, TripID: 9, Number: "1A", CabinClassID: 1, Available: true}, Cabin: "Premium"},
				{Seat: model.Seat{ID: 2, TripID: 9, Number: "12C", CabinClassID: 2, Available: false}, Cabin: "Economy"},
			}, nil
		},
	}
	trips := &mockTripChecker{exists: func(context.Context, uint64) (bool, error) { return true, nil }}
	h := NewSeatHandler(store, trips)

	c, rec := newSeatContext(t, http.MethodGet, "/api/asientos/9", "")
	c.SetParamNames("idViaje")
	c.SetParamValues("9")

	require.NoError(t, h.ListSeats(c))
	require.Equal(t, http.StatusOK, rec.Code)

	require.Len(t, created, 180)
	assert.Equal(t, uint64(9), created[0].TripID)
	assert.Equal(t, uint64(1), created[0].CabinClassID)   // premium rows up front
	assert.Equal(t, uint64(2), created[179].CabinClassID) // economy at the back
	assert.True(t, created[0].Available)

	var resp struct {
		Total     int `json:"total"`
		Available int `json:"disponibles"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Total)
	assert.Equal(t, 1, resp.Available)
}

func TestListSeatsUnknownTrip(t *testing.T) {
	store := &mockSeatStore{
		countByTrip: func(context.Context, uint64) (int, error) { return 0, nil },
	}
	trips := &mockTripChecker{exists: func(context.Context, uint64) (bool, error) { return false, nil }}
	h := NewSeatHandler(store, trips)

	c, rec := newSeatContext(t, http.MethodGet, "/api/asientos/404", "")
	c.SetParamNames("idViaje")
	c.SetParamValues("404")

	require.NoError(t, h.ListSeats(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReserveSeatsUnavailableRollsBack(t *testing.T) {
	store := &mockSeatStore{
		reserve: func(context.Context, uint64, []model.SeatSelection) error {
			return repository.ErrSeatUnavailable
		},
	}
	trips := &mockTripChecker{exists: func(context.Context, uint64) (bool, error) { return true, nil }}
	h := NewSeatHandler(store, trips)

	body := `{"idPasajero":7,"asientos":[{"idAsiento":11,"precio":12000}]}`
	c, rec := newSeatContext(t, http.MethodPost, "/api/asientos/reservar", body)
	c.Set(middleware.CtxUserID, uint64(1))

	require.NoError(t, h.ReserveSeats(c))
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Mensaje string `json:"mensaje"`
		Err     string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "uno o más asientos ya no están disponibles", resp.Mensaje)
	assert.NotEmpty(t, resp.Err)
}

func TestReserveSeatsUnknownSeatIsClientError(t *testing.T) {
	store := &mockSeatStore{
		reserve: func(context.Context, uint64, []model.SeatSelection) error {
			return repository.ErrSeatNotFound
		},
	}
	trips := &mockTripChecker{exists: func(context.Context, uint64) (bool, error) { return true, nil }}
	h := NewSeatHandler(store, trips)

	body := `{"idPasajero":7,"asientos":[{"idAsiento":999,"precio":0}]}`
	c, rec := newSeatContext(t, http.MethodPost, "/api/asientos/reservar", body)
	c.Set(middleware.CtxUserID, uint64(1))

	require.NoError(t, h.ReserveSeats(c))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Mensaje string `json:"mensaje"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "uno o más asientos no existen", resp.Mensaje)
}

func TestReserveSeatsSuccessAcknowledges(t *testing.T) {
	var gotPassenger uint64
	var gotSeats []model.SeatSelection
	store := &mockSeatStore{
		reserve: func(_ context.Context, passengerID uint64, selections []model.SeatSelection) error {
			gotPassenger = passengerID
			gotSeats = selections
			return nil
		},
	}
	trips := &mockTripChecker{exists: func(context.Context, uint64) (bool, error) { return true, nil }}
	h := NewSeatHandler(store, trips)

	body := `{"idPasajero":10,"asientos":[{"idAsiento":5,"precio":0},{"idAsiento":6,"precio":5000}]}`
	c, rec := newSeatContext(t, http.MethodPost, "/api/asientos/reservar", body)
	c.Set(middleware.CtxUserID, uint64(1))

	require.NoError(t, h.ReserveSeats(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(10), gotPassenger)
	require.Len(t, gotSeats, 2)
	assert.Equal(t, int64(5000), gotSeats[1].ExtraCharge)

	var resp struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
}

func TestReserveSeatsValidation(t *testing.T) {
	h := NewSeatHandler(&mockSeatStore{}, &mockTripChecker{
		exists: func(context.Context, uint64) (bool, error) { return true, nil },
	})

	cases := []struct {
		name string
		body string
	}{
		{"missing passenger", `{"asientos":[{"idAsiento":1,"precio":0}]}`},
		{"empty seats", `{"idPasajero":7,"asientos":[]}`},
		{"zero seat id", `{"idPasajero":7,"asientos":[{"idAsiento":0,"precio":0}]}`},
		{"negative charge", `{"idPasajero":7,"asientos":[{"idAsiento":1,"precio":-5}]}`},
		{"duplicate seats", `{"idPasajero":7,"asientos":[{"idAsiento":1,"precio":0},{"idAsiento":1,"precio":0}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newSeatContext(t, http.MethodPost, "/api/asientos/reservar", tc.body)
			c.Set(middleware.CtxUserID, uint64(1))
			require.NoError(t, h.ReserveSeats(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestReserveSeatsRequiresAuth(t *testing.T) {
	h := NewSeatHandler(&mockSeatStore{}, &mockTripChecker{
		exists: func(context.Context, uint64) (bool, error) { return true, nil },
	})
	c, rec := newSeatContext(t, http.MethodPost, "/api/asientos/reservar", `{}`)
	require.NoError(t, h.ReserveSeats(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
