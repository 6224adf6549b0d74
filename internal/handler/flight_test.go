package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlink-cl/airlink-api/internal/model"
	"github.com/airlink-cl/airlink-api/internal/repository"
)

type mockFlightStore struct {
	search       func(ctx context.Context, originID, destinationID uint64, date, fareClass, tz string) ([]repository.FlightRow, error)
	availability func(ctx context.Context, originID, destinationID uint64, from, to, tz string) ([]repository.DayAvailability, error)
	getDetail    func(ctx context.Context, tripID uint64, tz string) (*repository.TripDetail, error)
}

func (m *mockFlightStore) Search(ctx context.Context, o, d uint64, date, fareClass, tz string) ([]repository.FlightRow, error) {
	return m.search(ctx, o, d, date, fareClass, tz)
}
func (m *mockFlightStore) Availability(ctx context.Context, o, d uint64, from, to, tz string) ([]repository.DayAvailability, error) {
	return m.availability(ctx, o, d, from, to, tz)
}
func (m *mockFlightStore) GetDetail(ctx context.Context, tripID uint64, tz string) (*repository.TripDetail, error) {
	return m.getDetail(ctx, tripID, tz)
}

type mockTerminalStore struct {
	resolve          func(ctx context.Context, query string) (*model.Terminal, error)
	listDestinations func(ctx context.Context) ([]model.Terminal, error)
	codeForCity      func(ctx context.Context, city string) (string, error)
}

func (m *mockTerminalStore) Resolve(ctx context.Context, q string) (*model.Terminal, error) {
	return m.resolve(ctx, q)
}
func (m *mockTerminalStore) ListDestinations(ctx context.Context) ([]model.Terminal, error) {
	return m.listDestinations(ctx)
}
func (m *mockTerminalStore) CodeForCity(ctx context.Context, city string) (string, error) {
	return m.codeForCity(ctx, city)
}

type mockFareStore struct {
	listByTrip func(ctx context.Context, tripID uint64, activeOnly, orderByPrice bool) ([]repository.TripFareDetail, error)
}

func (m *mockFareStore) ListByTrip(ctx context.Context, tripID uint64, activeOnly, orderByPrice bool) ([]repository.TripFareDetail, error) {
	return m.listByTrip(ctx, tripID, activeOnly, orderByPrice)
}

func terminalsByCode(codes map[string]uint64) *mockTerminalStore {
	return &mockTerminalStore{
		resolve: func(_ context.Context, q string) (*model.Terminal, error) {
			if id, ok := codes[q]; ok {
				return &model.Terminal{ID: id, Code: q}, nil
			}
			return nil, repository.ErrTerminalNotFound
		},
	}
}

func getContext(t *testing.T, target string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func price(v int64) *int64 { return &v }

func TestSearchValidation(t *testing.T) {
	h := NewFlightHandler(&mockFlightStore{}, terminalsByCode(nil), &mockFareStore{}, "SCL", "America/Santiago")

	cases := []struct {
		name  string
		query string
		code  int
	}{
		{"missing destino", "fecha=2026-09-01", http.StatusBadRequest},
		{"missing fecha", "destino=ANF", http.StatusBadRequest},
		{"bad date", "destino=ANF&fecha=01-09-2026", http.StatusBadRequest},
		{"bad tz", "destino=ANF&fecha=2026-09-01&tz=Marte/Olympus", http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := getContext(t, "/vuelos/buscar?"+tc.query)
			require.NoError(t, h.Search(c))
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestSearchUnmatchedCityAnswersEmptyArray(t *testing.T) {
	h := NewFlightHandler(&mockFlightStore{}, terminalsByCode(map[string]uint64{"SCL": 1}), &mockFareStore{}, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/buscar?destino=Atlantida&fecha=2026-09-01")
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp)
}

func TestSearchDefaultsToHubOrigin(t *testing.T) {
	var gotOrigin, gotDest uint64
	var gotClass string
	flights := &mockFlightStore{
		search: func(_ context.Context, o, d uint64, date, fareClass, tz string) ([]repository.FlightRow, error) {
			gotOrigin, gotDest = o, d
			gotClass = fareClass
			assert.Equal(t, "2026-09-01", date)
			assert.Equal(t, "America/Santiago", tz)
			return []repository.FlightRow{{
				TripID: 1, Status: model.TripScheduled, DateLocal: "2026-09-01",
				DepartureLocal: "08:30", ArrivalLocal: "10:35",
				OriginCode: "SCL", DestCode: "ANF",
				Airline: "AirLink", PriceFrom: price(45000), FareCount: 3, SeatsLeft: 42,
			}}, nil
		},
	}
	terms := terminalsByCode(map[string]uint64{"SCL": 1, "ANF": 2})
	h := NewFlightHandler(flights, terms, &mockFareStore{}, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/buscar?"+url.Values{
		"destino": {"ANF"}, "fecha": {"2026-09-01"}, "clase": {"Economy"},
	}.Encode())
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint64(1), gotOrigin)
	assert.Equal(t, uint64(2), gotDest)
	assert.Equal(t, "Economy", gotClass)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, float64(45000), resp[0]["precio"])
	assert.Equal(t, "08:30", resp[0]["horaSalida"])
	assert.Equal(t, float64(3), resp[0]["tarifasDisponibles"])
}

func TestSearchRejectsSameOriginAndDestination(t *testing.T) {
	terms := terminalsByCode(map[string]uint64{"SCL": 1})
	h := NewFlightHandler(&mockFlightStore{}, terms, &mockFareStore{}, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/buscar?origen=SCL&destino=SCL&fecha=2026-09-01")
	require.NoError(t, h.Search(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchKeepsUnpricedTrips(t *testing.T) {
	flights := &mockFlightStore{
		search: func(context.Context, uint64, uint64, string, string, string) ([]repository.FlightRow, error) {
			return []repository.FlightRow{{TripID: 5, PriceFrom: nil, FareCount: 0, SeatsLeft: 0}}, nil
		},
	}
	terms := terminalsByCode(map[string]uint64{"SCL": 1, "ANF": 2})
	h := NewFlightHandler(flights, terms, &mockFareStore{}, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/buscar?destino=ANF&fecha=2026-09-01")
	require.NoError(t, h.Search(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Nil(t, resp[0]["precio"])
}

func TestAvailabilityWindow(t *testing.T) {
	var gotFrom, gotTo string
	flights := &mockFlightStore{
		availability: func(_ context.Context, _, _ uint64, from, to, _ string) ([]repository.DayAvailability, error) {
			gotFrom, gotTo = from, to
			return []repository.DayAvailability{{Date: "2026-02-14", Flights: 2, PriceFrom: price(39000)}}, nil
		},
	}
	terms := terminalsByCode(map[string]uint64{"SCL": 1, "ANF": 2})
	h := NewFlightHandler(flights, terms, &mockFareStore{}, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/disponibilidad?origen=SCL&destino=ANF&desde=2026-02-10&dias=5")
	require.NoError(t, h.Availability(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-02-10", gotFrom)
	assert.Equal(t, "2026-02-14", gotTo)

	var resp []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "2026-02-14", resp[0]["fecha"])
	assert.Equal(t, float64(2), resp[0]["vuelos"])
	assert.Equal(t, float64(39000), resp[0]["minPrecio"])
}

func TestAvailabilityDefaultsToSevenDays(t *testing.T) {
	var gotFrom, gotTo string
	flights := &mockFlightStore{
		availability: func(_ context.Context, _, _ uint64, from, to, _ string) ([]repository.DayAvailability, error) {
			gotFrom, gotTo = from, to
			return nil, nil
		},
	}
	terms := terminalsByCode(map[string]uint64{"SCL": 1, "ANF": 2})
	h := NewFlightHandler(flights, terms, &mockFareStore{}, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/disponibilidad?destino=ANF&desde=2026-02-26")
	require.NoError(t, h.Availability(c))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-02-26", gotFrom)
	assert.Equal(t, "2026-03-04", gotTo)
}

func TestGetTripFaresActiveOrderedByPrice(t *testing.T) {
	flights := &mockFlightStore{
		getDetail: func(context.Context, uint64, string) (*repository.TripDetail, error) {
			return &repository.TripDetail{TripID: 3, Status: model.TripScheduled}, nil
		},
	}
	fares := &mockFareStore{
		listByTrip: func(_ context.Context, tripID uint64, activeOnly, orderByPrice bool) ([]repository.TripFareDetail, error) {
			assert.True(t, activeOnly)
			assert.True(t, orderByPrice)
			return []repository.TripFareDetail{{FareID: 1, Code: "ECO-L", Price: 45000}}, nil
		},
	}
	h := NewFlightHandler(flights, terminalsByCode(nil), fares, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/3")
	c.SetParamNames("idViaje")
	c.SetParamValues("3")
	require.NoError(t, h.GetTrip(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestListFaresUnfiltered(t *testing.T) {
	fares := &mockFareStore{
		listByTrip: func(_ context.Context, tripID uint64, activeOnly, orderByPrice bool) ([]repository.TripFareDetail, error) {
			assert.False(t, activeOnly)
			assert.False(t, orderByPrice)
			return nil, nil
		},
	}
	h := NewFlightHandler(&mockFlightStore{}, terminalsByCode(nil), fares, "SCL", "America/Santiago")

	c, rec := getContext(t, "/vuelos/viajes/3/tarifas")
	c.SetParamNames("idViaje")
	c.SetParamValues("3")
	require.NoError(t, h.ListFares(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}
