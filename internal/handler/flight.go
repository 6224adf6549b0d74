package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airlink-cl/airlink-api/internal/model"
	"github.com/airlink-cl/airlink-api/internal/repository"
)

// FlightStore is the trip access the flight handler needs. *repository.FlightRepo
// satisfies it; tests plug in fakes.
type FlightStore interface {
	Search(ctx context.Context, originID, destinationID uint64, date, fareClass, tz string) ([]repository.FlightRow, error)
	Availability(ctx context.Context, originID, destinationID uint64, from, to, tz string) ([]repository.DayAvailability, error)
	GetDetail(ctx context.Context, tripID uint64, tz string) (*repository.TripDetail, error)
}

// TerminalStore resolves search parameters to terminals.
type TerminalStore interface {
	Resolve(ctx context.Context, query string) (*model.Terminal, error)
	ListDestinations(ctx context.Context) ([]model.Terminal, error)
	CodeForCity(ctx context.Context, city string) (string, error)
}

// FareStore lists the fares offered on a trip.
type FareStore interface {
	ListByTrip(ctx context.Context, tripID uint64, activeOnly, orderByPrice bool) ([]repository.TripFareDetail, error)
}

// FlightHandler serves the public flight catalog: search, availability
// calendar, trip detail, fares and destinations. All routes are
// unauthenticated and cache-friendly.
type FlightHandler struct {
	Flights   FlightStore
	Terminals TerminalStore
	Fares     FareStore
	HubOrigin string // origin assumed when the client sends none
	DisplayTZ string // IANA zone used for all client-facing dates and times
}

// NewFlightHandler constructs a FlightHandler. The display timezone is
// validated once here so the SQL layer can trust it.
func NewFlightHandler(flights FlightStore, terminals TerminalStore, fares FareStore, hubOrigin, displayTZ string) *FlightHandler {
	if flights == nil || terminals == nil || fares == nil {
		panic("nil store passed to NewFlightHandler")
	}
	if _, err := time.LoadLocation(displayTZ); err != nil {
		panic("invalid display timezone: " + displayTZ)
	}
	return &FlightHandler{
		Flights:   flights,
		Terminals: terminals,
		Fares:     fares,
		HubOrigin: hubOrigin,
		DisplayTZ: displayTZ,
	}
}

func flightJSON(f repository.FlightRow) echo.Map {
	return echo.Map{
		"idViaje":     f.TripID,
		"estado":      f.Status,
		"fecha":       f.DateLocal,
		"horaSalida":  f.DepartureLocal,
		"horaLlegada": f.ArrivalLocal,
		"origen": echo.Map{
			"codigo": f.OriginCode, "ciudad": f.OriginCity, "terminal": f.OriginTerminal,
		},
		"destino": echo.Map{
			"codigo": f.DestCode, "ciudad": f.DestCity, "terminal": f.DestTerminal,
		},
		"aerolinea":           echo.Map{"nombre": f.Airline, "logo": f.AirlineLogo},
		"equipo":              echo.Map{"modelo": f.EquipmentModel, "matricula": f.Registration},
		"duracionMin":         f.DurationMin,
		"distanciaKm":         f.DistanceKm,
		"precio":              f.PriceFrom,
		"tarifasDisponibles":  f.FareCount,
		"asientosDisponibles": f.SeatsLeft,
	}
}

// searchTZ picks the display zone for a request: the tz query parameter when
// present, the configured default otherwise. An unknown zone name is an error.
func (h *FlightHandler) searchTZ(c echo.Context) (string, error) {
	tz := c.QueryParam("tz")
	if tz == "" {
		return h.DisplayTZ, nil
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return "", err
	}
	return tz, nil
}

// Search handles GET /vuelos/buscar?origen=&destino=&fecha=&clase=&tz=.
// Origin and destination accept a terminal code, city or terminal name; an
// unmatched city answers an empty array, not 404. fecha is a YYYY-MM-DD date
// in the requested zone; clase narrows results to trips offering that cabin.
func (h *FlightHandler) Search(c echo.Context) error {
	origin := c.QueryParam("origen")
	if origin == "" {
		origin = h.HubOrigin // one-way searches from the hub omit the origin
	}
	dest := c.QueryParam("destino")
	date := c.QueryParam("fecha")
	if dest == "" || date == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "destino y fecha son requeridos"})
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fecha inválida, formato YYYY-MM-DD"})
	}
	tz, err := h.searchTZ(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tz inválida"})
	}

	ctx := c.Request().Context()
	from, err := h.Terminals.Resolve(ctx, origin)
	if err != nil {
		return emptyOrErr(c, err)
	}
	to, err := h.Terminals.Resolve(ctx, dest)
	if err != nil {
		return emptyOrErr(c, err)
	}
	if from.ID == to.ID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origen y destino deben ser distintos"})
	}

	rows, err := h.Flights.Search(ctx, from.ID, to.ID, date, c.QueryParam("clase"), tz)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	vuelos := make([]echo.Map, 0, len(rows))
	for _, f := range rows {
		vuelos = append(vuelos, flightJSON(f))
	}
	return c.JSON(http.StatusOK, vuelos)
}

// Availability handles GET /vuelos/disponibilidad?origen=&destino=&desde=&dias=.
// The response lists, for each of the dias days starting at desde, how many
// scheduled flights depart and the cheapest fare among them; days without
// flights are omitted.
func (h *FlightHandler) Availability(c echo.Context) error {
	origin := c.QueryParam("origen")
	if origin == "" {
		origin = h.HubOrigin
	}
	dest := c.QueryParam("destino")
	if dest == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "destino es requerido"})
	}
	from := c.QueryParam("desde")
	if from == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "desde es requerido"})
	}
	first, err := time.Parse("2006-01-02", from)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "desde inválido, formato YYYY-MM-DD"})
	}
	days := 7
	if raw := c.QueryParam("dias"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 60 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "dias debe estar entre 1 y 60"})
		}
		days = n
	}
	last := first.AddDate(0, 0, days-1)
	tz, err := h.searchTZ(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "tz inválida"})
	}

	ctx := c.Request().Context()
	fromTerm, err := h.Terminals.Resolve(ctx, origin)
	if err != nil {
		return emptyOrErr(c, err)
	}
	toTerm, err := h.Terminals.Resolve(ctx, dest)
	if err != nil {
		return emptyOrErr(c, err)
	}

	strip, err := h.Flights.Availability(ctx, fromTerm.ID, toTerm.ID,
		first.Format("2006-01-02"), last.Format("2006-01-02"), tz)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(strip))
	for _, d := range strip {
		out = append(out, echo.Map{"fecha": d.Date, "vuelos": d.Flights, "minPrecio": d.PriceFrom})
	}
	return c.JSON(http.StatusOK, out)
}

// GetTrip handles GET /vuelos/:idViaje: the trip detail plus its active
// fares, cheapest first.
func (h *FlightHandler) GetTrip(c echo.Context) error {
	tripID, err := pathID(c, "idViaje")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id de viaje inválido"})
	}
	ctx := c.Request().Context()
	d, err := h.Flights.GetDetail(ctx, tripID, h.DisplayTZ)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "viaje no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	fares, err := h.Fares.ListByTrip(ctx, tripID, true, true)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"idViaje":     d.TripID,
		"estado":      d.Status,
		"fecha":       d.DateLocal,
		"horaSalida":  d.DepartureLocal,
		"horaLlegada": d.ArrivalLocal,
		"origen":      echo.Map{"codigo": d.OriginCode, "ciudad": d.OriginCity, "terminal": d.OriginTerminal},
		"destino":     echo.Map{"codigo": d.DestCode, "ciudad": d.DestCity, "terminal": d.DestTerminal},
		"aerolinea":   echo.Map{"nombre": d.Airline, "logo": d.AirlineLogo},
		"equipo":      echo.Map{"modelo": d.EquipmentModel, "matricula": d.Registration, "capacidad": d.Capacity},
		"duracionMin": d.DurationMin,
		"distanciaKm": d.DistanceKm,
		"tarifas":     faresJSON(fares),
	})
}

// ListFares handles GET /vuelos/viajes/:idViaje/tarifas. Unlike the trip
// page this lists every fare in catalog order, including inactive ones, for
// the fare-change modal.
func (h *FlightHandler) ListFares(c echo.Context) error {
	tripID, err := pathID(c, "idViaje")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id de viaje inválido"})
	}
	fares, err := h.Fares.ListByTrip(c.Request().Context(), tripID, false, false)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"idViaje": tripID, "tarifas": faresJSON(fares)})
}

func faresJSON(fares []repository.TripFareDetail) []echo.Map {
	out := make([]echo.Map, 0, len(fares))
	for _, f := range fares {
		out = append(out, echo.Map{
			"idTarifa":     f.FareID,
			"codigo":       f.Code,
			"nombre":       f.Name,
			"cabina":       f.Cabin,
			"precio":       f.Price,
			"moneda":       f.Currency,
			"cupos":        f.Quota,
			"equipajeKg":   f.BaggageKg,
			"cambios":      f.Changes,
			"reembolsable": f.Refundable,
			"condiciones":  f.Conditions,
			"activo":       f.Active,
		})
	}
	return out
}

// Destinations handles GET /vuelos/destinos.
func (h *FlightHandler) Destinations(c echo.Context) error {
	terms, err := h.Terminals.ListDestinations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(terms))
	for _, t := range terms {
		out = append(out, echo.Map{
			"idTerminal": t.ID,
			"codigo":     t.Code,
			"ciudad":     t.City,
			"pais":       t.Country,
			"terminal":   t.Name,
			"imagen":     t.Image,
			"tipo":       t.Type,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"destinos": out})
}

// CityCode handles GET /vuelos/destinos/:ciudad/codigo, mapping a city name
// to the terminal code serving it.
func (h *FlightHandler) CityCode(c echo.Context) error {
	city := strings.TrimSpace(c.Param("ciudad"))
	if city == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ciudad requerida"})
	}
	code, err := h.Terminals.CodeForCity(c.Request().Context(), city)
	if err != nil {
		if errors.Is(err, repository.ErrTerminalNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "ciudad no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"ciudad": city, "codigo": code})
}

// emptyOrErr maps a failed terminal resolution: an unmatched origin or
// destination is an empty result set, anything else a storage failure.
func emptyOrErr(c echo.Context, err error) error {
	if errors.Is(err, repository.ErrTerminalNotFound) {
		return c.JSON(http.StatusOK, []echo.Map{})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
}
