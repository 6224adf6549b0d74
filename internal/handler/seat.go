package handler

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/airlink-cl/airlink-api/internal/model"
	"github.com/airlink-cl/airlink-api/internal/repository"
	"github.com/airlink-cl/airlink-api/internal/seatplan"
)

// SeatStore is the seat access the seat handler needs. *repository.SeatRepo
// satisfies it.
type SeatStore interface {
	ListByTrip(ctx context.Context, tripID uint64) ([]repository.SeatRow, error)
	CountByTrip(ctx context.Context, tripID uint64) (int, error)
	EnsureCabinClass(ctx context.Context, name string, priority uint32) (uint64, error)
	CreateBulk(ctx context.Context, seats []model.Seat) error
	Reserve(ctx context.Context, passengerID uint64, selections []model.SeatSelection) error
}

// TripChecker verifies a trip exists before seats are generated for it.
type TripChecker interface {
	Exists(ctx context.Context, tripID uint64) (bool, error)
}

// Cabin class names used when the generator provisions a fresh trip.
const (
	cabinPremium = "Premium"
	cabinEconomy = "Economy"
)

// SeatHandler serves the seat map and the atomic seat reservation endpoint.
// Seat layouts are generated lazily: the first read of a trip without seats
// provisions the default cabin before answering.
type SeatHandler struct {
	Seats SeatStore
	Trips TripChecker
}

// NewSeatHandler constructs a SeatHandler.
func NewSeatHandler(seats SeatStore, trips TripChecker) *SeatHandler {
	if seats == nil || trips == nil {
		panic("nil store passed to NewSeatHandler")
	}
	return &SeatHandler{Seats: seats, Trips: trips}
}

// ListSeats handles GET /api/asientos/:idViaje. Trip ids with the "mock-"
// prefix answer a deterministic synthetic seat map without touching storage;
// real trips get their layout generated on first read.
func (h *SeatHandler) ListSeats(c echo.Context) error {
	rawID := c.Param("idViaje")
	if strings.HasPrefix(rawID, "mock-") {
		seats := seatplan.Mock(rawID)
		return c.JSON(http.StatusOK, echo.Map{
			"success":     true,
			"idViaje":     rawID,
			"asientos":    seats,
			"total":       len(seats),
			"disponibles": countAvailableMock(seats),
		})
	}

	tripID, err := pathID(c, "idViaje")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id de viaje inválido"})
	}
	ctx := c.Request().Context()

	n, err := h.Seats.CountByTrip(ctx, tripID)
	if err != nil {
		return seatStorageErr(c, err)
	}
	if n == 0 {
		if err := h.generate(ctx, tripID); err != nil {
			if errors.Is(err, repository.ErrTripNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"error": "viaje no encontrado"})
			}
			return seatStorageErr(c, err)
		}
	}

	rows, err := h.Seats.ListByTrip(ctx, tripID)
	if err != nil {
		return seatStorageErr(c, err)
	}
	sortSeatRows(rows)

	available := 0
	asientos := make([]echo.Map, 0, len(rows))
	for _, s := range rows {
		if s.Available {
			available++
		}
		typ, charge, traits := seatplan.Annotate(s.Number)
		row, letter, _ := seatplan.Describe(s.Number)
		asientos = append(asientos, echo.Map{
			"idAsiento":       s.ID,
			"numero":          s.Number,
			"disponible":      s.Available,
			"clase":           s.Cabin,
			"idCabinaClase":   s.CabinClassID,
			"tipo":            typ,
			"precio":          charge,
			"caracteristicas": traits,
			"fila":            row,
			"letra":           letter,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":     true,
		"idViaje":     tripID,
		"asientos":    asientos,
		"total":       len(asientos),
		"disponibles": available,
	})
}

// seatStorageErr answers a storage failure without leaking a partial seat
// list.
func seatStorageErr(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, echo.Map{
		"success": false,
		"mensaje": "no se pudo cargar el mapa de asientos",
		"error":   err.Error(),
	})
}

// generate provisions the default layout for a trip that has no seats yet.
// CreateBulk uses INSERT IGNORE, so a concurrent generation of the same trip
// is harmless.
func (h *SeatHandler) generate(ctx context.Context, tripID uint64) error {
	exists, err := h.Trips.Exists(ctx, tripID)
	if err != nil {
		return err
	}
	if !exists {
		return repository.ErrTripNotFound
	}
	premiumID, err := h.Seats.EnsureCabinClass(ctx, cabinPremium, 1)
	if err != nil {
		return err
	}
	economyID, err := h.Seats.EnsureCabinClass(ctx, cabinEconomy, 2)
	if err != nil {
		return err
	}
	plan := seatplan.Default.Layout()
	seats := make([]model.Seat, 0, len(plan))
	for _, p := range plan {
		cabinID := economyID
		if p.Premium {
			cabinID = premiumID
		}
		seats = append(seats, model.Seat{
			TripID:       tripID,
			Number:       p.Number,
			CabinClassID: cabinID,
			Available:    true,
		})
	}
	return h.Seats.CreateBulk(ctx, seats)
}

// ReserveSeats handles POST /api/asientos/reservar. The whole selection is
// reserved atomically; if any seat was taken in the meantime the batch rolls
// back and nothing changes.
func (h *SeatHandler) ReserveSeats(c echo.Context) error {
	if _, err := getUserID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		PassengerID uint64                `json:"idPasajero"`
		Seats       []model.SeatSelection `json:"asientos"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo de solicitud inválido"})
	}
	if body.PassengerID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "idPasajero es requerido"})
	}
	if len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "asientos es requerido"})
	}
	seen := make(map[uint64]struct{}, len(body.Seats))
	for _, s := range body.Seats {
		if s.SeatID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "idAsiento inválido"})
		}
		if s.ExtraCharge < 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "precio de asiento inválido"})
		}
		if _, dup := seen[s.SeatID]; dup {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "asientos duplicados en la selección"})
		}
		seen[s.SeatID] = struct{}{}
	}

	if err := h.Seats.Reserve(c.Request().Context(), body.PassengerID, body.Seats); err != nil {
		if errors.Is(err, repository.ErrSeatNotFound) {
			return c.JSON(http.StatusBadRequest, echo.Map{
				"success": false,
				"mensaje": "uno o más asientos no existen",
				"error":   err.Error(),
			})
		}
		mensaje := "no se pudo completar la reserva de asientos"
		if errors.Is(err, repository.ErrSeatUnavailable) {
			mensaje = "uno o más asientos ya no están disponibles"
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"mensaje": mensaje,
			"error":   err.Error(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "mensaje": "asientos reservados"})
}

func countAvailableMock(seats []seatplan.MockSeat) int {
	n := 0
	for _, s := range seats {
		if s.Available == 1 {
			n++
		}
	}
	return n
}

// sortSeatRows orders seats row-numerically (2A before 12A) with letters as
// tiebreaker.
func sortSeatRows(rows []repository.SeatRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		ri, li, _ := seatplan.Describe(rows[i].Number)
		rj, lj, _ := seatplan.Describe(rows[j].Number)
		if ri != rj {
			return ri < rj
		}
		return li < lj
	})
}
