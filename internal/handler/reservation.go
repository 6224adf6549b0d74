package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/airlink-cl/airlink-api/internal/model"
	"github.com/airlink-cl/airlink-api/internal/queue"
	"github.com/airlink-cl/airlink-api/internal/repository"
)

// ReservationStore is the reservation access the handler needs.
// *repository.ReservationRepo satisfies it.
type ReservationStore interface {
	Create(ctx context.Context, in repository.CreateReservationInput) (*repository.ReservationDetail, error)
	GetByIDForUser(ctx context.Context, id, userID uint64) (*repository.ReservationDetail, error)
	ListByUser(ctx context.Context, userID uint64) ([]repository.ReservationSummary, error)
	ListAll(ctx context.Context) ([]repository.ReservationSummary, error)
	FindForCheckIn(ctx context.Context, rawCode, lastName string) (*repository.ReservationDetail, error)
}

// CouponStore looks up coupons by code.
type CouponStore interface {
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
}

// EventPublisher publishes the confirmation event after checkout. It is a
// function so tests can capture events without a broker.
type EventPublisher func(ctx context.Context, ev queue.ReservationConfirmedEvent) error

// ReservationHandler serves checkout, reservation reads and the public
// check-in lookup.
type ReservationHandler struct {
	Reservations ReservationStore
	Coupons      CouponStore
	Flights      FlightStore
	Publish      EventPublisher
	DisplayTZ    string
}

// NewReservationHandler constructs a ReservationHandler. Publish may be nil,
// in which case confirmation events are dropped.
func NewReservationHandler(res ReservationStore, coupons CouponStore, flights FlightStore, publish EventPublisher, displayTZ string) *ReservationHandler {
	if res == nil || coupons == nil || flights == nil {
		panic("nil store passed to NewReservationHandler")
	}
	return &ReservationHandler{
		Reservations: res,
		Coupons:      coupons,
		Flights:      flights,
		Publish:      publish,
		DisplayTZ:    displayTZ,
	}
}

type passengerInput struct {
	FirstName    string `json:"nombre"`
	LastName     string `json:"apellido"`
	Document     string `json:"documento"`
	DocumentType string `json:"tipoDocumento"`
	BirthDate    string `json:"fechaNacimiento"` // YYYY-MM-DD, optional
	Nationality  string `json:"nacionalidad"`
}

type createReservationBody struct {
	TripID     uint64                `json:"idViaje"`
	FareID     uint64                `json:"idTarifa"`
	Currency   string                `json:"moneda"`
	Passengers []passengerInput      `json:"pasajeros"`
	Lines      []model.BreakdownLine `json:"desglose"`
	CouponCode string                `json:"cupon"`
}

var validLineTypes = map[string]bool{
	model.LineOutbound: true,
	model.LineReturn:   true,
	model.LineSeats:    true,
	model.LineBus:      true,
	model.LineDiscount: true,
}

// Create handles POST /api/pagos/crear-reserva. Payment is simulated: the
// reservation is written as confirmed with a fresh payment reference, and
// the confirmation event is published best effort afterwards.
func (h *ReservationHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body createReservationBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo de solicitud inválido"})
	}
	if body.TripID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "idViaje es requerido"})
	}
	if len(body.Passengers) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "se requiere al menos un pasajero"})
	}
	if len(body.Lines) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "desglose es requerido"})
	}

	ctx := c.Request().Context()
	trip, err := h.Flights.GetDetail(ctx, body.TripID, h.DisplayTZ)
	if err != nil {
		if errors.Is(err, repository.ErrTripNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "viaje no encontrado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if trip.Status != model.TripScheduled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "el viaje no admite reservas"})
	}

	passengers, err := buildPassengers(body.Passengers)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	// Line categories and signs are validated here; the repository derives
	// the stored total from the lines so the two can never disagree.
	var subtotal, discountTotal int64
	for _, l := range body.Lines {
		if !validLineTypes[l.Type] {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "tipo de desglose inválido: " + l.Type})
		}
		if l.Type == model.LineDiscount {
			if l.Amount > 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "los descuentos deben ser negativos"})
			}
			discountTotal += l.Amount
		} else {
			if l.Amount < 0 {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "montos negativos solo en descuentos"})
			}
			subtotal += l.Amount
		}
	}
	if subtotal+discountTotal <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "el total debe ser mayor que cero"})
	}

	applied, err := h.resolveCoupon(ctx, body.CouponCode, subtotal, discountTotal)
	if err != nil {
		var ce couponError
		if errors.As(err, &ce) {
			return c.JSON(ce.status, echo.Map{"error": ce.message})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	paymentRef := uuid.NewString()
	detail, err := h.Reservations.Create(ctx, repository.CreateReservationInput{
		UserID:     userID,
		TripID:     body.TripID,
		FareID:     body.FareID,
		Status:     model.ReservationConfirmed,
		Currency:   currencyOrDefault(body.Currency),
		PaymentRef: &paymentRef,
		Lines:      body.Lines,
		Passengers: passengers,
		Coupon:     applied,
	})
	if err != nil {
		if errors.Is(err, repository.ErrFareSoldOut) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "la tarifa seleccionada se ha agotado"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "no se pudo crear la reserva"})
	}

	h.publishConfirmed(detail, trip)

	return c.JSON(http.StatusCreated, echo.Map{
		"reserva":   reservationJSON(detail),
		"pasajeros": passengersJSON(detail.Passengers),
	})
}

// couponError carries an HTTP status alongside the user-facing message.
type couponError struct {
	status  int
	message string
}

func (e couponError) Error() string { return e.message }

// resolveCoupon validates the coupon against the pre-discount subtotal and
// checks that the client's discount lines match the computed discount. When
// no coupon is sent, discount lines are rejected.
func (h *ReservationHandler) resolveCoupon(ctx context.Context, code string, subtotal, discountTotal int64) (*repository.AppliedCoupon, error) {
	if code == "" {
		if discountTotal != 0 {
			return nil, couponError{http.StatusBadRequest, "descuento sin cupón"}
		}
		return nil, nil
	}
	cp, err := h.Coupons.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return nil, couponError{http.StatusBadRequest, "Cupón inválido o no existe"}
		}
		return nil, err
	}
	if ok, reason := cp.Usable(time.Now().UTC()); !ok {
		return nil, couponError{http.StatusBadRequest, reason}
	}
	discount, minRequired, ok := cp.Discount(subtotal)
	if !ok {
		return nil, couponError{http.StatusBadRequest,
			"El monto mínimo de compra para este cupón es $" + strconv.FormatInt(minRequired, 10)}
	}
	if discountTotal != -discount {
		return nil, couponError{http.StatusBadRequest, "el descuento no coincide con el cupón"}
	}
	return &repository.AppliedCoupon{CouponID: cp.ID, Amount: discount}, nil
}

func (h *ReservationHandler) publishConfirmed(detail *repository.ReservationDetail, trip *repository.TripDetail) {
	if h.Publish == nil {
		return
	}
	names := make([]string, 0, len(detail.Passengers))
	for _, p := range detail.Passengers {
		names = append(names, p.FirstName+" "+p.LastName)
	}
	ref := ""
	if detail.PaymentRef != nil {
		ref = *detail.PaymentRef
	}
	ev := queue.ReservationConfirmedEvent{
		ReservationID: detail.ID,
		BookingCode:   detail.Code,
		UserID:        detail.UserID,
		TripID:        detail.TripID,
		OriginCode:    trip.OriginCode,
		DestCode:      trip.DestCode,
		Departure:     trip.DateLocal + " " + trip.DepartureLocal,
		Passengers:    names,
		Total:         detail.Total,
		Currency:      detail.Currency,
		PaymentRef:    ref,
		ConfirmedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = h.Publish(ctx, ev) // best effort, already logged by the publisher
	}()
}

// Get handles GET /api/reservas/:id. Ownership is enforced by the store;
// foreign reservations answer 403.
func (h *ReservationHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "id de reserva inválido"})
	}
	ctx := c.Request().Context()
	detail, err := h.Reservations.GetByIDForUser(ctx, id, userID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrReservationNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reserva no encontrada"})
		case errors.Is(err, repository.ErrForbidden):
			return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusOK, h.detailJSON(ctx, detail))
}

// List handles GET /api/reservas: the caller's reservations, newest first.
func (h *ReservationHandler) List(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	items, err := h.Reservations.ListByUser(c.Request().Context(), userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(items))
	for _, s := range items {
		out = append(out, echo.Map{
			"idReserva":    s.ID,
			"codigo":       s.Code,
			"estado":       s.Status,
			"fechaReserva": s.CreatedAt.UTC().Format(time.RFC3339),
			"montoTotal":   s.Total,
			"moneda":       s.Currency,
			"origen":       echo.Map{"codigo": s.OriginCode, "ciudad": s.OriginCity},
			"destino":      echo.Map{"codigo": s.DestCode, "ciudad": s.DestCity},
			"salida":       s.Departure.UTC().Format(time.RFC3339),
			"pasajeros":    s.Passengers,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservas": out, "total": len(out)})
}

// ListAll handles GET /api/admin/reservas: every reservation in the system,
// newest first. The route is gated to the ADMIN role.
func (h *ReservationHandler) ListAll(c echo.Context) error {
	items, err := h.Reservations.ListAll(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]echo.Map, 0, len(items))
	for _, s := range items {
		out = append(out, echo.Map{
			"idReserva":    s.ID,
			"codigo":       s.Code,
			"idUsuario":    s.UserID,
			"estado":       s.Status,
			"fechaReserva": s.CreatedAt.UTC().Format(time.RFC3339),
			"montoTotal":   s.Total,
			"moneda":       s.Currency,
			"origen":       echo.Map{"codigo": s.OriginCode, "ciudad": s.OriginCity},
			"destino":      echo.Map{"codigo": s.DestCode, "ciudad": s.DestCity},
			"salida":       s.Departure.UTC().Format(time.RFC3339),
			"pasajeros":    s.Passengers,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"reservas": out, "total": len(out)})
}

// CheckIn handles POST /api/reservas/buscar-checkin: the unauthenticated
// lookup by booking code (or reservation id) plus passenger last name.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	var body struct {
		Code     string `json:"codigo"`
		LastName string `json:"apellido"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo de solicitud inválido"})
	}
	if body.Code == "" || body.LastName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "codigo y apellido son requeridos"})
	}
	ctx := c.Request().Context()
	detail, err := h.Reservations.FindForCheckIn(ctx, body.Code, body.LastName)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reserva no encontrada"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	// Check-in opens 24 hours before departure and closes at departure.
	if trip, err := h.Flights.GetDetail(ctx, detail.TripID, h.DisplayTZ); err == nil {
		now := time.Now().UTC()
		if trip.Departure.Before(now) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "el vuelo ya ha partido"})
		}
		if trip.Departure.Sub(now) > 24*time.Hour {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "el check-in abre 24 horas antes de la salida"})
		}
	}
	return c.JSON(http.StatusOK, h.detailJSON(ctx, detail))
}

// detailJSON renders a reservation with its breakdown, passengers and the
// booked trip. The trip lookup is best effort: a reservation remains
// readable even if its trip row was archived.
func (h *ReservationHandler) detailJSON(ctx context.Context, detail *repository.ReservationDetail) echo.Map {
	out := echo.Map{
		"reserva":   reservationJSON(detail),
		"desglose":  detail.Lines,
		"pasajeros": passengersJSON(detail.Passengers),
	}
	if trip, err := h.Flights.GetDetail(ctx, detail.TripID, h.DisplayTZ); err == nil {
		out["vuelo"] = echo.Map{
			"idViaje":     trip.TripID,
			"fecha":       trip.DateLocal,
			"horaSalida":  trip.DepartureLocal,
			"horaLlegada": trip.ArrivalLocal,
			"origen":      echo.Map{"codigo": trip.OriginCode, "ciudad": trip.OriginCity},
			"destino":     echo.Map{"codigo": trip.DestCode, "ciudad": trip.DestCity},
			"aerolinea":   echo.Map{"nombre": trip.Airline, "logo": trip.AirlineLogo},
		}
	}
	return out
}

func reservationJSON(d *repository.ReservationDetail) echo.Map {
	return echo.Map{
		"idReserva":      d.ID,
		"codigo":         d.Code,
		"idViaje":        d.TripID,
		"estado":         d.Status,
		"fechaReserva":   d.CreatedAt.UTC().Format(time.RFC3339),
		"montoTotal":     d.Total,
		"moneda":         d.Currency,
		"referenciaPago": d.PaymentRef,
	}
}

func passengersJSON(pax []repository.PassengerWithSeats) []echo.Map {
	out := make([]echo.Map, 0, len(pax))
	for _, p := range pax {
		out = append(out, echo.Map{
			"idPasajero":    p.ID,
			"nombre":        p.FirstName,
			"apellido":      p.LastName,
			"documento":     p.Document,
			"tipoDocumento": p.DocumentType,
			"nacionalidad":  p.Nationality,
			"asientos":      p.Seats,
		})
	}
	return out
}

func buildPassengers(inputs []passengerInput) ([]model.Passenger, error) {
	out := make([]model.Passenger, 0, len(inputs))
	for _, in := range inputs {
		if in.FirstName == "" || in.LastName == "" || in.Document == "" {
			return nil, errors.New("cada pasajero requiere nombre, apellido y documento")
		}
		p := model.Passenger{
			FirstName:    in.FirstName,
			LastName:     in.LastName,
			Document:     in.Document,
			DocumentType: in.DocumentType,
			Nationality:  in.Nationality,
		}
		if p.DocumentType == "" {
			p.DocumentType = "DNI"
		}
		if p.Nationality == "" {
			p.Nationality = "CL"
		}
		if in.BirthDate != "" {
			t, err := time.Parse("2006-01-02", in.BirthDate)
			if err != nil {
				return nil, errors.New("fechaNacimiento inválida, formato YYYY-MM-DD")
			}
			p.BirthDate = &t
		}
		out = append(out, p)
	}
	return out, nil
}

func currencyOrDefault(cur string) string {
	if cur == "" {
		return "CLP"
	}
	return cur
}
