package model

import "time"

// Reservation states as stored in reserva.estado.
const (
	ReservationPending   = "pendiente"
	ReservationConfirmed = "confirmada"
	ReservationCancelled = "cancelada"
)

// Breakdown line categories as stored in reserva_detalle.tipo. Discounts
// carry a negative amount; everything else is positive.
const (
	LineOutbound = "vuelo_ida"
	LineReturn   = "vuelo_vuelta"
	LineSeats    = "asientos"
	LineBus      = "bus"
	LineDiscount = "descuento"
)

// Reservation aggregates the trips, passengers, seats and price breakdown of
// one purchase. It is owned by the user who created it; read access is
// restricted to that owner.
//
// Fields:
//  ID         – primary key identifier.
//  Code       – human-facing booking code (RESyymmddXXXX).
//  UserID     – owning user.
//  TripID     – primary trip of the reservation.
//  CreatedAt  – when the reservation was made.
//  Status     – pendiente, confirmada or cancelada.
//  Total      – total amount in whole CLP; equals the sum of breakdown lines.
//  Currency   – ISO currency code, CLP in practice.
//  PaymentRef – external payment reference, nil until a payment attaches.
type Reservation struct {
	ID         uint64    // reserva.idReserva
	Code       string    // reserva.codigo_reserva
	UserID     uint64    // reserva.idUsuario
	TripID     uint64    // reserva.idViaje
	CreatedAt  time.Time // reserva.fecha_reserva
	Status     string    // reserva.estado
	Total      int64     // reserva.monto_total
	Currency   string    // reserva.moneda
	PaymentRef *string   // reserva.referencia_pago (nullable)
}

// BreakdownLine is one categorized line item of a reservation's price
// breakdown. Metadata carries the free-form JSON the frontend stored at
// checkout (flight times, seat lists, coupon codes).
type BreakdownLine struct {
	Type        string `json:"tipo"`
	Description string `json:"descripcion"`
	Amount      int64  `json:"monto"`
	Metadata    string `json:"metadata,omitempty"`
}

// BreakdownTotal sums the line amounts. For any persisted reservation the
// result must equal Reservation.Total exactly; CLP has no decimals so there
// is no rounding tolerance to account for.
func BreakdownTotal(lines []BreakdownLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Amount
	}
	return total
}

// Passenger is the traveller a reservation was made for. Seats link to
// passengers, not directly to reservations.
type Passenger struct {
	ID            uint64     // pasajero.idPasajero
	ReservationID uint64     // pasajero.idReserva
	FirstName     string     // pasajero.nombrePasajero
	LastName      string     // pasajero.apellidoPasajero
	Document      string     // pasajero.documento
	DocumentType  string     // pasajero.tipo_documento
	BirthDate     *time.Time // pasajero.fecha_nacimiento (nullable)
	Nationality   string     // pasajero.nacionalidad
}
