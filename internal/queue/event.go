// Package queue defines message payloads exchanged over the message broker
// and the background consumer that processes them.
package queue

// ReservationConfirmedEvent is published when a checkout completes and the
// reservation is confirmed. It carries enough context for downstream
// consumers (itinerary mail, analytics) to act without querying the primary
// database.
type ReservationConfirmedEvent struct {
	ReservationID uint64   `json:"reservation_id"`
	BookingCode   string   `json:"codigo_reserva"`
	UserID        uint64   `json:"user_id"`
	TripID        uint64   `json:"trip_id"`
	OriginCode    string   `json:"origen"`
	DestCode      string   `json:"destino"`
	Departure     string   `json:"salida"`
	Passengers    []string `json:"pasajeros"`
	SeatNumbers   []string `json:"asientos"`
	Total         int64    `json:"monto_total"`
	Currency      string   `json:"moneda"`
	PaymentRef    string   `json:"referencia_pago"`
	ConfirmedAt   string   `json:"confirmed_at"`
}
