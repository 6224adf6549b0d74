package model

// Seat is a physical seat slot on a specific trip's equipment. The
// availability flag starts true and is flipped to false exactly once by the
// reservation transaction; the booking flow never resets it.
//
// Fields:
//  ID           – primary key identifier.
//  TripID       – trip this seat belongs to.
//  Number       – seat number like "12C" (unique per trip).
//  CabinClassID – cabin class of the seat.
//  Available    – false once reserved.
type Seat struct {
	ID           uint64 // asiento.idAsiento
	TripID       uint64 // asiento.idViaje
	Number       string // asiento.numero
	CabinClassID uint64 // asiento.idCabinaClase
	Available    bool   // asiento.disponible
}

// SeatSelection is one requested seat in a reservation batch, as submitted
// by the client: the seat to reserve plus the extra charge agreed for it.
type SeatSelection struct {
	SeatID      uint64 `json:"idAsiento"`
	ExtraCharge int64  `json:"precio"`
}
