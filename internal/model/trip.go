package model

// Trip status values as stored in viaje.estado. Trips are created by the
// back-office scheduling process; the booking flow only reads them, always
// joined with their route and equipment, so the repository exposes joined
// row types instead of a bare table mirror.
const (
	TripScheduled = "programado"
	TripCancelled = "cancelado"
	TripCompleted = "completado"
)
