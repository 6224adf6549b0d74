package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// FlightRow is one result of a flight search: a scheduled trip joined with
// its route, terminals, airline and fare aggregates. Times are formatted in
// the display timezone the caller asked for; PriceFrom is nil for trips that
// have no priced fares yet.
type FlightRow struct {
	TripID         uint64
	DateLocal      string // YYYY-MM-DD
	DepartureLocal string // HH:MM
	ArrivalLocal   string // HH:MM
	OriginCode     string
	OriginCity     string
	OriginTerminal string
	DestCode       string
	DestCity       string
	DestTerminal   string
	Airline        string
	AirlineLogo    *string
	EquipmentModel string
	Registration   string
	Status         string
	DurationMin    uint32
	DistanceKm     uint32
	PriceFrom      *int64
	FareCount      uint32
	SeatsLeft      int64
}

// TripDetail is the full description of a single trip, as shown on the trip
// page before fare selection.
type TripDetail struct {
	TripID         uint64
	Departure      time.Time // UTC
	Arrival        time.Time // UTC
	DateLocal      string
	DepartureLocal string
	ArrivalLocal   string
	Status         string
	OriginCode     string
	OriginCity     string
	OriginTerminal string
	DestCode       string
	DestCity       string
	DestTerminal   string
	Airline        string
	AirlineLogo    *string
	EquipmentModel string
	Registration   string
	Capacity       uint32
	DurationMin    uint32
	DistanceKm     uint32
}

// DayAvailability summarizes one calendar day of the availability calendar:
// how many scheduled flights depart that day and the cheapest fare among
// them.
type DayAvailability struct {
	Date      string // YYYY-MM-DD in the display timezone
	Flights   uint32
	PriceFrom *int64
}

// FlightRepo provides read access to scheduled trips.
type FlightRepo struct {
	db *sql.DB
}

// NewFlightRepo constructs a FlightRepo with the given DB handle.
func NewFlightRepo(db *sql.DB) *FlightRepo {
	return &FlightRepo{db: db}
}

// fromJoins is the table spine shared by the search queries. Fare rows with
// exhausted quota are excluded so aggregates reflect what is actually
// bookable; the NULL branch keeps trips that have no fares at all.
const fromJoins = `
	   FROM viaje v
	   JOIN ruta r        ON r.idRuta = v.idRuta
	   JOIN terminal torig ON torig.idTerminal = r.idTerminalOrigen
	   JOIN terminal tdest ON tdest.idTerminal = r.idTerminalDestino
	   JOIN empresa_equipo eq ON eq.idEquipo = v.idEquipo
	   JOIN empresa e     ON e.idEmpresa = eq.idEmpresa
	   LEFT JOIN viaje_tarifa vt ON vt.idViaje = v.idViaje
	   WHERE v.estado = 'programado'
		 AND (vt.cupos IS NULL OR vt.cupos > 0)`

// Search lists the scheduled trips between two terminals departing on a
// given local date, cheapest first; trips without priced fares come last.
// fareClass narrows results to trips offering that cabin class ("" means any).
// tz must be a valid IANA zone name (the handler validates it before
// calling); date is YYYY-MM-DD in that zone.
func (r *FlightRepo) Search(ctx context.Context, originID, destinationID uint64, date, fareClass, tz string) ([]FlightRow, error) {
	q := `SELECT v.idViaje, v.estado,
			  DATE_FORMAT(CONVERT_TZ(v.salida, '+00:00', ?), '%Y-%m-%d'),
			  TIME_FORMAT(CONVERT_TZ(v.salida, '+00:00', ?), '%H:%i'),
			  TIME_FORMAT(CONVERT_TZ(v.llegada, '+00:00', ?), '%H:%i'),
			  torig.codigo, torig.ciudad, torig.nombreTerminal,
			  tdest.codigo, tdest.ciudad, tdest.nombreTerminal,
			  e.nombreEmpresa, e.logo, eq.modelo, eq.matricula,
			  r.duracionEstimadaMin, r.distanciaKm,
			  MIN(vt.precio), COUNT(DISTINCT vt.idTarifa), COALESCE(SUM(vt.cupos), 0)` +
		fromJoins + `
		 AND r.idTerminalOrigen = ?
		 AND r.idTerminalDestino = ?
		 AND DATE(CONVERT_TZ(v.salida, '+00:00', ?)) = ?`
	args := []any{tz, tz, tz, originID, destinationID, tz, date}
	if fareClass != "" {
		q += `
		 AND EXISTS (SELECT 1
			   FROM viaje_tarifa vtc
			   JOIN tarifa tc       ON tc.idTarifa = vtc.idTarifa
			   JOIN cabina_clase cc ON cc.idCabinaClase = tc.idCabinaClase
			  WHERE vtc.idViaje = v.idViaje AND cc.nombre = ?)`
		args = append(args, fareClass)
	}
	q += `
	   GROUP BY v.idViaje
	   ORDER BY (MIN(vt.precio) IS NULL), MIN(vt.precio), v.idViaje`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []FlightRow
	for rows.Next() {
		var f FlightRow
		var priceFrom sql.NullInt64
		if err := rows.Scan(
			&f.TripID, &f.Status, &f.DateLocal, &f.DepartureLocal, &f.ArrivalLocal,
			&f.OriginCode, &f.OriginCity, &f.OriginTerminal,
			&f.DestCode, &f.DestCity, &f.DestTerminal,
			&f.Airline, &f.AirlineLogo, &f.EquipmentModel, &f.Registration,
			&f.DurationMin, &f.DistanceKm,
			&priceFrom, &f.FareCount, &f.SeatsLeft,
		); err != nil {
			return nil, err
		}
		if priceFrom.Valid {
			f.PriceFrom = &priceFrom.Int64
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Availability returns, for each local date in [from, to], the number of
// scheduled flights between the two terminals and the cheapest fare on that
// day. Days without flights are absent from the result.
func (r *FlightRepo) Availability(ctx context.Context, originID, destinationID uint64, from, to, tz string) ([]DayAvailability, error) {
	const q = `SELECT DATE(CONVERT_TZ(v.salida, '+00:00', ?)) AS fecha,
			  COUNT(DISTINCT v.idViaje), MIN(vt.precio)` +
		fromJoins + `
		 AND r.idTerminalOrigen = ?
		 AND r.idTerminalDestino = ?
		 AND DATE(CONVERT_TZ(v.salida, '+00:00', ?)) BETWEEN ? AND ?
	   GROUP BY fecha
	   ORDER BY fecha`
	rows, err := r.db.QueryContext(ctx, q, tz, originID, destinationID, tz, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []DayAvailability
	for rows.Next() {
		var d DayAvailability
		var priceFrom sql.NullInt64
		if err := rows.Scan(&d.Date, &d.Flights, &priceFrom); err != nil {
			return nil, err
		}
		if priceFrom.Valid {
			d.PriceFrom = &priceFrom.Int64
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// GetDetail retrieves a single trip with its route, terminals and equipment.
// Cancelled and completed trips are still returned; the status field lets
// callers decide what to do with them.
func (r *FlightRepo) GetDetail(ctx context.Context, tripID uint64, tz string) (*TripDetail, error) {
	const q = `SELECT v.idViaje, v.salida, v.llegada, v.estado,
			  DATE_FORMAT(CONVERT_TZ(v.salida, '+00:00', ?), '%Y-%m-%d'),
			  TIME_FORMAT(CONVERT_TZ(v.salida, '+00:00', ?), '%H:%i'),
			  TIME_FORMAT(CONVERT_TZ(v.llegada, '+00:00', ?), '%H:%i'),
			  torig.codigo, torig.ciudad, torig.nombreTerminal,
			  tdest.codigo, tdest.ciudad, tdest.nombreTerminal,
			  e.nombreEmpresa, e.logo, eq.modelo, eq.matricula, eq.capacidad,
			  r.duracionEstimadaMin, r.distanciaKm
	   FROM viaje v
	   JOIN ruta r        ON r.idRuta = v.idRuta
	   JOIN terminal torig ON torig.idTerminal = r.idTerminalOrigen
	   JOIN terminal tdest ON tdest.idTerminal = r.idTerminalDestino
	   JOIN empresa_equipo eq ON eq.idEquipo = v.idEquipo
	   JOIN empresa e     ON e.idEmpresa = eq.idEmpresa
	   WHERE v.idViaje = ?`
	var d TripDetail
	err := r.db.QueryRowContext(ctx, q, tz, tz, tz, tripID).Scan(
		&d.TripID, &d.Departure, &d.Arrival, &d.Status,
		&d.DateLocal, &d.DepartureLocal, &d.ArrivalLocal,
		&d.OriginCode, &d.OriginCity, &d.OriginTerminal,
		&d.DestCode, &d.DestCity, &d.DestTerminal,
		&d.Airline, &d.AirlineLogo, &d.EquipmentModel, &d.Registration, &d.Capacity,
		&d.DurationMin, &d.DistanceKm,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}
	return &d, nil
}

// Exists reports whether a trip row exists, regardless of status.
func (r *FlightRepo) Exists(ctx context.Context, tripID uint64) (bool, error) {
	const q = `SELECT 1 FROM viaje WHERE idViaje = ?`
	var one int
	err := r.db.QueryRowContext(ctx, q, tripID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
