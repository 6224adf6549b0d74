package repository

import (
	"context"
	"database/sql"

	"github.com/airlink-cl/airlink-api/internal/model"
)

// SeatRow is a trip seat joined with its cabin class name for display.
type SeatRow struct {
	model.Seat
	Cabin string
}

// SeatRepo provides data access for trip seats and seat assignments.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo constructs a SeatRepo with the given DB handle.
func NewSeatRepo(db *sql.DB) *SeatRepo {
	return &SeatRepo{db: db}
}

// ListByTrip retrieves all seats of a trip with their cabin class, ordered
// by seat number. Callers sort row-numerically in memory; numero is a short
// varchar so SQL ordering would put "2A" after "12A".
func (r *SeatRepo) ListByTrip(ctx context.Context, tripID uint64) ([]SeatRow, error) {
	const q = `SELECT a.idAsiento, a.idViaje, a.numero, a.idCabinaClase, a.disponible,
			  cc.nombreCabinaClase
	   FROM asiento a
	   JOIN cabina_clase cc ON cc.idCabinaClase = a.idCabinaClase
	   WHERE a.idViaje = ?
	   ORDER BY a.numero`
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []SeatRow
	for rows.Next() {
		var s SeatRow
		if err := rows.Scan(
			&s.ID, &s.TripID, &s.Number, &s.CabinClassID, &s.Available, &s.Cabin,
		); err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// CountByTrip reports how many seat rows exist for a trip. Zero means the
// layout has not been generated yet.
func (r *SeatRepo) CountByTrip(ctx context.Context, tripID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM asiento WHERE idViaje = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, q, tripID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// EnsureCabinClass returns the id of the cabin class with the given name,
// creating it when missing. Used by lazy seat generation so a fresh database
// does not need pre-seeded cabin classes.
func (r *SeatRepo) EnsureCabinClass(ctx context.Context, name string, priority uint32) (uint64, error) {
	const sel = `SELECT idCabinaClase FROM cabina_clase WHERE nombreCabinaClase = ?`
	var id uint64
	err := r.db.QueryRowContext(ctx, sel, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	const ins = `INSERT INTO cabina_clase (nombreCabinaClase, prioridad) VALUES (?, ?)`
	res, err := r.db.ExecContext(ctx, ins, name, priority)
	if err != nil {
		return 0, err
	}
	lastID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(lastID), nil
}

// CreateBulk inserts the seats of a trip in a single statement. INSERT
// IGNORE together with the unique (idViaje, numero) key makes generation
// idempotent: when two requests race to generate the same trip, each seat
// row is created exactly once and the loser's duplicates are dropped.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT IGNORE INTO asiento (idViaje, numero, idCabinaClase, disponible) VALUES `
	args := make([]interface{}, 0, len(seats)*4)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?)"
		args = append(args, s.TripID, s.Number, s.CabinClassID, s.Available)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Reserve atomically assigns the selected seats to a passenger. Each seat is
// claimed with a guarded update; a seat that was taken since the client saw
// the seat map makes the guard miss, and the whole batch rolls back with
// ErrSeatUnavailable so the client never ends up with a partial selection.
func (r *SeatRepo) Reserve(ctx context.Context, passengerID uint64, selections []model.SeatSelection) error {
	if len(selections) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const claim = `UPDATE asiento SET disponible = 0 WHERE idAsiento = ? AND disponible = 1`
	const exists = `SELECT COUNT(*) FROM asiento WHERE idAsiento = ?`
	const link = `INSERT INTO pasajero_asiento (idPasajero, idAsiento, cargo_extra) VALUES (?, ?, ?)`
	for _, sel := range selections {
		res, err := tx.ExecContext(ctx, claim, sel.SeatID)
		if err != nil {
			return err
		}
		if affected, _ := res.RowsAffected(); affected == 0 {
			// zero rows claimed: either the seat id is bogus or a
			// concurrent transaction got there first
			var n int
			if err := tx.QueryRowContext(ctx, exists, sel.SeatID).Scan(&n); err != nil {
				return err
			}
			if n == 0 {
				return ErrSeatNotFound
			}
			return ErrSeatUnavailable
		}
		if _, err := tx.ExecContext(ctx, link, passengerID, sel.SeatID, sel.ExtraCharge); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AssignedSeat is a seat already linked to a passenger.
type AssignedSeat struct {
	SeatID      uint64 `json:"idAsiento"`
	Number      string `json:"numero"`
	ExtraCharge int64  `json:"cargoExtra"`
}
