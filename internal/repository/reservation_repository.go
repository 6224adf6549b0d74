package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/airlink-cl/airlink-api/internal/model"
)

// AppliedCoupon is the coupon a checkout wants redeemed together with the
// reservation, with the discount amount already computed and validated.
type AppliedCoupon struct {
	CouponID uint64
	Amount   int64
}

// CreateReservationInput carries everything the checkout collected. Total is
// not part of the input: the repository derives it from the breakdown lines
// so the stored total always equals their sum. A non-zero FareID consumes
// one quota unit per passenger from that trip fare.
type CreateReservationInput struct {
	UserID     uint64
	TripID     uint64
	FareID     uint64
	Status     string
	Currency   string
	PaymentRef *string
	Lines      []model.BreakdownLine
	Passengers []model.Passenger
	Coupon     *AppliedCoupon
}

// PassengerWithSeats is a reservation passenger together with the seats
// assigned to them.
type PassengerWithSeats struct {
	model.Passenger
	Seats []AssignedSeat
}

// ReservationDetail is a reservation with its breakdown, passengers and a
// summary of the trip it books.
type ReservationDetail struct {
	model.Reservation
	Lines      []model.BreakdownLine
	Passengers []PassengerWithSeats
	Trip       *TripDetail
}

// ReservationSummary is one row of a user's reservation list.
type ReservationSummary struct {
	model.Reservation
	OriginCode string
	OriginCity string
	DestCode   string
	DestCity   string
	Departure  time.Time
	Passengers int
}

// ReservationRepo provides data access for reservations.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo constructs a ReservationRepo with the given DB handle.
func NewReservationRepo(db *sql.DB) *ReservationRepo {
	return &ReservationRepo{db: db}
}

const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// newBookingCode builds a fresh booking code: RES + yymmdd + 4 random
// characters from an alphabet without lookalikes (no O/0, no I/1).
func newBookingCode(now time.Time) string {
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return "RES" + now.Format("060102") + string(suffix)
}

// NormalizeBookingCode reduces the free-form check-in input to either a
// booking code or a numeric reservation id. "RES-6", "res 6" and "6" all
// resolve to id 6; "RES260102XKPT" resolves to that code.
func NormalizeBookingCode(raw string) (code string, id uint64) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.NewReplacer("-", "", " ", "").Replace(s)
	digits := strings.TrimPrefix(s, "RES")
	if n, err := strconv.ParseUint(digits, 10, 64); err == nil {
		return "", n
	}
	return s, 0
}

// Create persists a reservation with its breakdown lines and passengers in
// one transaction, redeeming the coupon when one applies. The booking code
// is regenerated on a duplicate-key collision. The stored total is the sum
// of the breakdown lines.
func (r *ReservationRepo) Create(ctx context.Context, in CreateReservationInput) (*ReservationDetail, error) {
	if len(in.Lines) == 0 {
		return nil, fmt.Errorf("reservation without breakdown lines")
	}
	total := model.BreakdownTotal(in.Lines)
	now := time.Now().UTC()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const insRes = `INSERT INTO reserva
		   (codigo_reserva, idUsuario, idViaje, fecha_reserva, estado, monto_total, moneda, referencia_pago)
		   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var (
		code  string
		resID uint64
	)
	for attempt := 0; ; attempt++ {
		code = newBookingCode(now)
		res, err := tx.ExecContext(ctx, insRes,
			code, in.UserID, in.TripID, now, in.Status, total, in.Currency, in.PaymentRef)
		if err != nil {
			if isDuplicateKey(err) && attempt < 5 {
				continue
			}
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		resID = uint64(id)
		break
	}

	const insLine = `INSERT INTO reserva_detalle (idReserva, tipo, descripcion, monto, metadata)
		   VALUES (?, ?, ?, ?, ?)`
	for _, l := range in.Lines {
		var meta interface{}
		if l.Metadata != "" {
			meta = l.Metadata
		}
		if _, err := tx.ExecContext(ctx, insLine, resID, l.Type, l.Description, l.Amount, meta); err != nil {
			return nil, err
		}
	}

	const insPax = `INSERT INTO pasajero
		   (idReserva, nombrePasajero, apellidoPasajero, documento, tipo_documento, fecha_nacimiento, nacionalidad)
		   VALUES (?, ?, ?, ?, ?, ?, ?)`
	passengers := make([]PassengerWithSeats, 0, len(in.Passengers))
	for _, p := range in.Passengers {
		res, err := tx.ExecContext(ctx, insPax,
			resID, p.FirstName, p.LastName, p.Document, p.DocumentType, p.BirthDate, p.Nationality)
		if err != nil {
			return nil, err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, err
		}
		p.ID = uint64(id)
		p.ReservationID = resID
		passengers = append(passengers, PassengerWithSeats{Passenger: p})
	}

	if in.FareID != 0 {
		if err := DecrementQuota(ctx, tx, in.TripID, in.FareID, int32(len(in.Passengers))); err != nil {
			return nil, err
		}
	}

	if in.Coupon != nil {
		if err := ApplyTx(ctx, tx, resID, in.Coupon.CouponID, in.Coupon.Amount); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	committed = true

	return &ReservationDetail{
		Reservation: model.Reservation{
			ID:         resID,
			Code:       code,
			UserID:     in.UserID,
			TripID:     in.TripID,
			CreatedAt:  now,
			Status:     in.Status,
			Total:      total,
			Currency:   in.Currency,
			PaymentRef: in.PaymentRef,
		},
		Lines:      in.Lines,
		Passengers: passengers,
	}, nil
}

// isDuplicateKey detects a MySQL 1062 duplicate-entry error without binding
// the repository to the driver's error type.
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(err.Error(), "Error 1062")
}

const reservationColumns = `r.idReserva, r.codigo_reserva, r.idUsuario, r.idViaje,
		   r.fecha_reserva, r.estado, r.monto_total, r.moneda, r.referencia_pago`

func scanReservation(row interface{ Scan(...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.Code, &res.UserID, &res.TripID,
		&res.CreatedAt, &res.Status, &res.Total, &res.Currency, &res.PaymentRef)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByIDForUser retrieves a reservation with its breakdown and passengers,
// enforcing ownership. A reservation that exists but belongs to someone else
// yields ErrForbidden, not ErrReservationNotFound, so handlers can answer
// 403 instead of leaking existence through timing.
func (r *ReservationRepo) GetByIDForUser(ctx context.Context, id, userID uint64) (*ReservationDetail, error) {
	const q = `SELECT ` + reservationColumns + ` FROM reserva r WHERE r.idReserva = ?`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	if res.UserID != userID {
		return nil, ErrForbidden
	}
	return r.loadDetail(ctx, res)
}

// loadDetail fills the breakdown lines and passengers of a reservation.
func (r *ReservationRepo) loadDetail(ctx context.Context, res *model.Reservation) (*ReservationDetail, error) {
	detail := &ReservationDetail{Reservation: *res}

	const lines = `SELECT tipo, descripcion, monto, COALESCE(metadata, '')
	   FROM reserva_detalle WHERE idReserva = ? ORDER BY idDetalle`
	rows, err := r.db.QueryContext(ctx, lines, res.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var l model.BreakdownLine
		if err := rows.Scan(&l.Type, &l.Description, &l.Amount, &l.Metadata); err != nil {
			return nil, err
		}
		detail.Lines = append(detail.Lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	const pax = `SELECT idPasajero, idReserva, nombrePasajero, apellidoPasajero,
			  documento, tipo_documento, fecha_nacimiento, nacionalidad
	   FROM pasajero WHERE idReserva = ? ORDER BY idPasajero`
	prows, err := r.db.QueryContext(ctx, pax, res.ID)
	if err != nil {
		return nil, err
	}
	defer prows.Close()
	for prows.Next() {
		var p model.Passenger
		if err := prows.Scan(&p.ID, &p.ReservationID, &p.FirstName, &p.LastName,
			&p.Document, &p.DocumentType, &p.BirthDate, &p.Nationality); err != nil {
			return nil, err
		}
		detail.Passengers = append(detail.Passengers, PassengerWithSeats{Passenger: p})
	}
	if err := prows.Err(); err != nil {
		return nil, err
	}

	const seats = `SELECT pa.idPasajero, a.idAsiento, a.numero, pa.cargo_extra
	   FROM pasajero_asiento pa
	   JOIN asiento a ON a.idAsiento = pa.idAsiento
	   JOIN pasajero p ON p.idPasajero = pa.idPasajero
	   WHERE p.idReserva = ?
	   ORDER BY a.numero`
	srows, err := r.db.QueryContext(ctx, seats, res.ID)
	if err != nil {
		return nil, err
	}
	defer srows.Close()
	byPassenger := make(map[uint64][]AssignedSeat)
	for srows.Next() {
		var (
			pid  uint64
			seat AssignedSeat
		)
		if err := srows.Scan(&pid, &seat.SeatID, &seat.Number, &seat.ExtraCharge); err != nil {
			return nil, err
		}
		byPassenger[pid] = append(byPassenger[pid], seat)
	}
	if err := srows.Err(); err != nil {
		return nil, err
	}
	for i := range detail.Passengers {
		detail.Passengers[i].Seats = byPassenger[detail.Passengers[i].ID]
	}
	return detail, nil
}

// ListByUser lists a user's reservations newest first, with the booked
// trip's endpoints for display.
func (r *ReservationRepo) ListByUser(ctx context.Context, userID uint64) ([]ReservationSummary, error) {
	const q = `SELECT ` + reservationColumns + `,
			  torig.codigo, torig.ciudad, tdest.codigo, tdest.ciudad, v.salida,
			  (SELECT COUNT(*) FROM pasajero p WHERE p.idReserva = r.idReserva)
	   FROM reserva r
	   JOIN viaje v ON v.idViaje = r.idViaje
	   JOIN ruta ru ON ru.idRuta = v.idRuta
	   JOIN terminal torig ON torig.idTerminal = ru.idTerminalOrigen
	   JOIN terminal tdest ON tdest.idTerminal = ru.idTerminalDestino
	   WHERE r.idUsuario = ?
	   ORDER BY r.fecha_reserva DESC`
	rows, err := r.db.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReservationSummary
	for rows.Next() {
		var s ReservationSummary
		if err := rows.Scan(
			&s.ID, &s.Code, &s.UserID, &s.TripID,
			&s.CreatedAt, &s.Status, &s.Total, &s.Currency, &s.PaymentRef,
			&s.OriginCode, &s.OriginCity, &s.DestCode, &s.DestCity, &s.Departure,
			&s.Passengers,
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

// ListAll lists every reservation newest first, for the back-office view.
func (r *ReservationRepo) ListAll(ctx context.Context) ([]ReservationSummary, error) {
	const q = `SELECT ` + reservationColumns + `,
			  torig.codigo, torig.ciudad, tdest.codigo, tdest.ciudad, v.salida,
			  (SELECT COUNT(*) FROM pasajero p WHERE p.idReserva = r.idReserva)
	   FROM reserva r
	   JOIN viaje v ON v.idViaje = r.idViaje
	   JOIN ruta ru ON ru.idRuta = v.idRuta
	   JOIN terminal torig ON torig.idTerminal = ru.idTerminalOrigen
	   JOIN terminal tdest ON tdest.idTerminal = ru.idTerminalDestino
	   ORDER BY r.fecha_reserva DESC`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []ReservationSummary
	for rows.Next() {
		var s ReservationSummary
		if err := rows.Scan(
			&s.ID, &s.Code, &s.UserID, &s.TripID,
			&s.CreatedAt, &s.Status, &s.Total, &s.Currency, &s.PaymentRef,
			&s.OriginCode, &s.OriginCity, &s.DestCode, &s.DestCity, &s.Departure,
			&s.Passengers,
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

// FindForCheckIn locates a reservation by booking code or numeric id plus a
// passenger last name, without requiring authentication. The last name must
// match one of the reservation's passengers.
func (r *ReservationRepo) FindForCheckIn(ctx context.Context, rawCode, lastName string) (*ReservationDetail, error) {
	code, id := NormalizeBookingCode(rawCode)
	const q = `SELECT ` + reservationColumns + `
	   FROM reserva r
	   WHERE (r.codigo_reserva = ? OR r.idReserva = ?)
		 AND EXISTS (
			   SELECT 1 FROM pasajero p
			   WHERE p.idReserva = r.idReserva
				 AND UPPER(p.apellidoPasajero) = ?
			 )
	   LIMIT 1`
	res, err := scanReservation(r.db.QueryRowContext(ctx, q,
		code, id, strings.ToUpper(strings.TrimSpace(lastName))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReservationNotFound
		}
		return nil, err
	}
	return r.loadDetail(ctx, res)
}
