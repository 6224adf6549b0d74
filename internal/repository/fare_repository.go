package repository

import (
	"context"
	"database/sql"
)

// TripFareDetail is a fare offered on a trip, joined with the fare
// definition and its cabin class for display.
type TripFareDetail struct {
	TripFareID uint64
	FareID     uint64
	Code       string
	Name       string
	Cabin      string
	Price      int64
	Currency   string
	Quota      int32
	BaggageKg  uint32
	Changes    string
	Refundable bool
	Conditions *string
	Active     bool
}

// FareRepo provides read access to fares and their per-trip offerings.
type FareRepo struct {
	db *sql.DB
}

// NewFareRepo constructs a FareRepo with the given DB handle.
func NewFareRepo(db *sql.DB) *FareRepo {
	return &FareRepo{db: db}
}

// ListByTrip lists the fares offered on a trip. The trip page wants only
// active fares ordered cheapest first; the fare-change modal wants every
// fare in catalog order, so both behaviors are parameterized instead of
// hard-coded.
func (r *FareRepo) ListByTrip(ctx context.Context, tripID uint64, activeOnly, orderByPrice bool) ([]TripFareDetail, error) {
	q := `SELECT vt.idViajeTarifa, t.idTarifa, t.codigoTarifa, t.nombreTarifa,
			  cc.nombreCabinaClase, vt.precio, vt.moneda, vt.cupos,
			  t.equipaje_incl_kg, t.cambios, t.reembolsable, t.condiciones, t.activo
	   FROM viaje_tarifa vt
	   JOIN tarifa t       ON t.idTarifa = vt.idTarifa
	   JOIN cabina_clase cc ON cc.idCabinaClase = t.idCabinaClase
	   WHERE vt.idViaje = ?`
	if activeOnly {
		q += ` AND t.activo = 1`
	}
	if orderByPrice {
		q += ` ORDER BY vt.precio, t.idTarifa`
	} else {
		q += ` ORDER BY t.idTarifa`
	}
	rows, err := r.db.QueryContext(ctx, q, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []TripFareDetail
	for rows.Next() {
		var f TripFareDetail
		if err := rows.Scan(
			&f.TripFareID, &f.FareID, &f.Code, &f.Name,
			&f.Cabin, &f.Price, &f.Currency, &f.Quota,
			&f.BaggageKg, &f.Changes, &f.Refundable, &f.Conditions, &f.Active,
		); err != nil {
			return nil, err
		}
		result = append(result, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DecrementQuota consumes n seats of a trip fare inside an open transaction.
// The guard keeps cupos from going negative; zero rows affected means the
// fare sold out between read and write.
func DecrementQuota(ctx context.Context, tx *sql.Tx, tripID, fareID uint64, n int32) error {
	const q = `UPDATE viaje_tarifa
		   SET cupos = cupos - ?
		   WHERE idViaje = ? AND idTarifa = ? AND cupos >= ?`
	res, err := tx.ExecContext(ctx, q, n, tripID, fareID, n)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrFareSoldOut
	}
	return nil
}
