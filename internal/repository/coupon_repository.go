package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/airlink-cl/airlink-api/internal/model"
)

// CouponRepo provides data access for discount coupons.
type CouponRepo struct {
	db *sql.DB
}

// NewCouponRepo constructs a CouponRepo with the given DB handle.
func NewCouponRepo(db *sql.DB) *CouponRepo {
	return &CouponRepo{db: db}
}

// GetByCode retrieves a coupon by its code, case-insensitively. Validity
// checks (window, budget, active) live on the model so the validation
// endpoint and the reservation flow share one rule set.
func (r *CouponRepo) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	const q = `SELECT idCuponDescuento, codigo, idTipoCupon, valor,
			  uso_maximo, uso_actual, fecha_inicio, fecha_fin, activo
	   FROM cupon_descuento
	   WHERE UPPER(codigo) = ?`
	var cp model.Coupon
	err := r.db.QueryRowContext(ctx, q, strings.ToUpper(strings.TrimSpace(code))).Scan(
		&cp.ID, &cp.Code, &cp.Type, &cp.Value,
		&cp.MaxUses, &cp.Uses, &cp.ValidFrom, &cp.ValidTo, &cp.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return &cp, nil
}

// ApplyTx records the use of a coupon on a reservation inside an open
// transaction. The guarded increment keeps uso_actual under uso_maximo even
// when two checkouts redeem the last use concurrently; zero rows affected
// means the budget ran out and the caller should abort.
func ApplyTx(ctx context.Context, tx *sql.Tx, reservationID, couponID uint64, amount int64) error {
	const use = `UPDATE cupon_descuento
		   SET uso_actual = uso_actual + 1
		   WHERE idCuponDescuento = ?
			 AND activo = 1
			 AND (uso_maximo IS NULL OR uso_actual < uso_maximo)`
	res, err := tx.ExecContext(ctx, use, couponID)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrCouponNotFound
	}
	const link = `INSERT INTO reserva_cupon (idReserva, idCuponDescuento, montoAplicado) VALUES (?, ?, ?)`
	_, err = tx.ExecContext(ctx, link, reservationID, couponID, amount)
	return err
}
