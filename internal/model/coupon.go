package model

import (
	"fmt"
	"time"
)

// Coupon type discriminators as stored in cupon_descuento.idTipoCupon.
const (
	CouponPercent = 1
	CouponFixed   = 2
)

// MinTotalAfterDiscount is the smallest total a coupon may leave after
// applying its discount, in whole CLP. Larger discounts are rejected with a
// minimum-purchase message rather than silently clamped.
const MinTotalAfterDiscount = 10000

// Coupon is a discount code with an optional validity window and use budget.
type Coupon struct {
	ID        uint64     // cupon_descuento.idCuponDescuento
	Code      string     // cupon_descuento.codigo
	Type      int        // cupon_descuento.idTipoCupon
	Value     int64      // percent (type 1) or fixed CLP amount (type 2)
	MaxUses   *uint32    // cupon_descuento.uso_maximo (nullable = unlimited)
	Uses      uint32     // cupon_descuento.uso_actual
	ValidFrom *time.Time // cupon_descuento.fecha_inicio (nullable)
	ValidTo   *time.Time // cupon_descuento.fecha_fin (nullable)
	Active    bool       // cupon_descuento.activo
}

// Usable reports whether the coupon can be applied at instant now: it must be
// active, inside its validity window and under its use budget. The returned
// reason is a user-facing message when the answer is no.
func (cp Coupon) Usable(now time.Time) (bool, string) {
	if !cp.Active {
		return false, "Cupón inválido o no existe"
	}
	if cp.ValidFrom != nil && cp.ValidFrom.After(now) {
		return false, "Este cupón aún no está disponible"
	}
	if cp.ValidTo != nil && cp.ValidTo.Before(now) {
		return false, "Este cupón ha expirado"
	}
	if cp.MaxUses != nil && cp.Uses >= *cp.MaxUses {
		return false, "Este cupón ya no está disponible"
	}
	return true, ""
}

// Discount computes the discount the coupon grants on a purchase of amount
// CLP. Percent coupons round half up to the nearest peso. The discount may
// not leave the remaining total below MinTotalAfterDiscount (minRequired in
// the error case tells the caller the minimum purchase for this coupon) and
// never exceeds the purchase amount.
func (cp Coupon) Discount(amount int64) (discount int64, minRequired int64, ok bool) {
	switch cp.Type {
	case CouponPercent:
		discount = (amount*cp.Value + 50) / 100
	case CouponFixed:
		discount = cp.Value
	default:
		return 0, 0, false
	}
	if discount > amount {
		discount = amount
	}
	if amount-discount < MinTotalAfterDiscount {
		return 0, discount + MinTotalAfterDiscount, false
	}
	return discount, 0, true
}

// Description renders the human-readable discount description shown next to
// an applied coupon.
func (cp Coupon) Description() string {
	if cp.Type == CouponPercent {
		return fmt.Sprintf("%d%% de descuento", cp.Value)
	}
	return fmt.Sprintf("$%d de descuento", cp.Value)
}
