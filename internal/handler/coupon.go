package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/airlink-cl/airlink-api/internal/repository"
)

// CouponHandler serves coupon validation during checkout.
type CouponHandler struct {
	Coupons CouponStore
}

// NewCouponHandler constructs a CouponHandler.
func NewCouponHandler(coupons CouponStore) *CouponHandler {
	if coupons == nil {
		panic("nil store passed to NewCouponHandler")
	}
	return &CouponHandler{Coupons: coupons}
}

// Validate handles POST /api/cupones/validar. The response always carries
// "valido"; invalid coupons answer 200 with valido=false and a message so
// the checkout UI can show it inline without error handling.
func (h *CouponHandler) Validate(c echo.Context) error {
	var body struct {
		Code   string `json:"codigo"`
		Amount int64  `json:"monto"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cuerpo de solicitud inválido"})
	}
	if body.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "codigo es requerido"})
	}
	if body.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "monto debe ser mayor que cero"})
	}

	cp, err := h.Coupons.GetByCode(c.Request().Context(), body.Code)
	if err != nil {
		if errors.Is(err, repository.ErrCouponNotFound) {
			return c.JSON(http.StatusOK, echo.Map{
				"valido":  false,
				"mensaje": "Cupón inválido o no existe",
			})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if ok, reason := cp.Usable(time.Now().UTC()); !ok {
		return c.JSON(http.StatusOK, echo.Map{"valido": false, "mensaje": reason})
	}
	discount, minRequired, ok := cp.Discount(body.Amount)
	if !ok {
		return c.JSON(http.StatusOK, echo.Map{
			"valido":      false,
			"mensaje":     "Monto mínimo de compra no alcanzado",
			"montoMinimo": minRequired,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"valido":     true,
		"descuento":  discount,
		"montoFinal": body.Amount - discount,
		"cupon": echo.Map{
			"codigo":      cp.Code,
			"tipo":        cp.Type,
			"valor":       cp.Value,
			"descripcion": cp.Description(),
		},
	})
}
