package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airlink-cl/airlink-api/internal/model"
)

func validateCoupon(t *testing.T, h *CouponHandler, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/cupones/validar", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h.Validate(e.NewContext(req, rec)))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestValidateCouponSuccess(t *testing.T) {
	coupons := &mockCouponStore{
		getByCode: func(_ context.Context, code string) (*model.Coupon, error) {
			assert.Equal(t, "VERANO10", code)
			return &model.Coupon{ID: 3, Code: "VERANO10", Type: model.CouponPercent, Value: 10, Active: true}, nil
		},
	}
	h := NewCouponHandler(coupons)

	rec, resp := validateCoupon(t, h, `{"codigo":"VERANO10","monto":50000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, resp["valido"])
	assert.Equal(t, float64(5000), resp["descuento"])
	assert.Equal(t, float64(45000), resp["montoFinal"])
	cupon := resp["cupon"].(map[string]any)
	assert.Equal(t, "VERANO10", cupon["codigo"])
	assert.Equal(t, "10% de descuento", cupon["descripcion"])
}

func TestValidateCouponUnknownCodeAnswersOK(t *testing.T) {
	h := NewCouponHandler(noCoupons())

	rec, resp := validateCoupon(t, h, `{"codigo":"NADA","monto":50000}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, resp["valido"])
	assert.Equal(t, "Cupón inválido o no existe", resp["mensaje"])
}

func TestValidateCouponExpired(t *testing.T) {
	past := time.Now().UTC().Add(-time.Hour)
	coupons := &mockCouponStore{
		getByCode: func(context.Context, string) (*model.Coupon, error) {
			return &model.Coupon{Code: "VIEJO", Type: model.CouponFixed, Value: 5000, Active: true, ValidTo: &past}, nil
		},
	}
	h := NewCouponHandler(coupons)

	_, resp := validateCoupon(t, h, `{"codigo":"VIEJO","monto":50000}`)
	assert.Equal(t, false, resp["valido"])
	assert.Equal(t, "Este cupón ha expirado", resp["mensaje"])
}

func TestValidateCouponBelowMinimumTotal(t *testing.T) {
	coupons := &mockCouponStore{
		getByCode: func(context.Context, string) (*model.Coupon, error) {
			return &model.Coupon{Code: "FIJO15", Type: model.CouponFixed, Value: 15000, Active: true}, nil
		},
	}
	h := NewCouponHandler(coupons)

	_, resp := validateCoupon(t, h, `{"codigo":"FIJO15","monto":20000}`)
	assert.Equal(t, false, resp["valido"])
	assert.Equal(t, float64(25000), resp["montoMinimo"])
}

func TestValidateCouponRequestValidation(t *testing.T) {
	h := NewCouponHandler(noCoupons())

	for name, body := range map[string]string{
		"missing code": `{"monto":50000}`,
		"zero amount":  `{"codigo":"X","monto":0}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec, _ := validateCoupon(t, h, body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestValidateCouponStoreFailure(t *testing.T) {
	coupons := &mockCouponStore{
		getByCode: func(context.Context, string) (*model.Coupon, error) {
			return nil, errors.New("connection refused")
		},
	}
	h := NewCouponHandler(coupons)

	rec, _ := validateCoupon(t, h, `{"codigo":"X","monto":50000}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
