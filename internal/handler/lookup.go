package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/airlink-cl/airlink-api/internal/lookup"
)

// DPAStore answers región/provincia/comuna lookups. *lookup.DPAClient
// satisfies it.
type DPAStore interface {
	Regiones(ctx context.Context) ([]lookup.Region, error)
	Provincias(ctx context.Context, regionCode string) ([]lookup.Provincia, error)
	Comunas(ctx context.Context, regionCode string) ([]lookup.Comuna, error)
	ComunasDeProvincia(ctx context.Context, provinciaCode string) ([]lookup.Comuna, error)
}

// AirportStore answers airport searches. *lookup.AirportsClient satisfies it.
type AirportStore interface {
	Search(ctx context.Context, query string, limit int) ([]lookup.Airport, error)
}

// LookupHandler serves the geographic reference endpoints backing the
// checkout address form and the airport autocomplete.
type LookupHandler struct {
	DPA      DPAStore
	Airports AirportStore
}

// NewLookupHandler constructs a LookupHandler.
func NewLookupHandler(dpa DPAStore, airports AirportStore) *LookupHandler {
	if dpa == nil || airports == nil {
		panic("nil store passed to NewLookupHandler")
	}
	return &LookupHandler{DPA: dpa, Airports: airports}
}

// Regiones handles GET /api/dpa/regiones.
func (h *LookupHandler) Regiones(c echo.Context) error {
	regions, err := h.DPA.Regiones(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "servicio DPA no disponible"})
	}
	return c.JSON(http.StatusOK, echo.Map{"regiones": regions})
}

// Provincias handles GET /api/dpa/regiones/:codigo/provincias.
func (h *LookupHandler) Provincias(c echo.Context) error {
	code := c.Param("codigo")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "código de región requerido"})
	}
	provincias, err := h.DPA.Provincias(c.Request().Context(), code)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "servicio DPA no disponible"})
	}
	return c.JSON(http.StatusOK, echo.Map{"region": code, "provincias": provincias})
}

// Comunas handles GET /api/dpa/regiones/:codigo/comunas.
func (h *LookupHandler) Comunas(c echo.Context) error {
	code := c.Param("codigo")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "código de región requerido"})
	}
	comunas, err := h.DPA.Comunas(c.Request().Context(), code)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "servicio DPA no disponible"})
	}
	return c.JSON(http.StatusOK, echo.Map{"region": code, "comunas": comunas})
}

// ComunasDeProvincia handles GET /api/dpa/provincias/:codigo/comunas.
func (h *LookupHandler) ComunasDeProvincia(c echo.Context) error {
	code := c.Param("codigo")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "código de provincia requerido"})
	}
	comunas, err := h.DPA.ComunasDeProvincia(c.Request().Context(), code)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "servicio DPA no disponible"})
	}
	return c.JSON(http.StatusOK, echo.Map{"provincia": code, "comunas": comunas})
}

// SearchAirports handles GET /api/airports/search?q=&limit=.
func (h *LookupHandler) SearchAirports(c echo.Context) error {
	q := c.QueryParam("q")
	if q == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "q es requerido"})
	}
	limit := 10
	if raw := c.QueryParam("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 25 {
			limit = n
		}
	}
	airports, err := h.Airports.Search(c.Request().Context(), q, limit)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "catálogo de aeropuertos no disponible"})
	}
	return c.JSON(http.StatusOK, echo.Map{"aeropuertos": airports, "total": len(airports)})
}
