package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/airlink-cl/airlink-api/internal/lookup"
)

// BusHandler serves the ground-transport leg offered alongside flights. The
// data comes from the static interregional catalog, so every endpoint here
// answers from memory.
type BusHandler struct {
	Buses *lookup.BusCatalog
}

// NewBusHandler constructs a BusHandler.
func NewBusHandler(buses *lookup.BusCatalog) *BusHandler {
	if buses == nil {
		panic("nil catalog passed to NewBusHandler")
	}
	return &BusHandler{Buses: buses}
}

// Available handles GET /api/buses/disponibles?origen&destino&fecha. An
// unserved corridor answers an empty list, not an error, mirroring the
// flight search.
func (h *BusHandler) Available(c echo.Context) error {
	origen := c.QueryParam("origen")
	destino := c.QueryParam("destino")
	fecha := c.QueryParam("fecha")
	if origen == "" || destino == "" || fecha == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "origen, destino y fecha son requeridos"})
	}
	trips, err := h.Buses.Available(origen, destino, fecha)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fecha inválida, formato YYYY-MM-DD"})
	}
	if trips == nil {
		trips = []lookup.BusTrip{}
	}
	return c.JSON(http.StatusOK, echo.Map{"buses": trips, "total": len(trips)})
}

// Connections handles GET /api/buses/conexiones/:ciudad.
func (h *BusHandler) Connections(c echo.Context) error {
	ciudad := c.Param("ciudad")
	if ciudad == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ciudad es requerida"})
	}
	conexiones := h.Buses.Connections(ciudad)
	if conexiones == nil {
		conexiones = []lookup.BusConnection{}
	}
	return c.JSON(http.StatusOK, echo.Map{"ciudad": ciudad, "conexiones": conexiones})
}

// Terminals handles GET /api/buses/terminales?tipo.
func (h *BusHandler) Terminals(c echo.Context) error {
	terminales := h.Buses.Terminals(c.QueryParam("tipo"))
	return c.JSON(http.StatusOK, echo.Map{"terminales": terminales, "total": len(terminales)})
}
