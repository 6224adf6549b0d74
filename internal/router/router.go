// Package router maps HTTP routes onto handlers and applies the middleware
// each route group needs.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/airlink-cl/airlink-api/internal/config"
	"github.com/airlink-cl/airlink-api/internal/handler"
	"github.com/airlink-cl/airlink-api/internal/middleware"
	"github.com/airlink-cl/airlink-api/internal/model"
)

// Handlers bundles every handler the API exposes.
type Handlers struct {
	Auth         *handler.AuthHandler
	Flights      *handler.FlightHandler
	Seats        *handler.SeatHandler
	Reservations *handler.ReservationHandler
	Coupons      *handler.CouponHandler
	Lookups      *handler.LookupHandler
	Buses        *handler.BusHandler
}

// Register wires all routes. Public catalog routes sit behind the Redis
// response cache; everything shares the rate limiter. The seat map is
// deliberately not cached: stale availability there directly causes failed
// reservations right after a sale.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	limiter := middleware.RateLimit(config.LoadRateLimitConfig(), rdb)
	cache := middleware.ResponseCache(config.LoadCacheConfig(), rdb)
	e.Use(limiter)

	// Public flight catalog.
	vuelos := e.Group("/vuelos", cache)
	vuelos.GET("/buscar", h.Flights.Search)
	vuelos.GET("/disponibilidad", h.Flights.Availability)
	vuelos.GET("/destinos", h.Flights.Destinations)
	vuelos.GET("/destinos/:ciudad/codigo", h.Flights.CityCode)
	vuelos.GET("/viajes/:idViaje/tarifas", h.Flights.ListFares)
	vuelos.GET("/:idViaje", h.Flights.GetTrip)

	// Auth.
	auth := e.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.GET("/me", h.Auth.Me, middleware.JWTAuth(cfg.JWTSecret))

	api := e.Group("/api")

	// Seat map is public; reserving requires a session.
	api.GET("/asientos/:idViaje", h.Seats.ListSeats)
	api.POST("/asientos/reservar", h.Seats.ReserveSeats, middleware.JWTAuth(cfg.JWTSecret))

	// Checkout and reservation reads.
	jwt := middleware.JWTAuth(cfg.JWTSecret)
	api.POST("/pagos/crear-reserva", h.Reservations.Create, jwt)
	api.GET("/reservas", h.Reservations.List, jwt)
	api.GET("/reservas/:id", h.Reservations.Get, jwt)
	api.POST("/reservas/buscar-checkin", h.Reservations.CheckIn)

	// Back office.
	admin := api.Group("/admin", jwt, middleware.RequireRole(model.RoleName(model.RoleAdmin)))
	admin.GET("/reservas", h.Reservations.ListAll)

	api.POST("/cupones/validar", h.Coupons.Validate)

	// Geographic lookups, cached like the catalog.
	api.GET("/dpa/regiones", h.Lookups.Regiones, cache)
	api.GET("/dpa/regiones/:codigo/provincias", h.Lookups.Provincias, cache)
	api.GET("/dpa/regiones/:codigo/comunas", h.Lookups.Comunas, cache)
	api.GET("/dpa/provincias/:codigo/comunas", h.Lookups.ComunasDeProvincia, cache)
	api.GET("/airports/search", h.Lookups.SearchAirports, cache)

	// Ground transport, served from the static catalog.
	api.GET("/buses/disponibles", h.Buses.Available, cache)
	api.GET("/buses/conexiones/:ciudad", h.Buses.Connections, cache)
	api.GET("/buses/terminales", h.Buses.Terminals, cache)
}
