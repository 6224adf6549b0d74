package main // API server entry point

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/airlink-cl/airlink-api/internal/config"
	"github.com/airlink-cl/airlink-api/internal/database"
	"github.com/airlink-cl/airlink-api/internal/handler"
	"github.com/airlink-cl/airlink-api/internal/lookup"
	"github.com/airlink-cl/airlink-api/internal/queue"
	"github.com/airlink-cl/airlink-api/internal/repository"
	"github.com/airlink-cl/airlink-api/internal/router"
	"github.com/airlink-cl/airlink-api/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real deployments set the environment
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; caching and limits degrade

	flightRepo := repository.NewFlightRepo(db)
	terminalRepo := repository.NewTerminalRepo(db)
	fareRepo := repository.NewFareRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	reservationRepo := repository.NewReservationRepo(db)
	couponRepo := repository.NewCouponRepo(db)
	userRepo := repository.NewUserRepo(db)

	h := router.Handlers{
		Auth:    handler.NewAuthHandler(userRepo, cfg.JWTSecret, cfg.AccessTTLMin, cfg.BcryptCost),
		Flights: handler.NewFlightHandler(flightRepo, terminalRepo, fareRepo, cfg.HubOrigin, cfg.DisplayTZ),
		Seats:   handler.NewSeatHandler(seatRepo, flightRepo),
		Reservations: handler.NewReservationHandler(
			reservationRepo, couponRepo, flightRepo,
			service.PublishReservationConfirmed, cfg.DisplayTZ),
		Coupons: handler.NewCouponHandler(couponRepo),
		Lookups: handler.NewLookupHandler(
			lookup.NewDPAClient(cfg.DPABaseURL),
			lookup.NewAirportsClient(cfg.AirportsURL)),
		Buses: handler.NewBusHandler(lookup.NewBusCatalog()),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())
	e.Use(echomw.CORS())

	router.Register(e, h, cfg, rdb)

	// The confirmation consumer runs inside the API process; it reconnects
	// on broker failures and never takes the server down.
	go func() {
		if err := queue.StartReservationConsumer(); err != nil {
			log.Printf("reservation consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
