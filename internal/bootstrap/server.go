package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/metroreserve/api"
	"github.com/Domenick1991/metroreserve/config"
	"github.com/Domenick1991/metroreserve/internal/service/booking"
	"github.com/Domenick1991/metroreserve/internal/service/passenger"
	"github.com/Domenick1991/metroreserve/internal/service/seats"
	"github.com/Domenick1991/metroreserve/internal/service/selection"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	httpSwagger "github.com/swaggo/http-swagger"
)

const swaggerDoc = "/swagger/metroreserve.swagger.json"

type Services struct {
	Seats      seats.SeatUseCase
	Selection  selection.SelectionUseCase
	Bookings   booking.BookingUseCase
	Passengers passenger.PassengerUseCase
	Tokens     api.TokenParser
	// Checks are run by /readyz, keyed by dependency name.
	Checks map[string]func(context.Context) error
}

func NewRouter(cfg *config.Config, svc Services, logger *logrus.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), api.RequestLogger(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", readiness(svc.Checks, logger))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if cfg.HTTP.SwaggerDir != "" {
		r.Static("/swagger", cfg.HTTP.SwaggerDir)
		r.GET("/docs/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL(swaggerDoc))))
	}

	seatHandler := api.NewSeatHandler(svc.Seats, svc.Selection)
	bookingHandler := api.NewBookingHandler(svc.Bookings, svc.Selection)
	passengerHandler := api.NewPassengerHandler(svc.Passengers)
	adminHandler := api.NewAdminHandler(svc.Bookings, svc.Passengers)
	cabinHandler := api.NewCabinHandler(svc.Bookings)

	root := r.Group("/api")
	passengerHandler.RegisterAuth(root.Group("/auth"))
	seatHandler.RegisterSeats(root.Group("/seats", api.OptionalAuth(svc.Tokens)))
	cabinHandler.Register(root.Group("/cabins"))

	private := root.Group("", api.RequireAuth(svc.Tokens))
	passengerHandler.RegisterMe(private.Group("/passengers/me"))
	seatHandler.RegisterSelection(private.Group("/selection"))
	bookingHandler.Register(private.Group("/bookings"))
	adminHandler.Register(private.Group("/admin", api.RequireAdmin()))

	return r
}

func readiness(checks map[string]func(context.Context) error, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		results := make(gin.H, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WithError(err).WithField("dependency", name).Warn("readiness check failed")
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		c.JSON(status, results)
	}
}

// Run serves handler on cfg.HTTP.Address until ctx is cancelled or the
// server fails.
func Run(ctx context.Context, cfg *config.Config, handler http.Handler, logger *logrus.Logger) error {
	srv := &http.Server{
		Addr:              cfg.HTTP.Address,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("address", cfg.HTTP.Address).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}
