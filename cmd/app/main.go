package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/gigpass/gp-checkout/config"
	customerapp_event "github.com/gigpass/gp-checkout/internal/module/customerapp/event"
	"github.com/gigpass/gp-checkout/internal/module/customerapp/midtrans"
	customerapp_order "github.com/gigpass/gp-checkout/internal/module/customerapp/order"
	customerapp_ticket "github.com/gigpass/gp-checkout/internal/module/customerapp/ticket"
	staffapp_checkin "github.com/gigpass/gp-checkout/internal/module/staffapp/checkin"
	"github.com/gigpass/gp-checkout/internal/pkg/jwt"
	internalMiddleware "github.com/gigpass/gp-checkout/internal/pkg/middleware"
	"github.com/gigpass/gp-checkout/internal/pkg/session"
	"github.com/gigpass/gp-checkout/pkg/applogger"
	"github.com/gigpass/gp-checkout/pkg/kafka"
	"github.com/gigpass/gp-checkout/pkg/middleware"
	"github.com/gigpass/gp-checkout/pkg/monitoring"
	"github.com/gigpass/gp-checkout/pkg/postgresql"
	"github.com/gigpass/gp-checkout/pkg/pubsub"
	"github.com/gigpass/gp-checkout/pkg/redis"
	"github.com/gigpass/gp-checkout/pkg/server"
	"github.com/gigpass/gp-checkout/pkg/validator"
)

var c *config.Config

func init() {
	c = config.Get()
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := applogger.GetLogrus()

	mon := monitoring.NewOpenTelemetry(
		c.Application.Name,
		c.Application.Environment,
		c.GCP.ProjectID,
	)

	mon.Start(ctx)

	validate := validator.Get()

	hc := http.DefaultClient

	jsonWebToken := jwt.NewJSONWebToken(c.JWT.PrivateKey, c.JWT.PublicKey)

	psqldb := postgresql.GetDatabase()
	if err := psqldb.Ping(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	publisher := pubsub.PublisherFromConfluentKafkaProducer(logger, kafka.NewProducer())

	rc := redis.GetClient()
	if err := rc.Ping(context.Background()).Err(); err != nil {
		logger.WithContext(ctx).WithError(err).Error()
	}

	sessionStore := session.NewRedisSessionStore(logger, rc)

	customerSessionMiddleware := internalMiddleware.NewCustomerSessionMiddleware(jsonWebToken, sessionStore)
	staffSessionMiddleware := internalMiddleware.NewStaffSessionMiddleware(jsonWebToken, sessionStore)

	router := mux.NewRouter()
	router.Use(
		otelmux.Middleware(c.Application.Name),
		middleware.HTTPResponseTraceInjection,
		middleware.NewHTTPRequestLogger(logger, c.Application.Debug, http.StatusInternalServerError).Middleware,
	)

	// customer's app
	customerappEventRepo := customerapp_event.NewEventRepository(logger, psqldb)
	customerappTicketTierRepo := customerapp_ticket.NewTicketTierRepository(logger, psqldb)
	customerappAttendeeRepo := customerapp_ticket.NewAttendeeRepository(logger, psqldb)
	customerappOrderRepo := customerapp_order.NewOrderRepository(logger, psqldb)
	customerappOrderItemRepo := customerapp_order.NewItemRepository(logger, psqldb)
	customerappPromoCodeRepo := customerapp_order.NewPromoCodeRepository(logger, psqldb)
	midtransRepo := midtrans.NewMidtransRepository(c.Midtrans.BaseURL, c.Midtrans.BasicAuthKey, logger, hc)
	cacheInvalidator := customerapp_order.NewRedisCacheInvalidator(logger, rc)
	customerappOrderUseCase := customerapp_order.NewOrderUseCase(customerapp_order.OrderUseCaseProperty{
		Logger:                  logger,
		Timeout:                 c.Application.Timeout,
		BaseURL:                 c.Application.BaseURL,
		ServiceChargePercentage: c.Order.ServiceChargePercentage,
		TaxPercentage:           c.Order.TaxChargePercentage,
		EventRepository:         customerappEventRepo,
		TicketTierRepository:    customerappTicketTierRepo,
		AttendeeRepository:      customerappAttendeeRepo,
		OrderRepository:         customerappOrderRepo,
		ItemRepository:          customerappOrderItemRepo,
		PromoCodeRepository:     customerappPromoCodeRepo,
		MidtransRepository:      midtransRepo,
		Publisher:               publisher,
		CacheInvalidator:        cacheInvalidator,
	})
	customerapp_order.InitHTTPHandler(router, customerSessionMiddleware, validate, customerappOrderUseCase)

	// staff's app
	staffappAttendeeRepo := staffapp_checkin.NewAttendeeRepository(logger, psqldb)
	staffappCheckInUseCase := staffapp_checkin.NewCheckInUseCase(staffapp_checkin.CheckInUseCaseProperty{
		Logger:             logger,
		Timeout:            c.Application.Timeout,
		AttendeeRepository: staffappAttendeeRepo,
	})
	staffapp_checkin.InitHTTPHandler(router, staffSessionMiddleware, validate, staffappCheckInUseCase)

	handler := middleware.SetChain(
		router,
		cors.New(cors.Options{
			AllowedOrigins:   c.CORS.AllowedOrigins,
			AllowedMethods:   c.CORS.AllowedMethods,
			AllowedHeaders:   c.CORS.AllowedHeaders,
			ExposedHeaders:   c.CORS.ExposedHeaders,
			MaxAge:           c.CORS.MaxAge,
			AllowCredentials: c.CORS.AllowCredentials,
		}).Handler,
	)

	srv := &server.Server{
		Server: http.Server{
			Addr:    fmt.Sprintf(":%d", c.Application.Port),
			Handler: handler,
		},
		Logger: logger,
	}

	go func() {
		srv.ListenAndServe()
	}()

	sigterm := make(chan os.Signal, 1)
	signal.Notify(sigterm, syscall.SIGINT, syscall.SIGTERM)
	<-sigterm

	srv.Shutdown(ctx)
	publisher.Close()
	psqldb.Close()
	rc.Close()
	mon.Stop(ctx)
}
