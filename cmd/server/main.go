package main

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echoMw "github.com/labstack/echo/v4/middleware"
	"github.com/watermelon-studio/studio-booking/config"
	"github.com/watermelon-studio/studio-booking/internal/handler"
	"github.com/watermelon-studio/studio-booking/internal/middleware"
	"github.com/watermelon-studio/studio-booking/internal/repository"
	"github.com/watermelon-studio/studio-booking/internal/service"
	"github.com/watermelon-studio/studio-booking/pkg/database"
	"github.com/watermelon-studio/studio-booking/pkg/rabbitmq"
)

type requestValidator struct {
	v *validator.Validate
}

func (rv *requestValidator) Validate(i any) error {
	return rv.v.Struct(i)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		log.Fatalf("failed to set up database: %v", err)
	}

	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to RabbitMQ: %v", err)
	}
	defer publisher.Close()

	eventRepo := repository.NewEventRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	blockRepo := repository.NewBlockRepository(db)
	waitingRepo := repository.NewWaitingListRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	contentRepo := repository.NewContentRepository(db)
	activityRepo := repository.NewActivityRepository(db)

	eventSvc := service.NewEventService(eventRepo, bookingRepo, activityRepo)
	bookingSvc := service.NewBookingService(bookingRepo, eventRepo, blockRepo, waitingRepo, activityRepo, publisher)
	blockSvc := service.NewBlockService(blockRepo, activityRepo)
	paymentSvc := service.NewPaymentService(paymentRepo, bookingRepo, blockRepo, activityRepo, publisher, cfg)
	contentSvc := service.NewContentService(contentRepo, activityRepo)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler
	e.Validator = &requestValidator{v: validator.New()}
	e.Use(echoMw.RequestLoggerWithConfig(echoMw.RequestLoggerConfig{
		LogStatus: true,
		LogURI:    true,
		LogMethod: true,
		LogValuesFunc: func(c echo.Context, v echoMw.RequestLoggerValues) error {
			log.Printf("%s %s %d", v.Method, v.URI, v.Status)
			return nil
		},
	}))
	e.Use(echoMw.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok", "service": "studio-booking"})
	})

	eventHandler := handler.NewEventHandler(eventSvc)
	bookingHandler := handler.NewBookingHandler(bookingSvc)
	blockHandler := handler.NewBlockHandler(blockSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc)
	contentHandler := handler.NewContentHandler(contentSvc)
	activityHandler := handler.NewActivityHandler(activityRepo)

	// public: catalog, content, gateway callback
	public := e.Group("/api", middleware.OptionalAuth(cfg.JWTSecret))
	eventHandler.RegisterRoutes(public)
	blockHandler.RegisterRoutes(public)
	contentHandler.RegisterRoutes(public)
	paymentHandler.RegisterPublicRoutes(public)

	// member: bookings, payments, reviews
	member := e.Group("/api", middleware.RequireAuth(cfg.JWTSecret))
	bookingHandler.RegisterRoutes(member)
	paymentHandler.RegisterRoutes(member)
	contentHandler.RegisterMemberRoutes(member)

	// studio admin
	admin := e.Group("/api/admin", middleware.RequireAuth(cfg.JWTSecret), middleware.RequireStaff())
	eventHandler.RegisterAdminRoutes(admin)
	bookingHandler.RegisterAdminRoutes(admin)
	blockHandler.RegisterAdminRoutes(admin)
	contentHandler.RegisterAdminRoutes(admin)
	activityHandler.RegisterAdminRoutes(admin)

	log.Printf("Studio booking server starting on :%s", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
