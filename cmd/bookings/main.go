package main

import (
	"roombook/internal/bookings/events"
	"roombook/internal/bookings/handler"
	"roombook/internal/bookings/repository"
	"roombook/internal/bookings/service"
	"roombook/internal/bookings/validator"
	"roombook/pkg/app"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	"roombook/pkg/kafka"
	kafka_config "roombook/pkg/kafka/config"
	kafka_middleware "roombook/pkg/kafka/middleware"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize token verification", "error", err)
	}

	cfg.Log.Info("Starting Bookings service")
	serverApp := app.NewApplication(cfg)
	publisher := initPublisher(cfg, serverApp)
	bookingService := initServices(cfg, publisher)

	serverApp.SetApp(handler.NewBookingHandler(bookingService, cfg.Log), tokens)
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher service.EventPublisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	bookingService := service.NewBookingService(
		bookingRepo,
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

// initPublisher connects the booking event producer. With events disabled
// the service only logs what it would have published.
func initPublisher(cfg *config.Config, serverApp *app.Application) service.EventPublisher {
	if !cfg.EventsEnabled {
		cfg.Log.Info("Booking events disabled")
		return events.NewLogPublisher(cfg.Log)
	}

	kafkaCfg := kafka_config.Load(cfg.Log)
	producer, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQ)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	metrics := kafka_middleware.NewMetrics()
	producer.Use(metrics.ProducerMiddleware())
	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware(cfg.Log))
	}

	serverApp.OnShutdown(func() {
		cfg.Log.Info("Booking event producer stats", "metrics", metrics.Snapshot())
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	})

	cfg.Log.Info("Booking events enabled", "topic", producer.Topic(), "brokers", kafkaCfg.Brokers)
	return events.NewKafkaPublisher(producer)
}
