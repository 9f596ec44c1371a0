package main

import (
	"roombook/internal/rooms/handler"
	"roombook/internal/rooms/repository"
	"roombook/internal/rooms/service"
	"roombook/internal/rooms/validator"
	"roombook/pkg/app"
	"roombook/pkg/auth"
	"roombook/pkg/config"
)

const ServiceName = "rooms"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	cfg.SetRedis()

	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize token verification", "error", err)
	}

	cfg.Log.Info("Starting Rooms service")
	roomService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(handler.NewRoomHandler(roomService, cfg.Log), tokens)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.RoomService {
	roomValidator := validator.NewRoomValidator(cfg.Log)

	var roomRepo repository.RoomRepository = repository.NewMongoRoomRepository(cfg)
	if cfg.Client.Redis != nil {
		roomRepo = repository.NewCachedRoomRepository(roomRepo, repository.NewRedisCache(cfg.Client.Redis), cfg.RoomCacheTTL, cfg.Log)
		cfg.Log.Info("Room cache enabled", "ttl", cfg.RoomCacheTTL)
	}

	roomService := service.NewRoomService(roomRepo, roomValidator, cfg)
	cfg.Log.Info("Room service initialized", "database", cfg.MongoDatabaseName)
	return roomService
}
