package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "roombook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultRedisAddr    = "localhost:6379"
	DefaultRedisDB      = 0
	DefaultRoomCacheTTL = 30 * time.Second

	DefaultPort      = "8080"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultJWTSecret = "dev-secret-change-me"
	DefaultJWTIssuer = "roombook"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultCommitTimeout   = 10 * time.Second

	DefaultEventsEnabled        = true
	DefaultBookingEventsTopic   = "booking-events"
	DefaultBookingEventsDLQ     = "booking-events-dlq"
	DefaultConflictAuditGroupID = "conflict-audit"

	DefaultTimeZone = "UTC"

	DefaultPaginationLimit = 100
)
