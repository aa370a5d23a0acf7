package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017/?replicaSet=rs0"
	DefaultMongoDatabaseName = "meshwar"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort    = "8080"
	DefaultEnvFile = ".env"

	DefaultRateLimitRequests = 120
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBookingTxTimeout        = 5 * time.Second
	DefaultBookingTxMaxAttempts    = 4
	DefaultBookingTxInitialBackoff = 50 * time.Millisecond
	DefaultBookingTxMaxBackoff     = 1 * time.Second

	DefaultKafkaBookingTopic = "meshwar.bookings"

	DefaultGrowthWindow = 30 * 24 * time.Hour

	DefaultPageSize        = 10
	DefaultPaginationLimit = 100

	DefaultLogLevel = "info"
)
