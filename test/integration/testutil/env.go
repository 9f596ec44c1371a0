package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"roombook/pkg/apiclient"
	"roombook/pkg/auth"
	"roombook/pkg/config"
	"roombook/pkg/model"
)

const (
	DefaultHealthCheckTimeout = 30 * time.Second
	TokenTTL                  = time.Hour
)

type TestEnv struct {
	MongoURI     string
	DatabaseName string
	BookingsURL  string
	RoomsURL     string
	JWTSecret    string
	JWTIssuer    string
}

func NewTestEnv() *TestEnv {
	return &TestEnv{
		MongoURI:     getEnv("TEST_MONGO_URI", DefaultMongoURI),
		DatabaseName: getEnv("TEST_DB_NAME", DefaultDatabaseName),
		BookingsURL:  getEnv("TEST_BOOKINGS_URL", "http://localhost:8080"),
		RoomsURL:     getEnv("TEST_ROOMS_URL", "http://localhost:8081"),
		JWTSecret:    getEnv(config.EnvJWTSecret, config.DefaultJWTSecret),
		JWTIssuer:    getEnv(config.EnvJWTIssuer, config.DefaultJWTIssuer),
	}
}

// RequireIntegration skips the test unless INTEGRATION is set, since these
// tests need running services and a MongoDB replica set.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run against live services")
	}
}

func (e *TestEnv) Setup(t *testing.T) *MongoHelper {
	t.Helper()

	mongo := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	mongo.CleanDatabase(t)

	ctx := context.Background()
	for _, url := range []string{e.BookingsURL, e.RoomsURL} {
		if err := apiclient.NewHttpClient(url, "").WaitForHealthy(ctx, DefaultHealthCheckTimeout); err != nil {
			t.Fatalf("%s: %v", url, err)
		}
	}

	return mongo
}

func (e *TestEnv) Cleanup(t *testing.T, mongo *MongoHelper) {
	t.Helper()

	if mongo != nil {
		mongo.CleanDatabase(t)
		mongo.Close(t)
	}
}

func (e *TestEnv) Token(t *testing.T, identity model.Identity) string {
	t.Helper()

	manager, err := auth.NewTokenManager(e.JWTSecret, e.JWTIssuer)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}
	token, err := manager.Issue(identity, TokenTTL)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return token
}

func (e *TestEnv) BookingClient(t *testing.T, identity model.Identity) *apiclient.BookingClient {
	t.Helper()
	return apiclient.NewBookingClient(e.BookingsURL, e.Token(t, identity))
}

func (e *TestEnv) RoomClient(t *testing.T, identity model.Identity) *apiclient.RoomClient {
	t.Helper()
	return apiclient.NewRoomClient(e.RoomsURL, e.Token(t, identity))
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
