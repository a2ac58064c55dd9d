// Package e2e provides end-to-end tests for the auth service.
// The suite starts PostgreSQL and NATS with `testcontainers-go`, wires the real application handler
// into an `httptest.Server` and drives it over HTTP, the same way the storefront does.
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/abgdnv/shophub/internal/auth/app"
	"github.com/abgdnv/shophub/internal/auth/config"
	"github.com/abgdnv/shophub/internal/auth/service"
	"github.com/abgdnv/shophub/internal/auth/store"
	"github.com/abgdnv/shophub/internal/storefront/authclient"
	pkgconfig "github.com/abgdnv/shophub/pkg/config"
	"github.com/abgdnv/shophub/pkg/messaging"
	"github.com/abgdnv/shophub/pkg/messaging/events"
	pnats "github.com/abgdnv/shophub/pkg/nats"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcnats "github.com/testcontainers/testcontainers-go/modules/nats"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"golang.org/x/crypto/bcrypt"
)

// skipE2ETests is the environment variable that can be set to skip E2E tests.
const skipE2ETests = "AUTH_SKIP_INTEGRATION_TESTS"

const testStream = "USERS"

// AuthServiceE2ESuite is a test suite for end-to-end tests of the auth service.
type AuthServiceE2ESuite struct {
	suite.Suite
	pgContainer   *postgres.PostgresContainer
	natsContainer *tcnats.NATSContainer
	dbPool        *pgxpool.Pool
	nc            *nats.Conn
	js            jetstream.JetStream
	userStore     store.UserStore
	closeStore    func()
	server        *httptest.Server
	httpClient    *http.Client
	appCfg        *config.Config
	logger        *slog.Logger
	ctx           context.Context
}

// testConfig creates a configuration for the auth service (only the settings the handler reads).
func testConfig(dbURL string) *config.Config {
	var cfg config.Config
	cfg.Database.URL = dbURL
	cfg.Database.Timeout = 30 * time.Second
	cfg.JWT = pkgconfig.JWTConfig{Secret: "0123456789abcdef0123456789abcdef", Issuer: "shophub", TTL: time.Hour}
	cfg.Password.BcryptCost = bcrypt.MinCost
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.Telemetry.Metrics.Path = "/metrics"
	return &cfg
}

// SetupSuite starts the containers and the application.
func (s *AuthServiceE2ESuite) SetupSuite() {
	s.ctx = context.Background()
	var err error
	s.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// 1. PostgreSQL
	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:17.5-alpine",
		postgres.WithDatabase("shophub"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to run PostgreSQL container")
	connStr, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err, "Failed to get connection string from container")
	s.dbPool, err = pgxpool.New(s.ctx, connStr)
	require.NoError(s.T(), err, "Failed to create pgx pool")

	// 2. NATS with JetStream
	s.natsContainer, err = tcnats.Run(s.ctx, "nats:2.11.6-alpine")
	require.NoError(s.T(), err, "Failed to run NATS container")
	natsURL, err := s.natsContainer.ConnectionString(s.ctx)
	require.NoError(s.T(), err, "Failed to get NATS connection string")
	s.nc, err = pnats.NewClient(natsURL, 5*time.Second, nil)
	require.NoError(s.T(), err)
	s.js, err = pnats.NewJetStreamContext(s.nc)
	require.NoError(s.T(), err)
	require.NoError(s.T(), pnats.EnsureStream(s.ctx, s.js, pnats.StreamSpec{Name: testStream, Subjects: []string{messaging.UsersRegisteredSubject}}))

	// 3. Application; store.Open applies the embedded migrations
	s.appCfg = testConfig(connStr)
	s.userStore, s.closeStore, err = store.Open(s.ctx, s.appCfg.Database, s.logger)
	require.NoError(s.T(), err, "Failed to open user store")

	deps := app.SetupDependencies(s.userStore, pnats.NewEventPublisher(s.js), nil, s.appCfg, s.logger)
	s.server = httptest.NewServer(app.SetupHttpHandler(deps, s.appCfg))
	s.httpClient = s.server.Client()
	s.logger.Info("E2E test server started", "url", s.server.URL)
}

// TearDownSuite cleans up resources after all tests in the suite have run.
func (s *AuthServiceE2ESuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
	if s.closeStore != nil {
		s.closeStore()
	}
	if s.dbPool != nil {
		s.dbPool.Close()
	}
	if s.nc != nil {
		s.nc.Close()
	}
	if s.pgContainer != nil {
		if err := s.pgContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate PostgreSQL container", "error", err)
		}
	}
	if s.natsContainer != nil {
		if err := s.natsContainer.Terminate(s.ctx); err != nil {
			s.logger.Warn("Failed to terminate NATS container", "error", err)
		}
	}
}

// SetupTest empties the users table.
func (s *AuthServiceE2ESuite) SetupTest() {
	_, err := s.dbPool.Exec(s.ctx, "TRUNCATE TABLE users")
	require.NoError(s.T(), err, "Failed to truncate users table")
}

// TestAuthServiceE2E runs the auth service E2E tests.
func TestAuthServiceE2E(t *testing.T) {
	if os.Getenv(skipE2ETests) == "1" {
		t.Skip("Skipping integration tests based on " + skipE2ETests + " env var")
	}
	suite.Run(t, new(AuthServiceE2ESuite))
}

// doRequest makes an HTTP request to the auth service.
// Returns the response body and the HTTP status code.
func (s *AuthServiceE2ESuite) doRequest(method, path string, payload any, token string) ([]byte, int) {
	s.T().Helper()
	var body io.Reader
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		require.NoError(s.T(), err)
		body = bytes.NewBuffer(payloadBytes)
	}
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, body)
	require.NoError(s.T(), err, "Failed to create HTTP request")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.httpClient.Do(req)
	require.NoError(s.T(), err, "HTTP request failed")
	defer func() { _ = resp.Body.Close() }()
	bodyBytes, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err, "Failed to read response body")
	return bodyBytes, resp.StatusCode
}

func (s *AuthServiceE2ESuite) TestRoot_E2E() {
	body, status := s.doRequest(http.MethodGet, "/", nil, "")
	s.Equal(http.StatusOK, status)
	s.Equal("Backend Server is Running", string(body))

	_, status = s.doRequest(http.MethodGet, "/readyz", nil, "")
	s.Equal(http.StatusOK, status)
}

func (s *AuthServiceE2ESuite) TestRegisterLoginMe_E2E() {
	// given
	register := map[string]string{"name": "Jane", "email": "Jane@Example.com", "password": "secret"}

	// when
	body, status := s.doRequest(http.MethodPost, "/api/auth/register", register, "")

	// then
	s.Require().Equal(http.StatusCreated, status, string(body))
	var registered service.AuthResponse
	s.Require().NoError(json.Unmarshal(body, &registered))
	s.Equal("jane@example.com", registered.User.Email)
	s.NotEmpty(registered.Token)

	_, status = s.doRequest(http.MethodPost, "/api/auth/register", register, "")
	s.Equal(http.StatusBadRequest, status, "duplicate registration must be rejected")

	body, status = s.doRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "jane@example.com", "password": "secret"}, "")
	s.Require().Equal(http.StatusOK, status)
	var loggedIn service.AuthResponse
	s.Require().NoError(json.Unmarshal(body, &loggedIn))
	s.Equal(registered.User, loggedIn.User)

	_, status = s.doRequest(http.MethodPost, "/api/auth/login", map[string]string{"email": "jane@example.com", "password": "wrong"}, "")
	s.Equal(http.StatusBadRequest, status)

	body, status = s.doRequest(http.MethodGet, "/api/auth/me", nil, loggedIn.Token)
	s.Require().Equal(http.StatusOK, status)
	s.JSONEq(`{"user":{"id":"`+registered.User.ID+`","name":"Jane","email":"jane@example.com"}}`, string(body))

	_, status = s.doRequest(http.MethodGet, "/api/auth/me", nil, "")
	s.Equal(http.StatusUnauthorized, status)
}

func (s *AuthServiceE2ESuite) TestRegisterPublishesEvent_E2E() {
	// given
	consumer, err := s.js.OrderedConsumer(s.ctx, testStream, jetstream.OrderedConsumerConfig{
		FilterSubjects: []string{messaging.UsersRegisteredSubject},
		DeliverPolicy:  jetstream.DeliverNewPolicy,
	})
	s.Require().NoError(err)

	// when
	_, status := s.doRequest(http.MethodPost, "/api/auth/register",
		map[string]string{"name": "John", "email": "john@example.com", "password": "secret"}, "")
	s.Require().Equal(http.StatusCreated, status)

	// then
	batch, err := consumer.Fetch(1, jetstream.FetchMaxWait(5*time.Second))
	s.Require().NoError(err)
	var received []events.UserRegisteredEvent
	for msg := range batch.Messages() {
		var event events.UserRegisteredEvent
		s.Require().NoError(json.Unmarshal(msg.Data(), &event))
		received = append(received, event)
	}
	s.Require().Len(received, 1)
	s.Equal("john@example.com", received[0].Email)
}

// TestStorefrontClient_E2E drives the service through the storefront's HTTP client.
func (s *AuthServiceE2ESuite) TestStorefrontClient_E2E() {
	client := authclient.New(pkgconfig.HTTPClientConfig{BaseURL: s.server.URL, Timeout: 5 * time.Second},
		pkgconfig.CircuitBreakerConfig{ConsecutiveFailures: 5, MaxRequests: 1, OpenTimeout: time.Second}, s.logger)

	registered, err := client.Register(s.ctx, "Jane", "jane@example.com", "secret")
	s.Require().NoError(err)
	s.Equal("Jane", registered.User.Name)

	loggedIn, err := client.Login(s.ctx, "jane@example.com", "secret")
	s.Require().NoError(err)
	s.Equal(registered.User.ID, loggedIn.User.ID)

	_, err = client.Login(s.ctx, "jane@example.com", "wrong")
	var apiErr *authclient.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("Invalid credentials", apiErr.Message)
}
