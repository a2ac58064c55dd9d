package store

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	autherrors "github.com/abgdnv/shophub/internal/auth/errors"
	"github.com/abgdnv/shophub/pkg/config"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
)

const skipIntegrationTests = "AUTH_SKIP_INTEGRATION_TESTS"

// UserStoreSuite runs the same contract against every UserStore implementation.
type UserStoreSuite struct {
	suite.Suite
	ctx       context.Context
	logger    *slog.Logger
	container testcontainers.Container
	dbURL     string
	store     UserStore
	closeFn   func()
	reset     func()
}

func (s *UserStoreSuite) SetupSuite() {
	var err error
	s.store, s.closeFn, err = Open(s.ctx, config.DatabaseConfig{URL: s.dbURL, Timeout: 30 * time.Second}, s.logger)
	require.NoError(s.T(), err, "Failed to open user store")

	provisioned, ok := s.store.(*ProvisionedStore)
	require.True(s.T(), ok, "unexpected store type %T", s.store)
	switch st := provisioned.next.(type) {
	case *PgStore:
		s.reset = func() {
			_, err := st.db.Exec(s.ctx, "TRUNCATE TABLE users")
			require.NoError(s.T(), err, "Failed to truncate users table")
		}
	case *MongoStore:
		s.reset = func() {
			_, err := st.users.DeleteMany(s.ctx, bson.D{})
			require.NoError(s.T(), err, "Failed to clear users collection")
		}
	default:
		s.T().Fatalf("unexpected store type %T", provisioned.next)
	}
}

func (s *UserStoreSuite) TearDownSuite() {
	if s.closeFn != nil {
		s.closeFn()
	}
	if s.container != nil {
		if err := testcontainers.TerminateContainer(s.container); err != nil {
			s.logger.Warn("Failed to terminate container", "error", err)
		}
	}
}

func (s *UserStoreSuite) SetupTest() {
	s.reset()
}

func newUser(email string) User {
	return User{
		ID:           uuid.New(),
		Name:         "Jane",
		Email:        email,
		PasswordHash: "$2a$10$hash",
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func (s *UserStoreSuite) TestCreateAndFind() {
	// given
	user := newUser("jane@example.com")

	// when
	created, err := s.store.Create(s.ctx, user)

	// then
	s.Require().NoError(err)
	s.Equal(user.ID, created.ID)
	s.Equal(user.Email, created.Email)

	byEmail, err := s.store.FindByEmail(s.ctx, "jane@example.com")
	s.Require().NoError(err)
	s.Equal(user.ID, byEmail.ID)
	s.Equal(user.PasswordHash, byEmail.PasswordHash)
	s.WithinDuration(user.CreatedAt, byEmail.CreatedAt, time.Millisecond)

	byID, err := s.store.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("Jane", byID.Name)
}

func (s *UserStoreSuite) TestCreateDuplicateEmail() {
	// given
	_, err := s.store.Create(s.ctx, newUser("jane@example.com"))
	s.Require().NoError(err)

	// when
	_, err = s.store.Create(s.ctx, newUser("jane@example.com"))

	// then
	s.ErrorIs(err, autherrors.ErrUserExists)
}

func (s *UserStoreSuite) TestNotFound() {
	_, err := s.store.FindByEmail(s.ctx, "nobody@example.com")
	s.ErrorIs(err, autherrors.ErrUserNotFound)

	_, err = s.store.FindByID(s.ctx, uuid.New())
	s.ErrorIs(err, autherrors.ErrUserNotFound)
}

func (s *UserStoreSuite) TestPing() {
	s.NoError(s.store.Ping(s.ctx))
}

func newSuite() *UserStoreSuite {
	return &UserStoreSuite{
		ctx:    context.Background(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// TestPgStoreIntegration runs the UserStore contract against PostgreSQL.
func TestPgStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	s := newSuite()
	pgContainer, err := postgres.Run(s.ctx,
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
	require.NoError(t, err, "Failed to run PostgreSQL container")
	s.container = pgContainer
	s.dbURL, err = pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(t, err, "Failed to get connection string from container")

	suite.Run(t, s)
}

// TestMongoStoreIntegration runs the UserStore contract against MongoDB.
func TestMongoStoreIntegration(t *testing.T) {
	if os.Getenv(skipIntegrationTests) == "1" {
		t.Skip("Skipping integration tests based on " + skipIntegrationTests + " env var")
	}
	s := newSuite()
	mongoContainer, err := mongodb.Run(s.ctx, "mongo:7.0")
	require.NoError(t, err, "Failed to run MongoDB container")
	s.container = mongoContainer
	s.dbURL, err = mongoContainer.ConnectionString(s.ctx)
	require.NoError(t, err, "Failed to get connection string from container")

	suite.Run(t, s)
}
