// Package service provides the registration, login and identity lookup logic of the auth service.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	autherrors "github.com/abgdnv/shophub/internal/auth/errors"
	"github.com/abgdnv/shophub/internal/auth/store"
	"github.com/abgdnv/shophub/pkg/auth"
	"github.com/abgdnv/shophub/pkg/messaging"
	"github.com/abgdnv/shophub/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/crypto/bcrypt"
)

const (
	outcomeSuccess   = "success"
	outcomeDuplicate = "duplicate"
	outcomeRejected  = "rejected"
	outcomeError     = "error"
)

// MaxPasswordBytes is the longest password bcrypt accepts.
const MaxPasswordBytes = 72

// AuthService defines the account operations exposed over HTTP.
type AuthService interface {
	// Register creates an account and returns a signed token for it.
	// Returns ErrUserExists if the email is already registered.
	Register(ctx context.Context, dto RegisterDto) (*AuthResponse, error)

	// Login checks the credentials and returns a signed token.
	// Returns ErrInvalidCredentials for an unknown email or a wrong password.
	Login(ctx context.Context, dto LoginDto) (*AuthResponse, error)

	// FindByID returns the public view of a user.
	// Returns ErrUserNotFound if the id is malformed or unknown.
	FindByID(ctx context.Context, id string) (*UserDto, error)

	// Ready reports whether the user store is reachable.
	Ready(ctx context.Context) error
}

// TokenIssuer signs access tokens.
type TokenIssuer interface {
	Issue(claims auth.Claims) (string, time.Time, error)
}

// RegisterDto is the registration request body.
type RegisterDto struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// LoginDto is the login request body.
type LoginDto struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=72"`
}

// UserDto is the public view of a user.
type UserDto struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// AuthResponse is returned by Register and Login.
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDto `json:"user"`
}

// Service implements AuthService.
type Service struct {
	userStore     store.UserStore
	issuer        TokenIssuer
	publisher     messaging.Publisher
	bcryptCost    int
	now           func() time.Time
	logger        *slog.Logger
	registrations metric.Int64Counter
	logins        metric.Int64Counter
}

// NewService creates a new instance of AuthService.
func NewService(userStore store.UserStore, issuer TokenIssuer, publisher messaging.Publisher, bcryptCost int, logger *slog.Logger) *Service {
	meter := otel.Meter("auth-service")
	registrations, err := meter.Int64Counter("auth_registrations", metric.WithDescription("Total number of registration attempts"))
	if err != nil {
		panic(fmt.Sprintf("failed to create auth_registrations counter: %v", err))
	}
	logins, err := meter.Int64Counter("auth_logins", metric.WithDescription("Total number of login attempts"))
	if err != nil {
		panic(fmt.Sprintf("failed to create auth_logins counter: %v", err))
	}
	return &Service{
		userStore:     userStore,
		issuer:        issuer,
		publisher:     publisher,
		bcryptCost:    bcryptCost,
		now:           time.Now,
		logger:        logger.With("component", "service"),
		registrations: registrations,
		logins:        logins,
	}
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Register(ctx context.Context, dto RegisterDto) (*AuthResponse, error) {
	// the validator counts runes, bcrypt counts bytes
	if len(dto.Password) > MaxPasswordBytes {
		s.count(ctx, s.registrations, outcomeRejected)
		return nil, autherrors.ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		s.count(ctx, s.registrations, outcomeError)
		return nil, fmt.Errorf("%w: %w", autherrors.ErrHashPassword, err)
	}
	created, err := s.userStore.Create(ctx, store.User{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(dto.Name),
		Email:        NormalizeEmail(dto.Email),
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, autherrors.ErrUserExists) {
			s.count(ctx, s.registrations, outcomeDuplicate)
		} else {
			s.count(ctx, s.registrations, outcomeError)
		}
		return nil, err
	}

	resp, err := s.respond(created)
	if err != nil {
		s.count(ctx, s.registrations, outcomeError)
		return nil, err
	}

	event := events.UserRegisteredEvent{
		UserID:       created.ID,
		Name:         created.Name,
		Email:        created.Email,
		RegisteredAt: created.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish UserRegisteredEvent", "error", err, "user_id", created.ID)
	}
	s.count(ctx, s.registrations, outcomeSuccess)
	return resp, nil
}

func (s *Service) Login(ctx context.Context, dto LoginDto) (*AuthResponse, error) {
	found, err := s.userStore.FindByEmail(ctx, NormalizeEmail(dto.Email))
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			s.count(ctx, s.logins, outcomeRejected)
			return nil, autherrors.ErrInvalidCredentials
		}
		s.count(ctx, s.logins, outcomeError)
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(found.PasswordHash), []byte(dto.Password)); err != nil {
		s.count(ctx, s.logins, outcomeRejected)
		return nil, autherrors.ErrInvalidCredentials
	}
	resp, err := s.respond(found)
	if err != nil {
		s.count(ctx, s.logins, outcomeError)
		return nil, err
	}
	s.count(ctx, s.logins, outcomeSuccess)
	return resp, nil
}

func (s *Service) FindByID(ctx context.Context, id string) (*UserDto, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, autherrors.ErrUserNotFound
	}
	found, err := s.userStore.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	dto := toDto(found)
	return &dto, nil
}

func (s *Service) Ready(ctx context.Context) error {
	return s.userStore.Ping(ctx)
}

func (s *Service) respond(user *store.User) (*AuthResponse, error) {
	token, _, err := s.issuer.Issue(auth.Claims{
		Subject: user.ID.String(),
		Email:   user.Email,
		Name:    user.Name,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", autherrors.ErrIssueToken, err)
	}
	return &AuthResponse{Token: token, User: toDto(user)}, nil
}

func (s *Service) count(ctx context.Context, counter metric.Int64Counter, outcome string) {
	counter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func toDto(user *store.User) UserDto {
	return UserDto{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
	}
}
