// Package rest provides the HTTP handlers of the auth service.
package rest

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	autherrors "github.com/abgdnv/shophub/internal/auth/errors"
	"github.com/abgdnv/shophub/internal/auth/service"
	"github.com/abgdnv/shophub/pkg/auth"
	"github.com/abgdnv/shophub/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

const (
	RootMessage          = "Backend Server is Running"
	msgFillAllFields     = "Please fill in all fields"
	msgInvalidEmail      = "Please enter a valid email address"
	msgPasswordTooLong   = "Password must be at most 72 bytes"
	msgInvalidBody       = "Invalid request body"
	msgUserExists        = "User already exists"
	msgInvalidCredential = "Invalid credentials"
	msgUserNotFound      = "User not found"
	msgInternal          = "Internal server error"
	msgNotReady          = "Database is not reachable"
)

const readinessTimeout = 2 * time.Second

type Handler struct {
	service  service.AuthService
	verifier auth.Verifier
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates a new Handler with the provided service and token verifier.
func NewHandler(service service.AuthService, verifier auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		verifier: verifier,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the auth service.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.Root)
	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.With(web.BearerAuth(h.verifier, h.logger)).Get("/me", h.Me)
	})
	r.Get("/livez", h.Live)
	r.Get("/readyz", h.Ready)
}

// Root answers the plain text banner.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	web.RespondText(w, http.StatusOK, RootMessage)
}

// Register creates an account.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var dto service.RegisterDto
	if !h.decodeAndValidate(w, r, &dto) {
		return
	}
	h.logger.DebugContext(r.Context(), "Received request to register user", "email", dto.Email)

	resp, err := h.service.Register(r.Context(), dto)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserExists) {
			h.logger.WarnContext(r.Context(), "User already exists", "email", dto.Email)
			web.RespondError(w, h.logger, http.StatusBadRequest, msgUserExists)
			return
		}
		if errors.Is(err, autherrors.ErrPasswordTooLong) {
			web.RespondError(w, h.logger, http.StatusBadRequest, msgPasswordTooLong)
			return
		}
		h.logger.ErrorContext(r.Context(), "Error registering user", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgInternal)
		return
	}
	h.logger.InfoContext(r.Context(), "User registered successfully", "user_id", resp.User.ID)
	web.RespondJSON(w, h.logger, http.StatusCreated, resp)
}

// Login exchanges credentials for a token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto service.LoginDto
	if !h.decodeAndValidate(w, r, &dto) {
		return
	}

	resp, err := h.service.Login(r.Context(), dto)
	if err != nil {
		if errors.Is(err, autherrors.ErrInvalidCredentials) {
			h.logger.WarnContext(r.Context(), "Invalid credentials", "email", dto.Email)
			web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidCredential)
			return
		}
		h.logger.ErrorContext(r.Context(), "Error logging user in", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgInternal)
		return
	}
	h.logger.InfoContext(r.Context(), "User logged in", "user_id", resp.User.ID)
	web.RespondJSON(w, h.logger, http.StatusOK, resp)
}

// Me returns the user the bearer token was issued to.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := web.UserID(r.Context())
	if !ok {
		web.RespondError(w, h.logger, http.StatusUnauthorized, "Unauthorized")
		return
	}
	user, err := h.service.FindByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, autherrors.ErrUserNotFound) {
			web.RespondError(w, h.logger, http.StatusNotFound, msgUserNotFound)
			return
		}
		h.logger.ErrorContext(r.Context(), "Error retrieving user", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, msgInternal)
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, map[string]any{"user": user})
}

// Live is the liveness probe.
func (h *Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// Ready is the readiness probe; it fails while the user store cannot be reached.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()
	if err := h.service.Ready(ctx); err != nil {
		h.logger.WarnContext(r.Context(), "Readiness check failed", "error", err)
		web.RespondError(w, h.logger, http.StatusServiceUnavailable, msgNotReady)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// decodeAndValidate decodes the JSON body into dst and validates it. On failure it writes
// the 400 response and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := web.DecodeJSON(r, dst); err != nil {
		h.logger.WarnContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidBody)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		fields, ok := web.FieldErrors(err)
		if !ok {
			h.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
			web.RespondError(w, h.logger, http.StatusBadRequest, msgInvalidBody)
			return false
		}
		h.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", fields)
		web.RespondJSON(w, h.logger, http.StatusBadRequest, web.ErrorResponse{
			Message:          validationMessage(err),
			ValidationErrors: fields,
		})
		return false
	}
	return true
}

// validationMessage picks the user facing message for a failed validation.
// Missing fields win over malformed ones.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return msgFillAllFields
	}
	tags := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		tags[fe.Tag()] = true
	}
	switch {
	case tags["required"]:
		return msgFillAllFields
	case tags["email"]:
		return msgInvalidEmail
	case tags["max"]:
		return msgPasswordTooLong
	default:
		return msgFillAllFields
	}
}
