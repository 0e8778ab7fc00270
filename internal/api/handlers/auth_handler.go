package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/huxley-dev/account-be/internal/auth"
	"github.com/huxley-dev/account-be/internal/httpx"
	"github.com/huxley-dev/account-be/internal/models"
	"github.com/huxley-dev/account-be/internal/services"
	"github.com/huxley-dev/account-be/internal/upload"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles HTTP requests for accounts and sessions.
type AuthHandler struct {
	service services.UserServiceProvider
	tokens  *auth.Manager
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(service services.UserServiceProvider, tokens *auth.Manager) *AuthHandler {
	return &AuthHandler{service: service, tokens: tokens}
}

// Register handles new user registration. The body has already passed the
// registration rule set; an uploaded image, if any, was stored by the
// upload middleware.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	body, ok := httpx.BodyFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	profileImage, _ := upload.PathFromContext(r.Context())

	params := services.CreateUserParams{
		FirstName:    strings.TrimSpace(field(body, "firstName")),
		LastName:     strings.TrimSpace(field(body, "lastName")),
		Email:        field(body, "email"),
		Password:     field(body, "password"),
		Phone:        field(body, "phone"),
		Bio:          field(body, "bio"),
		Position:     field(body, "position"),
		ProfileImage: profileImage,
		Address: models.Address{
			Country:    strings.TrimSpace(field(body, "address.country")),
			City:       strings.TrimSpace(field(body, "address.city")),
			State:      strings.TrimSpace(field(body, "address.state")),
			PostalCode: strings.TrimSpace(field(body, "address.postalCode")),
			TaxID:      strings.TrimSpace(field(body, "address.taxId")),
		},
	}

	user, err := h.service.CreateUser(params)
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			httpx.Fail(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		log.Error().Err(err).Str("email", params.Email).Msg("Failed to register user")
		httpx.ServerError(w, "Server error during registration", err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		httpx.ServerError(w, "Server error during registration", err)
		return
	}

	httpx.OK(w, http.StatusCreated, "User registered successfully", map[string]any{
		"user":  user,
		"token": token,
	})
}

// Login handles user authentication and JWT generation.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	body, ok := httpx.BodyFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	email := field(body, "email")
	password := field(body, "password")

	user, err := h.service.AuthenticateUser(email, password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			log.Warn().Str("email", email).Msg("Failed authentication attempt")
			httpx.Fail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		log.Error().Err(err).Str("email", email).Msg("Login lookup failed")
		httpx.ServerError(w, "Server error during login", err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to generate JWT")
		httpx.ServerError(w, "Server error during login", err)
		return
	}

	// Set Secure flag based on environment.
	isProd := os.Getenv("APP_ENV") == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Expires:  time.Now().Add(h.tokens.TTL()),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})

	httpx.OK(w, http.StatusOK, "Login successful", map[string]any{
		"user":  user,
		"token": token,
	})
}

// Logout acknowledges the logout. Tokens are not revoked; they stay valid
// until they expire.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	httpx.OK(w, http.StatusOK, "Logout successful", nil)
}

// GetMe returns the account the guard resolved for this request. No store
// access happens here.
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		log.Error().Msg("Could not retrieve user from request context")
		httpx.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}

	httpx.OK(w, http.StatusOK, "User profile retrieved successfully", map[string]any{
		"user": user,
	})
}

// UpdateProfile persists name and email changes. The validation rule set
// covers more fields than are stored here; see DESIGN.md.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}
	body, ok := httpx.BodyFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	updated, err := h.service.UpdateProfile(user.ID,
		optionalField(body, "firstName"),
		optionalField(body, "lastName"),
		optionalField(body, "email"))
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			httpx.Fail(w, http.StatusBadRequest, "User already exists with this email")
			return
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile")
		httpx.ServerError(w, "Server error during profile update", err)
		return
	}

	httpx.OK(w, http.StatusOK, "Profile updated successfully", map[string]any{
		"user": updated,
	})
}

// ChangePassword verifies the current password and stores the new one.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}

	var payload struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.service.UpdatePassword(user.ID, payload.CurrentPassword, payload.NewPassword); err != nil {
		if errors.Is(err, services.ErrWrongPassword) {
			httpx.Fail(w, http.StatusUnauthorized, "Current password is incorrect")
			return
		}
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to change password")
		httpx.ServerError(w, "Server error during password change", err)
		return
	}

	httpx.OK(w, http.StatusOK, "Password changed successfully", nil)
}

// UpdateProfileImage points the account at a stored upload if the request
// carried one, falling back to an imageUrl in the body.
func (h *AuthHandler) UpdateProfileImage(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.Fail(w, http.StatusInternalServerError, "Server error")
		return
	}

	imagePath, _ := upload.PathFromContext(r.Context())
	if imagePath == "" {
		var payload struct {
			ImageURL string `json:"imageUrl"`
		}
		// An empty or non-JSON body just means no fallback URL either.
		_ = json.NewDecoder(r.Body).Decode(&payload)
		imagePath = payload.ImageURL
	}

	if imagePath == "" {
		httpx.Fail(w, http.StatusBadRequest, "No image provided")
		return
	}

	updated, err := h.service.UpdateProfileImage(user.ID, imagePath)
	if err != nil {
		log.Error().Err(err).Str("user_id", user.ID).Msg("Failed to update profile image")
		httpx.ServerError(w, "Server error during image update", err)
		return
	}

	httpx.OK(w, http.StatusOK, "Profile image updated successfully", map[string]any{
		"user": updated,
	})
}

// field returns a body value or the empty string.
func field(b *httpx.Body, name string) string {
	v, _ := b.Get(name)
	return v
}

// optionalField returns a pointer to the trimmed value when the field is
// present and non-empty, nil otherwise.
func optionalField(b *httpx.Body, name string) *string {
	v, ok := b.Get(name)
	if !ok {
		return nil
	}
	t := strings.TrimSpace(v)
	if t == "" {
		return nil
	}
	return &t
}
