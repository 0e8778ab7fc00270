package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/huxley-dev/account-be/internal/api/handlers"
	"github.com/huxley-dev/account-be/internal/auth"
	"github.com/huxley-dev/account-be/internal/services"
	"github.com/huxley-dev/account-be/internal/upload"
	"github.com/huxley-dev/account-be/internal/validation"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(userService services.UserServiceProvider, tokens *auth.Manager, uploads *upload.Store) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authHandler := handlers.NewAuthHandler(userService, tokens)
	guard := tokens.Guard(userService)

	r.With(uploads.Single("profileImage"), validation.Middleware(validation.Register)).
		Post("/register", authHandler.Register)
	r.With(validation.Middleware(validation.Login)).
		Post("/login", authHandler.Login)

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(guard)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.GetMe)
		r.With(validation.Middleware(validation.ProfileUpdate)).
			Put("/profile", authHandler.UpdateProfile)
		r.Put("/change-password", authHandler.ChangePassword)
		r.Put("/profile-image", authHandler.UpdateProfileImage)
	})

	return r
}
