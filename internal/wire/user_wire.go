package wire

import (
	"net/http"

	"ecom-backend/internal/adaptor"
	"ecom-backend/internal/data/entity"
	"ecom-backend/pkg/middleware"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// wireUser configures profile and admin user management routes
func wireUser(
	r chi.Router,
	userHandler *adaptor.UserHandler,
	auth func(http.Handler) http.Handler,
	log *zap.Logger,
) {
	r.With(auth).Get("/api/user/profile", userHandler.GetProfile)

	r.With(
		auth,
		middleware.RequireRole(string(entity.RoleAdmin), log),
	).Route("/api/admin/users", func(r chi.Router) {
		r.Get("/", userHandler.GetAllUsers)           // GET /api/admin/users?page=1&per_page=10
		r.Delete("/{id}", userHandler.DeleteUser)     // DELETE /api/admin/users/{id}
		r.Patch("/{id}/role", userHandler.UpdateRole) // PATCH /api/admin/users/{id}/role
	})
}
