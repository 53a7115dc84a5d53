package wire

import (
	"ecom-backend/internal/adaptor"
	"ecom-backend/pkg/middleware"
	"ecom-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAuth(
	r chi.Router,
	authHandler *adaptor.AuthHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// one budget per client IP shared by every credential endpoint
	limited := r.With(middleware.RateLimit(config.Security.LoginRateLimit, config.Security.LoginRateWindow, log))

	r.Post("/api/register", authHandler.Register)
	limited.Post("/api/login", authHandler.Login)
	limited.Post("/api/login-with-face", authHandler.LoginWithFace)
	limited.Post("/api/forgot-password", authHandler.ForgotPassword)
	limited.Post("/api/reset-password/{token}", authHandler.ResetPassword)
}
