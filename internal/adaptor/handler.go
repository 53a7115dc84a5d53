package adaptor

import (
	"ecom-backend/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Auth *AuthHandler
	User *UserHandler
	Cart *CartHandler
}

// NewHandler builds every handler. maxImage bounds face uploads in bytes.
func NewHandler(service *usecase.Service, maxImage int64, log *zap.Logger) *Handler {
	return &Handler{
		Auth: NewAuthHandler(service.Auth, service.Password, maxImage, log),
		User: NewUserHandler(service.User, log),
		Cart: NewCartHandler(service.Cart, log),
	}
}
