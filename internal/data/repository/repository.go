package repository

import (
	"ecom-backend/pkg/database"
	"ecom-backend/pkg/utils"

	"go.uber.org/zap"
)

type Repository struct {
	User UserRepository
}

func NewRepository(db database.PgxIface, hasher utils.PasswordHasher, log *zap.Logger) *Repository {
	return &Repository{
		User: NewUserRepository(db, hasher, log),
	}
}
