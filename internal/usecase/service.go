package usecase

import (
	"context"
	"io"
	"time"

	"ecom-backend/internal/data/repository"
	"ecom-backend/internal/face"
	"ecom-backend/pkg/mailer"
	"ecom-backend/pkg/utils"

	"go.uber.org/zap"
)

// FaceExtractor turns an uploaded image into a descriptor. It is nil when
// face recognition is disabled.
type FaceExtractor interface {
	Extract(ctx context.Context, r io.Reader) (face.Descriptor, error)
}

// SessionIssuer mints session tokens for authenticated users.
type SessionIssuer interface {
	Issue(subjectID, role string) (string, time.Time, error)
}

type Service struct {
	Auth     AuthService
	Password PasswordService
	User     UserService
	Cart     CartService
}

func NewService(
	repo *repository.Repository,
	config *utils.Config,
	hasher utils.PasswordHasher,
	tokens SessionIssuer,
	extractor FaceExtractor,
	mail mailer.Mailer,
	log *zap.Logger,
) *Service {
	return &Service{
		Auth:     NewAuthService(repo.User, hasher, tokens, extractor, config.Face, log),
		Password: NewPasswordService(repo.User, mail, config.Reset, log),
		User:     NewUserService(repo.User, log),
		Cart:     NewCartService(repo.User, log),
	}
}
