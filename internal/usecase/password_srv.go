package usecase

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"ecom-backend/internal/data/repository"
	"ecom-backend/internal/dto/request"
	"ecom-backend/pkg/mailer"
	"ecom-backend/pkg/utils"

	"go.uber.org/zap"
)

const defaultResetExpiry = 10 * time.Minute

type PasswordService interface {
	ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) error
	ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error
}

type passwordService struct {
	userRepo repository.UserRepository
	mail     mailer.Mailer
	ttl      time.Duration
	urlBase  string
	log      *zap.Logger
	now      func() time.Time
}

func NewPasswordService(
	userRepo repository.UserRepository,
	mail mailer.Mailer,
	cfg utils.ResetConfig,
	log *zap.Logger,
) PasswordService {
	ttl := time.Duration(cfg.ExpiryMinutes) * time.Minute
	if ttl <= 0 {
		ttl = defaultResetExpiry
	}

	return &passwordService{
		userRepo: userRepo,
		mail:     mail,
		ttl:      ttl,
		urlBase:  cfg.URLBase,
		log:      log.With(zap.String("service", "password")),
		now:      time.Now,
	}
}

// ForgotPassword issues a fresh reset token, replacing any earlier one, and
// mails the link. Only the token digest is persisted.
func (s *passwordService) ForgotPassword(ctx context.Context, req *request.ForgotPasswordRequest) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return fmt.Errorf("%w: find user: %w", ErrUpstream, err)
	}
	if user == nil {
		return ErrUserNotFound
	}

	plain, digest, err := utils.GenerateResetToken()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUpstream, err)
	}

	expiresAt := s.now().Add(s.ttl)
	user.SetResetToken(digest, expiresAt)
	if err := s.userRepo.Save(ctx, user); err != nil {
		return fmt.Errorf("%w: store reset token: %w", ErrUpstream, err)
	}

	msg := mailer.Message{
		To:      user.Email,
		Subject: "Password Reset",
		HTML:    resetEmail(user.FirstName, s.urlBase+plain, s.ttl),
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.Error("Failed to send reset email", zap.Error(err), zap.String("user_id", user.ID.String()))
		return fmt.Errorf("%w: send reset email: %w", ErrUpstream, err)
	}

	s.log.Info("Reset token issued",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", expiresAt))
	return nil
}

// ResetPassword consumes a token: the new password and the cleared token
// fields are written in one conditional update, so a token can be spent once
// even under concurrent requests.
func (s *passwordService) ResetPassword(ctx context.Context, req *request.ResetPasswordRequest) error {
	if req.Token == "" {
		return ErrInvalidOrExpiredToken
	}
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	digest := utils.HashToken(req.Token)
	now := s.now()

	user, err := s.userRepo.FindByResetTokenHash(ctx, digest, now)
	if err != nil {
		return fmt.Errorf("%w: find reset token: %w", ErrUpstream, err)
	}
	if user == nil {
		s.log.Warn("Reset attempted with unknown or expired token")
		return ErrInvalidOrExpiredToken
	}

	user.SetPassword(req.NewPassword)
	if err := s.userRepo.ConsumeResetToken(ctx, user, digest, now); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.log.Warn("Reset token spent by a concurrent request", zap.String("user_id", user.ID.String()))
			return ErrInvalidOrExpiredToken
		}
		return fmt.Errorf("%w: save password: %w", ErrUpstream, err)
	}

	s.log.Info("Password reset", zap.String("user_id", user.ID.String()))
	return nil
}

func resetEmail(name, link string, ttl time.Duration) string {
	link = html.EscapeString(link)
	return fmt.Sprintf(`<p>Hello %s,</p>
<p>We received a request to reset your password. Use the link below within %d minutes:</p>
<p><a href="%s">%s</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`,
		html.EscapeString(name), int(ttl.Minutes()), link, link)
}
