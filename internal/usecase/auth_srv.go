package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"

	"ecom-backend/internal/data/entity"
	"ecom-backend/internal/data/repository"
	"ecom-backend/internal/dto/request"
	"ecom-backend/internal/dto/response"
	"ecom-backend/internal/face"
	"ecom-backend/pkg/utils"

	"go.uber.org/zap"
)

type AuthService interface {
	Register(ctx context.Context, req *request.RegisterRequest, image io.Reader) (*response.UserResponse, error)
	Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error)
	LoginWithFace(ctx context.Context, image io.Reader) (*response.FaceLoginResponse, error)
}

type authService struct {
	userRepo  repository.UserRepository
	hasher    utils.PasswordHasher
	tokens    SessionIssuer
	extractor FaceExtractor
	threshold float64
	log       *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	hasher utils.PasswordHasher,
	tokens SessionIssuer,
	extractor FaceExtractor,
	faceCfg utils.FaceConfig,
	log *zap.Logger,
) AuthService {
	threshold := faceCfg.MatchThreshold
	if threshold <= 0 {
		threshold = face.DefaultThreshold
	}

	return &authService{
		userRepo:  userRepo,
		hasher:    hasher,
		tokens:    tokens,
		extractor: extractor,
		threshold: threshold,
		log:       log.With(zap.String("service", "auth")),
	}
}

// Register creates a customer account. When image is non-nil the account is
// also enrolled for face login; an image without a usable face fails the
// whole registration.
func (s *authService) Register(ctx context.Context, req *request.RegisterRequest, image io.Reader) (*response.UserResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Register validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	email := repository.NormalizeEmail(req.Email)
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		s.log.Error("Failed to check email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("%w: check email: %w", ErrUpstream, err)
	}
	if existing != nil {
		return nil, ErrDuplicateIdentity
	}

	user := &entity.User{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       email,
		PhoneNumber: req.PhoneNumber,
		Role:        entity.RoleCustomer,
	}
	user.SetPassword(req.Password)

	if image != nil {
		descriptor, err := s.extract(ctx, image)
		if err != nil {
			return nil, err
		}
		user.FaceDescriptor = descriptor.Slice()
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("%w: create user: %w", ErrUpstream, err)
	}

	s.log.Info("User registered",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.Bool("face_enrolled", user.HasFace()))

	resp := response.UserToResponse(user)
	return &resp, nil
}

func (s *authService) Login(ctx context.Context, req *request.LoginRequest) (*response.AuthResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		s.log.Warn("Login validation failed", zap.Any("errors", errs))
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	user, err := s.userRepo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrUpstream, err)
	}
	if user == nil {
		s.log.Warn("User not found for login", zap.String("email", req.Email))
		return nil, ErrUserNotFound
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		s.log.Warn("Invalid password", zap.String("user_id", user.ID.String()))
		return nil, ErrIncorrectPassword
	}

	resp, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in", zap.String("user_id", user.ID.String()))
	return resp, nil
}

// LoginWithFace identifies the caller by comparing the uploaded face against
// every enrolled account. The closest descriptor under the threshold wins.
func (s *authService) LoginWithFace(ctx context.Context, image io.Reader) (*response.FaceLoginResponse, error) {
	probe, err := s.extract(ctx, image)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.ListEnrolled(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list enrolled: %w", ErrUpstream, err)
	}

	gallery := make([]face.Enrolled, 0, len(users))
	owners := make([]*entity.User, 0, len(users))
	for _, u := range users {
		d, err := face.FromSlice(u.FaceDescriptor)
		if err != nil {
			s.log.Warn("Skipping malformed descriptor", zap.String("user_id", u.ID.String()), zap.Error(err))
			continue
		}
		gallery = append(gallery, face.Enrolled{UserID: u.ID, Descriptor: d})
		owners = append(owners, u)
	}

	match, err := face.Match(probe, gallery, s.threshold)
	if err != nil {
		if errors.Is(err, face.ErrNoMatch) {
			s.log.Info("Face login rejected", zap.Int("gallery", len(gallery)))
			return nil, ErrNoMatch
		}
		return nil, err
	}

	user := owners[match.Index]
	auth, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.log.Info("User logged in with face",
		zap.String("user_id", user.ID.String()),
		zap.Float64("distance", match.Distance))

	return &response.FaceLoginResponse{AuthResponse: *auth, Distance: match.Distance}, nil
}

// ==================== HELPER METHODS ====================

func (s *authService) extract(ctx context.Context, image io.Reader) (face.Descriptor, error) {
	if s.extractor == nil {
		return face.Descriptor{}, ErrFaceDisabled
	}

	d, err := s.extractor.Extract(ctx, image)
	switch {
	case err == nil:
		return d, nil
	case errors.Is(err, face.ErrNoFaceDetected):
		return d, ErrNoFaceDetected
	case errors.Is(err, face.ErrUnsupportedImage), errors.Is(err, face.ErrImageTooLarge):
		return d, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return d, err
	default:
		s.log.Error("Face extraction failed", zap.Error(err))
		return d, fmt.Errorf("%w: extract face: %w", ErrUpstream, err)
	}
}

func (s *authService) issue(user *entity.User) (*response.AuthResponse, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID.String(), string(user.Role))
	if err != nil {
		s.log.Error("Failed to issue token", zap.Error(err), zap.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("issue token: %w", err)
	}

	resp := response.AuthToResponse(user, token, expiresAt)
	return &resp, nil
}
