package usecase

import (
	"context"
	"errors"
	"fmt"

	"ecom-backend/internal/data/entity"
	"ecom-backend/internal/data/repository"
	"ecom-backend/internal/dto/request"
	"ecom-backend/internal/dto/response"
	"ecom-backend/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartService interface {
	GetCart(ctx context.Context, userID uuid.UUID) (*response.CartResponse, error)
	AddItems(ctx context.Context, actorID uuid.UUID, actorRole, targetID string, req *request.AddCartItemsRequest) (*response.CartResponse, error)
}

type cartService struct {
	userRepo repository.UserRepository
	log      *zap.Logger
}

func NewCartService(userRepo repository.UserRepository, log *zap.Logger) CartService {
	return &cartService{
		userRepo: userRepo,
		log:      log.With(zap.String("service", "cart")),
	}
}

func (cs *cartService) GetCart(ctx context.Context, userID uuid.UUID) (*response.CartResponse, error) {
	user, err := cs.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrUpstream, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	resp := response.CartToResponse(user)
	return &resp, nil
}

// AddItems appends to the target user's cart. Only the owner or an admin may
// do so. Items are appended as given; repeated products are not merged.
func (cs *cartService) AddItems(ctx context.Context, actorID uuid.UUID, actorRole, targetID string, req *request.AddCartItemsRequest) (*response.CartResponse, error) {
	target, err := uuid.Parse(targetID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid user ID", ErrInvalidInput)
	}
	if target != actorID && actorRole != string(entity.RoleAdmin) {
		cs.log.Warn("Cart write denied",
			zap.String("actor_id", actorID.String()),
			zap.String("target_id", targetID))
		return nil, ErrForbidden
	}

	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
	}

	user, err := cs.userRepo.FindByID(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrUpstream, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	items := make([]entity.CartItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, entity.CartItem{
			ProductID: item.ProductID,
			Name:      item.Name,
			Image:     item.Image,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	user.AddToCart(items...)

	if err := cs.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%w: save cart: %w", ErrUpstream, err)
	}

	cs.log.Info("Cart updated",
		zap.String("user_id", user.ID.String()),
		zap.Int("added", len(req.Items)),
		zap.Int("items", len(user.Cart)))

	resp := response.CartToResponse(user)
	return &resp, nil
}
