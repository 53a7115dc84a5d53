package response

import (
	"time"

	"ecom-backend/internal/data/entity"
)

type AuthResponse struct {
	User      UserResponse `json:"user"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type FaceLoginResponse struct {
	AuthResponse
	Distance float64 `json:"distance"`
}

// UserResponse never carries the password hash, reset token state or the raw
// face descriptor.
type UserResponse struct {
	ID           string            `json:"id"`
	FirstName    string            `json:"firstName"`
	LastName     string            `json:"lastName"`
	Email        string            `json:"email"`
	PhoneNumber  string            `json:"phoneNumber"`
	Role         entity.UserRole   `json:"role"`
	FaceEnrolled bool              `json:"faceEnrolled"`
	Cart         []entity.CartItem `json:"cart"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// Helper converters
func UserToResponse(user *entity.User) UserResponse {
	cart := user.Cart
	if cart == nil {
		cart = []entity.CartItem{}
	}

	return UserResponse{
		ID:           user.ID.String(),
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		PhoneNumber:  user.PhoneNumber,
		Role:         user.Role,
		FaceEnrolled: user.HasFace(),
		Cart:         cart,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

func AuthToResponse(user *entity.User, token string, expiresAt time.Time) AuthResponse {
	return AuthResponse{
		User:      UserToResponse(user),
		Token:     token,
		ExpiresAt: expiresAt,
	}
}
