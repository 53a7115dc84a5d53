package response

import "ecom-backend/internal/data/entity"

type CartResponse struct {
	UserID string            `json:"userId"`
	Items  []entity.CartItem `json:"items"`
	Count  int               `json:"count"`
	Total  float64           `json:"total"`
}

func CartToResponse(user *entity.User) CartResponse {
	items := user.Cart
	if items == nil {
		items = []entity.CartItem{}
	}

	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}

	return CartResponse{
		UserID: user.ID.String(),
		Items:  items,
		Count:  len(items),
		Total:  total,
	}
}
