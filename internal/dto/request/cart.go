package request

type CartItemRequest struct {
	ProductID string  `json:"productId" validate:"required"`
	Name      string  `json:"name" validate:"required,max=200"`
	Image     string  `json:"image,omitempty" validate:"omitempty,max=2048"`
	Price     float64 `json:"price" validate:"gte=0"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
}

type AddCartItemsRequest struct {
	Items []CartItemRequest `json:"items" validate:"required,min=1,dive"`
}
