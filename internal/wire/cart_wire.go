package wire

import (
	"net/http"

	"ecom-backend/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCart(r chi.Router, cartHandler *adaptor.CartHandler, auth func(http.Handler) http.Handler) {
	r.With(auth).Route("/api/cart", func(r chi.Router) {
		r.Get("/", cartHandler.GetCart)
		r.Post("/{userId}/add", cartHandler.AddItems)
	})
}
