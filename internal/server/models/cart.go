package models

// CartItem is one product line of a cart.
type CartItem struct {
	Product  string `json:"product"`
	Quantity int    `json:"quantity"`
}

type Cart struct {
	ID       string     `json:"_id"`
	Products []CartItem `json:"products"`
}

// NewCart returns an empty cart with the given id.
func NewCart(id string) Cart {
	return Cart{ID: id, Products: []CartItem{}}
}
