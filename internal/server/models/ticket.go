package models

import "time"

// Ticket is the receipt of a completed purchase.
type Ticket struct {
	ID               string    `json:"_id"`
	Code             string    `json:"code"`
	PurchaseDateTime time.Time `json:"purchase_datetime"`
	Amount           float64   `json:"amount"`
	Purchaser        string    `json:"purchaser"`
}
