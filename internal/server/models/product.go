package models

// DefaultProductOwner marks products that were not created by a premium user.
const DefaultProductOwner = "ADMIN"

type Product struct {
	ID          string   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Code        string   `json:"code"`
	Price       float64  `json:"price"`
	Status      bool     `json:"status"`
	Stock       int      `json:"stock"`
	Category    string   `json:"category"`
	Thumbnails  []string `json:"thumbnails"`
	Owner       string   `json:"owner"`
}

// ProductPatch lists the fields a product update may overwrite.
type ProductPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Code        *string   `json:"code,omitempty"`
	Price       *float64  `json:"price,omitempty"`
	Status      *bool     `json:"status,omitempty"`
	Stock       *int      `json:"stock,omitempty"`
	Category    *string   `json:"category,omitempty"`
	Thumbnails  *[]string `json:"thumbnails,omitempty"`
}

// Apply returns p with every non-nil field of patch copied over it.
func (p Product) Apply(patch ProductPatch) Product {
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Code != nil {
		p.Code = *patch.Code
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Stock != nil {
		p.Stock = *patch.Stock
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Thumbnails != nil {
		p.Thumbnails = append([]string{}, (*patch.Thumbnails)...)
	}
	return p
}
