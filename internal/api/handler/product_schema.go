package handler

import (
	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// --- Request / Response types ---

type createProductRequest struct {
	Category    string  `json:"category" validate:"required"`
	Name        string  `json:"name" validate:"required,max=200"`
	Price       float64 `json:"price" validate:"gte=0"`
	Image       string  `json:"image" validate:"required"`
	Description string  `json:"description" validate:"required,max=2000"`
	Stock       int     `json:"stock" validate:"gte=0"`
}

func (r createProductRequest) toInput() ports.CreateProductInput {
	return ports.CreateProductInput{
		Category:    r.Category,
		Name:        r.Name,
		Price:       r.Price,
		Image:       r.Image,
		Description: r.Description,
		Stock:       r.Stock,
	}
}

// updateProductRequest uses pointers so an omitted field is distinguishable
// from a field set to its zero value.
type updateProductRequest struct {
	Category    *string  `json:"category" validate:"omitempty,min=1"`
	Name        *string  `json:"name" validate:"omitempty,min=1,max=200"`
	Price       *float64 `json:"price" validate:"omitempty,gte=0"`
	Image       *string  `json:"image" validate:"omitempty,min=1"`
	Description *string  `json:"description" validate:"omitempty,min=1,max=2000"`
	Stock       *int     `json:"stock" validate:"omitempty,gte=0"`
}

func (r updateProductRequest) toPatch() domain.ProductPatch {
	return domain.ProductPatch{
		Category:    r.Category,
		Name:        r.Name,
		Price:       r.Price,
		Image:       r.Image,
		Description: r.Description,
		Stock:       r.Stock,
	}
}
