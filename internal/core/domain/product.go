package domain

import (
	"strings"
	"time"
)

// Product is a catalog entry. Owned by admins, readable by anyone.
type Product struct {
	ID           string    `json:"id"`
	Category     string    `json:"category"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Image        string    `json:"image"`
	Description  string    `json:"description"`
	Stock        int       `json:"stock"`
	Rating       float64   `json:"rating"`
	RatingsCount int       `json:"ratings_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

const (
	maxProductName        = 200
	maxProductDescription = 2000
)

// NormalizeCategory lower-cases and trims a category name.
func NormalizeCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// Validate enforces the catalog range constraints.
func (p *Product) Validate() error {
	switch {
	case p.Category == "":
		return Validation("category is required")
	case p.Name == "":
		return Validation("product name is required")
	case len(p.Name) > maxProductName:
		return Validation("product name cannot exceed 200 characters")
	case p.Image == "":
		return Validation("product image is required")
	case p.Description == "":
		return Validation("product description is required")
	case len(p.Description) > maxProductDescription:
		return Validation("description cannot exceed 2000 characters")
	case p.Price < 0:
		return Validation("price cannot be negative")
	case p.Stock < 0:
		return Validation("stock cannot be negative")
	case p.RatingsCount < 0:
		return Validation("ratings count cannot be negative")
	}
	return nil
}

// ProductPatch is a partial update. A nil field means "not provided"; a
// pointer to a zero value is a real update to zero.
type ProductPatch struct {
	Category    *string
	Name        *string
	Price       *float64
	Image       *string
	Description *string
	Stock       *int
}

// Empty reports whether no field was provided.
func (p ProductPatch) Empty() bool {
	return p.Category == nil && p.Name == nil && p.Price == nil &&
		p.Image == nil && p.Description == nil && p.Stock == nil
}

// Normalized returns p with categories lower-cased and text fields trimmed,
// the form in which they are stored.
func (p ProductPatch) Normalized() ProductPatch {
	if p.Category != nil {
		c := NormalizeCategory(*p.Category)
		p.Category = &c
	}
	if p.Name != nil {
		n := strings.TrimSpace(*p.Name)
		p.Name = &n
	}
	if p.Image != nil {
		i := strings.TrimSpace(*p.Image)
		p.Image = &i
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		p.Description = &d
	}
	return p
}

// Apply copies every provided field onto prod.
func (p ProductPatch) Apply(prod *Product) {
	p = p.Normalized()
	if p.Category != nil {
		prod.Category = *p.Category
	}
	if p.Name != nil {
		prod.Name = *p.Name
	}
	if p.Price != nil {
		prod.Price = *p.Price
	}
	if p.Image != nil {
		prod.Image = *p.Image
	}
	if p.Description != nil {
		prod.Description = *p.Description
	}
	if p.Stock != nil {
		prod.Stock = *p.Stock
	}
}

// RatingAggregate summarises all reviews of a product.
type RatingAggregate struct {
	Average float64
	Count   int
}
