package domain

import "time"

const maxReviewComment = 500

// Review is a user's rating of a purchased product.
type Review struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user"`
	ProductID string    `json:"product"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks rating range and comment length.
func (r *Review) Validate() error {
	switch {
	case r.Rating < 1 || r.Rating > 5:
		return Validation("rating must be between 1 and 5")
	case r.Comment == "":
		return Validation("review comment is required")
	case len(r.Comment) > maxReviewComment:
		return Validation("review cannot exceed 500 characters")
	}
	return nil
}

// Reviewer is the public view of a review author.
type Reviewer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}
