package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/core/ports"
)

// ReviewHandler handles HTTP requests for product reviews.
type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type createReviewRequest struct {
	Product string `json:"product" validate:"required"`
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=500"`
}

type updateReviewRequest struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,min=1,max=500"`
}

// ListByProduct handles GET /reviews/product/:productId.
//
// @Summary      List a product's reviews
// @Tags         reviews
// @Produce      json
// @Param        productId  path      string  true   "Product ID"
// @Param        page       query     int     false  "Page (default 1)"
// @Param        limit      query     int     false  "Page size (default 20, max 100)"
// @Success      200        {object}  listResponse[ports.ReviewView]
// @Failure      400        {object}  map[string]string
// @Router       /reviews/product/{productId} [get]
func (h *ReviewHandler) ListByProduct(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	result, err := h.service.ListByProduct(c.Request().Context(), c.Param("productId"), page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[ports.ReviewView]{Data: result.Reviews, Pagination: result.Pagination})
}

// Create handles POST /reviews. Only buyers with a delivered order may review.
//
// @Summary      Review a purchased product
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createReviewRequest  true  "Review"
// @Success      201   {object}  domain.Review
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /reviews [post]
func (h *ReviewHandler) Create(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req createReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	review, err := h.service.Create(c.Request().Context(), ports.CreateReviewInput{
		UserID:    id.UserID,
		ProductID: req.Product,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, review)
}

// Update handles PUT /reviews/:id.
//
// @Summary      Edit a review
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Review ID"
// @Param        body  body      updateReviewRequest  true  "Fields to change"
// @Success      200   {object}  domain.Review
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /reviews/{id} [put]
func (h *ReviewHandler) Update(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updateReviewRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	review, err := h.service.Update(c.Request().Context(), id.UserID, c.Param("id"), req.Rating, req.Comment)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, review)
}

// Delete handles DELETE /reviews/:id.
//
// @Summary      Delete a review
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review ID"
// @Success      200  {object}  domain.Review
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /reviews/{id} [delete]
func (h *ReviewHandler) Delete(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	review, err := h.service.Delete(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, review)
}
