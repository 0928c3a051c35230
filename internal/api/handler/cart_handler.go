package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// CartHandler handles HTTP requests for the caller's shopping cart.
type CartHandler struct {
	service ports.CartService
}

func NewCartHandler(service ports.CartService) *CartHandler {
	return &CartHandler{service: service}
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1"`
}

// Add handles POST /cart/:productId. Adding a product already in the cart
// increments its quantity.
//
// @Summary      Add a product to the cart
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        productId  path      string  true  "Product ID"
// @Success      201        {object}  domain.CartItem
// @Failure      401        {object}  map[string]string
// @Failure      404        {object}  map[string]string
// @Router       /cart/{productId} [post]
func (h *CartHandler) Add(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	item, err := h.service.AddItem(c.Request().Context(), id.UserID, c.Param("productId"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, item)
}

// List handles GET /cart.
//
// @Summary      List cart items
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        page   query     int  false  "Page (default 1)"
// @Param        limit  query     int  false  "Page size (default 20, max 100)"
// @Success      200    {object}  listResponse[domain.CartItem]
// @Failure      401    {object}  map[string]string
// @Router       /cart [get]
func (h *CartHandler) List(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	result, err := h.service.ListItems(c.Request().Context(), id.UserID, page, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[*domain.CartItem]{Data: result.Items, Pagination: result.Pagination})
}

// Update handles PUT /cart/:id.
//
// @Summary      Change the quantity of a cart item
// @Tags         cart
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Cart item ID"
// @Param        body  body      updateCartItemRequest  true  "New quantity"
// @Success      200   {object}  domain.CartItem
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /cart/{id} [put]
func (h *CartHandler) Update(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updateCartItemRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	item, err := h.service.UpdateQuantity(c.Request().Context(), id.UserID, c.Param("id"), req.Quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}

// Remove handles DELETE /cart/:id.
//
// @Summary      Remove a cart item
// @Tags         cart
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Cart item ID"
// @Success      200  {object}  domain.CartItem
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /cart/{id} [delete]
func (h *CartHandler) Remove(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	item, err := h.service.RemoveItem(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, item)
}
