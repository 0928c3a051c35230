package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	service ports.OrderService
}

func NewOrderHandler(service ports.OrderService) *OrderHandler {
	return &OrderHandler{service: service}
}

type createOrderRequest struct {
	Product         string `json:"product" validate:"required"`
	Quantity        int    `json:"quantity" validate:"required,min=1"`
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
}

type updateOrderRequest struct {
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
}

type adminUpdateOrderRequest struct {
	Status        *string    `json:"status" validate:"omitempty,oneof=pending confirmed shipped delivered cancelled"`
	PaymentStatus *string    `json:"payment_status" validate:"omitempty,oneof=pending paid failed"`
	DeliveryDate  *time.Time `json:"delivery_date"`
}

func (r adminUpdateOrderRequest) toPatch() domain.OrderAdminPatch {
	var patch domain.OrderAdminPatch
	if r.Status != nil {
		s := domain.OrderStatus(*r.Status)
		patch.Status = &s
	}
	if r.PaymentStatus != nil {
		ps := domain.PaymentStatus(*r.PaymentStatus)
		patch.PaymentStatus = &ps
	}
	patch.DeliveryDate = r.DeliveryDate
	return patch
}

// Create handles POST /orders.
//
// @Summary      Place an order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createOrderRequest  true  "Order"
// @Success      201   {object}  domain.Order
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /orders [post]
func (h *OrderHandler) Create(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req createOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.service.Create(c.Request().Context(), ports.CreateOrderInput{
		UserID:          id.UserID,
		ProductID:       req.Product,
		Quantity:        req.Quantity,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, order)
}

// ListMine handles GET /orders/my-orders.
//
// @Summary      List the caller's orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        status  query     string  false  "Filter by status"
// @Param        page    query     int     false  "Page (default 1)"
// @Param        limit   query     int     false  "Page size (default 20, max 100)"
// @Success      200     {object}  listResponse[domain.Order]
// @Failure      400     {object}  map[string]string
// @Failure      401     {object}  map[string]string
// @Router       /orders/my-orders [get]
func (h *OrderHandler) ListMine(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}

	result, err := h.service.ListMine(c.Request().Context(), ports.ListOrdersFilter{
		UserID: id.UserID,
		Status: c.QueryParam("status"),
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, listResponse[*domain.Order]{Data: result.Orders, Pagination: result.Pagination})
}

// Update handles PUT /orders/:id. Owners may only change the shipping address.
//
// @Summary      Change an order's shipping address
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Order ID"
// @Param        body  body      updateOrderRequest  true  "New address"
// @Success      200   {object}  domain.Order
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /orders/{id} [put]
func (h *OrderHandler) Update(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	var req updateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.service.UpdateShippingAddress(c.Request().Context(), id.UserID, c.Param("id"), req.ShippingAddress)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// Delete handles DELETE /orders/:id.
//
// @Summary      Delete an order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /orders/{id} [delete]
func (h *OrderHandler) Delete(c echo.Context) error {
	id, err := callerIdentity(c)
	if err != nil {
		return err
	}

	order, err := h.service.Delete(c.Request().Context(), id.UserID, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}

// AdminUpdate handles PUT /orders/admin/:id.
//
// @Summary      Update fulfilment fields of any order
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                   true  "Order ID"
// @Param        body  body      adminUpdateOrderRequest  true  "Status, payment status, delivery date"
// @Success      200   {object}  domain.Order
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /orders/admin/{id} [put]
func (h *OrderHandler) AdminUpdate(c echo.Context) error {
	var req adminUpdateOrderRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	order, err := h.service.AdminUpdate(c.Request().Context(), c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, order)
}
