package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// HeaderCache reports whether a catalog listing was served from the cache.
const HeaderCache = "X-Cache"

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	service ports.CatalogService
}

func NewProductHandler(service ports.CatalogService) *ProductHandler {
	return &ProductHandler{service: service}
}

// List handles GET /products.
//
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        keyword    query     string  false  "Case-insensitive match on name or description"
// @Param        category   query     string  false  "Category"
// @Param        min_price  query     number  false  "Minimum price"
// @Param        max_price  query     number  false  "Maximum price"
// @Param        rating     query     number  false  "Minimum average rating"
// @Param        sort       query     string  false  "created_at, -created_at, price, -price, name, -name, rating, -rating"
// @Param        page       query     int     false  "Page (default 1)"
// @Param        limit      query     int     false  "Page size (default 20, max 100)"
// @Success      200        {object}  listResponse[domain.Product]
// @Failure      400        {object}  map[string]string
// @Router       /products [get]
func (h *ProductHandler) List(c echo.Context) error {
	page, limit, err := pageQuery(c)
	if err != nil {
		return err
	}
	in := ports.ListProductsInput{
		Keyword:  c.QueryParam("keyword"),
		Category: c.QueryParam("category"),
		Sort:     c.QueryParam("sort"),
		Page:     page,
		Limit:    limit,
	}
	if in.MinPrice, err = floatQuery(c, "min_price"); err != nil {
		return err
	}
	if in.MaxPrice, err = floatQuery(c, "max_price"); err != nil {
		return err
	}
	if in.MinRating, err = floatQuery(c, "rating"); err != nil {
		return err
	}

	result, err := h.service.ListProducts(c.Request().Context(), in)
	if err != nil {
		return err
	}

	if result.Cached {
		c.Response().Header().Set(HeaderCache, "HIT")
	} else {
		c.Response().Header().Set(HeaderCache, "MISS")
	}
	return c.JSON(http.StatusOK, listResponse[*domain.Product]{Data: result.Products, Pagination: result.Pagination})
}

// Get handles GET /products/:id.
//
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  domain.Product
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [get]
func (h *ProductHandler) Get(c echo.Context) error {
	p, err := h.service.GetProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Create handles POST /products.
//
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createProductRequest  true  "Product"
// @Success      201   {object}  domain.Product
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /products [post]
func (h *ProductHandler) Create(c echo.Context) error {
	var req createProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.service.CreateProduct(c.Request().Context(), req.toInput())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

// Update handles PUT /products/:id. Only the fields present in the body change.
//
// @Summary      Update a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Product ID"
// @Param        body  body      updateProductRequest  true  "Fields to change"
// @Success      200   {object}  domain.Product
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /products/{id} [put]
func (h *ProductHandler) Update(c echo.Context) error {
	var req updateProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	p, err := h.service.UpdateProduct(c.Request().Context(), c.Param("id"), req.toPatch())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

// Delete handles DELETE /products/:id.
//
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  domain.Product
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /products/{id} [delete]
func (h *ProductHandler) Delete(c echo.Context) error {
	p, err := h.service.DeleteProduct(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}
