package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

type stubCatalogService struct {
	listFn   func(ctx context.Context, in ports.ListProductsInput) (*ports.ProductPage, error)
	getFn    func(ctx context.Context, id string) (*domain.Product, error)
	createFn func(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error)
	updateFn func(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	deleteFn func(ctx context.Context, id string) (*domain.Product, error)
}

func (s *stubCatalogService) ListProducts(ctx context.Context, in ports.ListProductsInput) (*ports.ProductPage, error) {
	return s.listFn(ctx, in)
}

func (s *stubCatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.getFn(ctx, id)
}

func (s *stubCatalogService) CreateProduct(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error) {
	return s.createFn(ctx, in)
}

func (s *stubCatalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	return s.updateFn(ctx, id, patch)
}

func (s *stubCatalogService) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	return s.deleteFn(ctx, id)
}

func (s *stubCatalogService) ApplyRating(context.Context, string, domain.RatingAggregate) error {
	return nil
}

func TestProductHandler_List_ParsesQuery(t *testing.T) {
	var got ports.ListProductsInput
	stub := &stubCatalogService{
		listFn: func(ctx context.Context, in ports.ListProductsInput) (*ports.ProductPage, error) {
			got = in
			return &ports.ProductPage{
				Products:   []*domain.Product{{ID: "p1", Name: "Lamp"}},
				Pagination: ports.NewPagination(1, 2, 5),
				Cached:     true,
			}, nil
		},
	}
	handler := NewProductHandler(stub)

	c, rec := newTestContext(t, http.MethodGet,
		"/api/v1/products?keyword=lamp&category=Home&min_price=0&max_price=99.5&rating=4&sort=-price&page=2&limit=5", "")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	if got.Keyword != "lamp" || got.Category != "Home" || got.Sort != "-price" || got.Page != 2 || got.Limit != 5 {
		t.Fatalf("unexpected input: %+v", got)
	}
	if got.MinPrice == nil || *got.MinPrice != 0 {
		t.Fatalf("min_price=0 must be passed as a bound, got %v", got.MinPrice)
	}
	if got.MaxPrice == nil || *got.MaxPrice != 99.5 || got.MinRating == nil || *got.MinRating != 4 {
		t.Fatalf("unexpected bounds: %v %v", got.MaxPrice, got.MinRating)
	}
	if rec.Header().Get(HeaderCache) != "HIT" {
		t.Fatalf("expected X-Cache HIT, got %q", rec.Header().Get(HeaderCache))
	}

	var resp struct {
		Data       []domain.Product `json:"data"`
		Pagination ports.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(resp.Data) != 1 || resp.Pagination.Page != 2 || resp.Pagination.TotalPages != 1 {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestProductHandler_List_AbsentBoundsAreNil(t *testing.T) {
	stub := &stubCatalogService{
		listFn: func(ctx context.Context, in ports.ListProductsInput) (*ports.ProductPage, error) {
			if in.MinPrice != nil || in.MaxPrice != nil || in.MinRating != nil {
				t.Fatalf("expected no bounds, got %+v", in)
			}
			return &ports.ProductPage{Products: []*domain.Product{}}, nil
		},
	}
	handler := NewProductHandler(stub)

	c, rec := newTestContext(t, http.MethodGet, "/api/v1/products", "")
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Header().Get(HeaderCache) != "MISS" {
		t.Fatalf("expected X-Cache MISS, got %q", rec.Header().Get(HeaderCache))
	}
}

func TestProductHandler_List_RejectsMalformedNumbers(t *testing.T) {
	handler := NewProductHandler(&stubCatalogService{})

	for _, target := range []string{
		"/api/v1/products?min_price=cheap",
		"/api/v1/products?rating=high",
		"/api/v1/products?page=two",
	} {
		c, _ := newTestContext(t, http.MethodGet, target, "")
		if err := handler.List(c); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", target, err)
		}
	}
}

func TestProductHandler_Create(t *testing.T) {
	stub := &stubCatalogService{
		createFn: func(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error) {
			return &domain.Product{ID: "p1", Name: in.Name, Price: in.Price}, nil
		},
	}
	handler := NewProductHandler(stub)

	c, rec := newTestContext(t, http.MethodPost, "/api/v1/products",
		`{"category":"home","name":"Lamp","price":0,"image":"https://img/lamp.png","description":"A lamp","stock":3}`)
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	c, _ = newTestContext(t, http.MethodPost, "/api/v1/products",
		`{"category":"home","name":"Lamp","price":-1,"image":"x","description":"A lamp"}`)
	if err := handler.Create(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for negative price, got %v", err)
	}
}

func TestProductHandler_Update_DistinguishesZeroFromAbsent(t *testing.T) {
	stub := &stubCatalogService{
		updateFn: func(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
			if id != "p1" {
				t.Fatalf("unexpected id %q", id)
			}
			if patch.Stock == nil || *patch.Stock != 0 {
				t.Fatalf("stock=0 must be a real update, got %v", patch.Stock)
			}
			if patch.Price != nil || patch.Name != nil {
				t.Fatalf("absent fields must stay nil: %+v", patch)
			}
			return &domain.Product{ID: id}, nil
		},
	}
	handler := NewProductHandler(stub)

	c, rec := newTestContext(t, http.MethodPut, "/api/v1/products/p1", `{"stock":0}`)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newTestContext(t, http.MethodPut, "/api/v1/products/p1", `{"name":""}`)
	c.SetParamNames("id")
	c.SetParamValues("p1")
	if err := handler.Update(c); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for empty name, got %v", err)
	}
}

func TestProductHandler_Get_NotFound(t *testing.T) {
	stub := &stubCatalogService{
		getFn: func(ctx context.Context, id string) (*domain.Product, error) {
			return nil, domain.ErrProductNotFound
		},
	}
	handler := NewProductHandler(stub)

	c, _ := newTestContext(t, http.MethodGet, "/api/v1/products/p9", "")
	c.SetParamNames("id")
	c.SetParamValues("p9")
	if err := handler.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
