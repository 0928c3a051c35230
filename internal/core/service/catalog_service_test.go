package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

func newTestCatalog() (*CatalogService, *stubProductRepo, *memCache) {
	repo := newStubProductRepo()
	cache := newMemCache()
	return NewCatalogService(repo, cache, 0, zerolog.Nop()), repo, cache
}

func sampleProduct(name string, price float64, stock int) ports.CreateProductInput {
	return ports.CreateProductInput{
		Category:    " Electronics ",
		Name:        name,
		Price:       price,
		Image:       "https://img.example.com/" + name + ".png",
		Description: name + " description",
		Stock:       stock,
	}
}

func ptr[T any](v T) *T { return &v }

// ---------------------------------------------------------------------------
// Cache key
// ---------------------------------------------------------------------------

func TestListCacheKey_Deterministic(t *testing.T) {
	a, err := normalizeProductFilter(ports.ListProductsInput{Category: "Books", MinPrice: ptr(5.0), Keyword: "Go"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	b, err := normalizeProductFilter(ports.ListProductsInput{Keyword: "go", MinPrice: ptr(5.0), Category: " books", Page: 1, Limit: 20, Sort: "-created_at"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}

	if listCacheKey(0, a) != listCacheKey(0, b) {
		t.Fatalf("equivalent queries produced different keys:\n%s\n%s", listCacheKey(0, a), listCacheKey(0, b))
	}
	if !strings.HasPrefix(listCacheKey(0, a), CatalogNamespace) {
		t.Fatalf("key %q is outside the catalog namespace", listCacheKey(0, a))
	}
	if listCacheKey(0, a) == listCacheKey(1, a) {
		t.Fatalf("generations must not share keys")
	}
}

func TestListCacheKey_DistinguishesParameters(t *testing.T) {
	inputs := []ports.ListProductsInput{
		{},
		{Page: 2},
		{Limit: 10},
		{Sort: "price"},
		{Category: "books"},
		{MinPrice: ptr(1.0)},
		{MaxPrice: ptr(1.0)},
		{MinRating: ptr(1.0)},
		{Keyword: "phone"},
	}
	seen := make(map[string]int)
	for i, in := range inputs {
		f, err := normalizeProductFilter(in)
		if err != nil {
			t.Fatalf("input %d: %v", i, err)
		}
		key := listCacheKey(0, f)
		if j, dup := seen[key]; dup {
			t.Fatalf("inputs %d and %d share key %q", j, i, key)
		}
		seen[key] = i
	}
}

func TestNormalizeProductFilter_Rejects(t *testing.T) {
	cases := map[string]ports.ListProductsInput{
		"unknown sort":   {Sort: "password"},
		"negative page":  {Page: -1},
		"limit too high": {Limit: 101},
		"negative price": {MinPrice: ptr(-1.0)},
		"inverted range": {MinPrice: ptr(10.0), MaxPrice: ptr(5.0)},
		"rating above 5": {MinRating: ptr(6.0)},
	}
	for name, in := range cases {
		if _, err := normalizeProductFilter(in); !errors.Is(err, domain.ErrValidation) {
			t.Fatalf("%s: expected ErrValidation, got %v", name, err)
		}
	}
}

// ---------------------------------------------------------------------------
// Read path
// ---------------------------------------------------------------------------

func TestCatalogService_ListProducts_ReadThrough(t *testing.T) {
	svc, repo, cache := newTestCatalog()
	ctx := context.Background()
	_, _ = svc.CreateProduct(ctx, sampleProduct("phone", 10, 5))

	first, err := svc.ListProducts(ctx, ports.ListProductsInput{})
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if first.Cached {
		t.Fatalf("first read should come from the store")
	}
	if len(cache.keys()) != 1 {
		t.Fatalf("expected one cache entry, got %v", cache.keys())
	}

	second, err := svc.ListProducts(ctx, ports.ListProductsInput{})
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if !second.Cached {
		t.Fatalf("second read should be served from cache")
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected 1 store query, got %d", repo.listCalls)
	}
	if len(second.Products) != 1 || second.Products[0].Name != "phone" {
		t.Fatalf("unexpected cached page: %+v", second.Products)
	}
	if second.Pagination != first.Pagination {
		t.Fatalf("pagination changed through cache: %+v vs %+v", second.Pagination, first.Pagination)
	}
}

func TestCatalogService_ListProducts_CacheDown(t *testing.T) {
	svc, repo, cache := newTestCatalog()
	ctx := context.Background()
	_, _ = svc.CreateProduct(ctx, sampleProduct("phone", 10, 5))
	cache.down = true

	for i := 0; i < 3; i++ {
		page, err := svc.ListProducts(ctx, ports.ListProductsInput{})
		if err != nil {
			t.Fatalf("read %d failed with cache down: %v", i, err)
		}
		if len(page.Products) != 1 {
			t.Fatalf("read %d: expected 1 product, got %d", i, len(page.Products))
		}
	}
	if repo.listCalls != 3 {
		t.Fatalf("expected every read to hit the store, got %d", repo.listCalls)
	}
}

func TestCatalogService_ListProducts_CorruptEntryIsAMiss(t *testing.T) {
	svc, repo, cache := newTestCatalog()
	ctx := context.Background()
	f, _ := normalizeProductFilter(ports.ListProductsInput{})
	cache.entries[listCacheKey(0, f)] = []byte("{not json")

	if _, err := svc.ListProducts(ctx, ports.ListProductsInput{}); err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if repo.listCalls != 1 {
		t.Fatalf("expected fallback to store, got %d calls", repo.listCalls)
	}
}

func TestCatalogService_GetProduct_Cached(t *testing.T) {
	svc, repo, _ := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("laptop", 999, 2))

	if _, err := svc.GetProduct(ctx, p.ID); err != nil {
		t.Fatalf("GetProduct returned error: %v", err)
	}
	// Mutate the store behind the cache's back; a cached read must not see it.
	repo.products[p.ID].Name = "changed"
	got, _ := svc.GetProduct(ctx, p.ID)
	if got.Name != "laptop" {
		t.Fatalf("expected cached name, got %q", got.Name)
	}

	if _, err := svc.GetProduct(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Write path
// ---------------------------------------------------------------------------

func TestCatalogService_UpdateToZeroVisibleAfterWrite(t *testing.T) {
	svc, _, _ := newTestCatalog()
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, sampleProduct("widget", 10, 5))
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}
	if p.Category != "electronics" {
		t.Fatalf("expected normalised category, got %q", p.Category)
	}

	page, _ := svc.ListProducts(ctx, ports.ListProductsInput{})
	if page.Products[0].Stock != 5 {
		t.Fatalf("expected stock 5, got %d", page.Products[0].Stock)
	}

	if _, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Stock: ptr(0)}); err != nil {
		t.Fatalf("UpdateProduct returned error: %v", err)
	}

	page, _ = svc.ListProducts(ctx, ports.ListProductsInput{})
	if page.Cached {
		t.Fatalf("read after write should not be served from the stale entry")
	}
	if len(page.Products) != 1 {
		t.Fatalf("updated product missing from list")
	}
	if page.Products[0].Stock != 0 || page.Products[0].Price != 10 {
		t.Fatalf("expected stock 0 and price 10, got %+v", page.Products[0])
	}
}

func TestCatalogService_WriteClearsWholeNamespace(t *testing.T) {
	svc, _, cache := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("a", 1, 1))

	_, _ = svc.ListProducts(ctx, ports.ListProductsInput{})
	_, _ = svc.ListProducts(ctx, ports.ListProductsInput{Sort: "price"})
	_, _ = svc.ListProducts(ctx, ports.ListProductsInput{Page: 2})
	_, _ = svc.GetProduct(ctx, p.ID)
	cache.entries["sessions:other"] = []byte("x")

	if _, err := svc.DeleteProduct(ctx, p.ID); err != nil {
		t.Fatalf("DeleteProduct returned error: %v", err)
	}

	keys := cache.keys()
	if len(keys) != 1 || keys[0] != "sessions:other" {
		t.Fatalf("expected only the foreign key to survive, got %v", keys)
	}
}

func TestCatalogService_FailedWriteDoesNotInvalidate(t *testing.T) {
	svc, repo, cache := newTestCatalog()
	ctx := context.Background()
	_, _ = svc.ListProducts(ctx, ports.ListProductsInput{})
	repo.failWrite = errStore

	if _, err := svc.CreateProduct(ctx, sampleProduct("x", 1, 1)); !errors.Is(err, errStore) {
		t.Fatalf("expected store error, got %v", err)
	}
	if len(cache.prefixCalls) != 0 {
		t.Fatalf("invalidation issued for an unconfirmed write: %v", cache.prefixCalls)
	}
}

func TestCatalogService_InvalidationFailureDoesNotFailWrite(t *testing.T) {
	svc, repo, cache := newTestCatalog()
	ctx := context.Background()
	cache.down = true

	p, err := svc.CreateProduct(ctx, sampleProduct("x", 1, 1))
	if err != nil {
		t.Fatalf("write failed because of cache: %v", err)
	}
	if _, ok := repo.products[p.ID]; !ok {
		t.Fatalf("store mutation was rolled back")
	}
	if len(cache.prefixCalls) != 1 || cache.prefixCalls[0] != CatalogNamespace {
		t.Fatalf("expected one namespace invalidation attempt, got %v", cache.prefixCalls)
	}
}

func TestCatalogService_UpdateProduct_Validation(t *testing.T) {
	svc, _, _ := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("x", 1, 1))

	if _, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Price: ptr(-5.0)}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := svc.UpdateProduct(ctx, "missing", domain.ProductPatch{Stock: ptr(1)}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCatalogService_CreateProduct_Validation(t *testing.T) {
	svc, _, cache := newTestCatalog()

	in := sampleProduct("x", -1, 1)
	if _, err := svc.CreateProduct(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(cache.prefixCalls) != 0 {
		t.Fatalf("rejected write must not invalidate")
	}
}

func TestCatalogService_ApplyRating(t *testing.T) {
	svc, _, cache := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("x", 1, 1))
	_, _ = svc.GetProduct(ctx, p.ID)

	if err := svc.ApplyRating(ctx, p.ID, domain.RatingAggregate{Average: 4.5, Count: 2}); err != nil {
		t.Fatalf("ApplyRating returned error: %v", err)
	}
	got, _ := svc.GetProduct(ctx, p.ID)
	if got.Rating != 4.5 || got.RatingsCount != 2 {
		t.Fatalf("expected fresh rating, got %+v", got)
	}
	if len(cache.prefixCalls) != 2 {
		t.Fatalf("expected create and rating invalidations, got %v", cache.prefixCalls)
	}
}

func TestCatalogService_SlowReadCannotRefillAfterInvalidation(t *testing.T) {
	svc, repo, _ := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("widget", 10, 5))

	// The reader has fetched stock 5 from the store; before it fills the
	// cache a writer sets stock 0 and completes its invalidation.
	repo.afterList = func() {
		if _, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Stock: ptr(0)}); err != nil {
			t.Errorf("UpdateProduct returned error: %v", err)
		}
	}
	slow, err := svc.ListProducts(ctx, ports.ListProductsInput{})
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if slow.Products[0].Stock != 5 {
		t.Fatalf("the in-flight read may return the pre-write value, got %d", slow.Products[0].Stock)
	}

	page, err := svc.ListProducts(ctx, ports.ListProductsInput{})
	if err != nil {
		t.Fatalf("ListProducts returned error: %v", err)
	}
	if page.Products[0].Stock != 0 {
		t.Fatalf("read issued after invalidation returned stale stock %d (cached=%v)", page.Products[0].Stock, page.Cached)
	}
}

func TestCatalogService_SlowGetCannotRefillAfterInvalidation(t *testing.T) {
	svc, repo, _ := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("widget", 10, 5))

	repo.afterFind = func() {
		if err := svc.ApplyRating(ctx, p.ID, domain.RatingAggregate{Average: 3, Count: 1}); err != nil {
			t.Errorf("ApplyRating returned error: %v", err)
		}
	}
	if _, err := svc.GetProduct(ctx, p.ID); err != nil {
		t.Fatalf("GetProduct returned error: %v", err)
	}

	got, err := svc.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetProduct returned error: %v", err)
	}
	if got.Rating != 3 || got.RatingsCount != 1 {
		t.Fatalf("read issued after invalidation returned stale rating %+v", got)
	}
}

func TestCatalogService_ConcurrentPatchesKeepBothFields(t *testing.T) {
	svc, repo, _ := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("widget", 10, 5))

	// A stock edit lands between the price edit's read and its write.
	repo.afterFind = func() {
		if _, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Stock: ptr(0)}); err != nil {
			t.Errorf("stock update returned error: %v", err)
		}
	}
	updated, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Price: ptr(25.0)})
	if err != nil {
		t.Fatalf("price update returned error: %v", err)
	}
	if updated.Price != 25 || updated.Stock != 0 {
		t.Fatalf("expected price 25 and stock 0, got price %v stock %d", updated.Price, updated.Stock)
	}
}

func TestCatalogService_ConcurrentReadsAndWrites(t *testing.T) {
	svc, _, _ := newTestCatalog()
	ctx := context.Background()
	p, _ := svc.CreateProduct(ctx, sampleProduct("x", 1, 100))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = svc.ListProducts(ctx, ports.ListProductsInput{})
		}()
		go func(n int) {
			defer wg.Done()
			_, _ = svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Stock: ptr(n)})
		}(i)
	}
	wg.Wait()

	if _, err := svc.UpdateProduct(ctx, p.ID, domain.ProductPatch{Stock: ptr(42)}); err != nil {
		t.Fatalf("final update failed: %v", err)
	}
	page, _ := svc.ListProducts(ctx, ports.ListProductsInput{})
	if page.Products[0].Stock != 42 {
		t.Fatalf("read after final invalidation returned stale stock %d", page.Products[0].Stock)
	}
}
