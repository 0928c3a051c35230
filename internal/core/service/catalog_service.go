package service

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/glimpse/storefront-api/internal/api/metrics"
	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

const (
	// CatalogNamespace prefixes every cached catalog read. A write clears
	// the whole namespace.
	CatalogNamespace = "products:"
	// CatalogGenerationKey counts namespace invalidations. Every cached
	// read key embeds the generation it was filled under, so a fill that
	// started before a write can never be read after it. It lives outside
	// the namespace so clearing entries never resets it.
	CatalogGenerationKey = "catalog:generation"

	DefaultCatalogTTL = 300 * time.Second

	defaultPageLimit = 20
	maxPageLimit     = 100
	defaultSort      = "-created_at"
)

var productSorts = map[string]struct{}{
	"created_at": {}, "-created_at": {},
	"price": {}, "-price": {},
	"name": {}, "-name": {},
	"rating": {}, "-rating": {},
}

// CatalogService serves product reads through the cache and clears the
// catalog namespace after every confirmed store write.
type CatalogService struct {
	repo   ports.ProductRepository
	cache  ports.Cache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewCatalogService(repo ports.ProductRepository, cache ports.Cache, ttl time.Duration, logger zerolog.Logger) *CatalogService {
	if ttl <= 0 {
		ttl = DefaultCatalogTTL
	}
	return &CatalogService{repo: repo, cache: cache, ttl: ttl, logger: logger}
}

// ListProducts returns one page of the catalog. A cached page is returned
// as stored, without re-checking the store.
func (s *CatalogService) ListProducts(ctx context.Context, in ports.ListProductsInput) (*ports.ProductPage, error) {
	filter, err := normalizeProductFilter(in)
	if err != nil {
		return nil, err
	}

	gen, cacheable := s.generation(ctx)
	key := listCacheKey(gen, filter)
	var page ports.ProductPage
	if cacheable && s.readCache(ctx, key, &page) {
		page.Cached = true
		return &page, nil
	}

	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*domain.Product{}
	}
	page = ports.ProductPage{
		Products:   items,
		Pagination: ports.NewPagination(total, filter.Page, filter.Limit),
	}
	if cacheable {
		s.writeCache(ctx, key, &page)
	}
	return &page, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	gen, cacheable := s.generation(ctx)
	key := productCacheKey(gen, id)
	var p domain.Product
	if cacheable && s.readCache(ctx, key, &p) {
		return &p, nil
	}

	found, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if cacheable {
		s.writeCache(ctx, key, found)
	}
	return found, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ports.CreateProductInput) (*domain.Product, error) {
	now := time.Now().UTC()
	p := &domain.Product{
		Category:    domain.NormalizeCategory(in.Category),
		Name:        strings.TrimSpace(in.Name),
		Price:       in.Price,
		Image:       strings.TrimSpace(in.Image),
		Description: strings.TrimSpace(in.Description),
		Stock:       in.Stock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	metrics.CatalogWritesTotal.WithLabelValues("create").Inc()
	s.invalidate(ctx, "create", created.ID)
	return created, nil
}

// UpdateProduct applies patch to the stored product. Fields absent from the
// patch keep their values; a field set to zero is written as zero.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error) {
	current, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return current, nil
	}

	// Validate against the current document; the store then writes only the
	// patched fields so concurrent edits of other fields survive.
	patch = patch.Normalized()
	patch.Apply(current)
	if err := current.Validate(); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	metrics.CatalogWritesTotal.WithLabelValues("update").Inc()
	s.invalidate(ctx, "update", id)
	return updated, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.CatalogWritesTotal.WithLabelValues("delete").Inc()
	s.invalidate(ctx, "delete", id)
	return deleted, nil
}

// ApplyRating stores a recomputed review aggregate. It is a catalog write
// like any other and clears the namespace.
func (s *CatalogService) ApplyRating(ctx context.Context, productID string, agg domain.RatingAggregate) error {
	if err := s.repo.SetRating(ctx, productID, agg); err != nil {
		return err
	}
	metrics.CatalogWritesTotal.WithLabelValues("rating").Inc()
	s.invalidate(ctx, "rating", productID)
	return nil
}

// generation must be read before the store is queried. When the cache
// cannot report it the read bypasses the cache entirely.
func (s *CatalogService) generation(ctx context.Context) (int64, bool) {
	gen, ok := s.cache.Generation(ctx, CatalogGenerationKey)
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}
	return gen, ok
}

func (s *CatalogService) readCache(ctx context.Context, key string, dst interface{}) bool {
	raw, ok := s.cache.Get(ctx, key)
	if !ok {
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		s.cache.Delete(ctx, key)
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return false
	}
	metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
	return true
}

func (s *CatalogService) writeCache(ctx context.Context, key string, v interface{}) {
	raw, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("cache encode failed")
		return
	}
	s.cache.Set(ctx, key, raw, s.ttl)
}

// invalidate runs after the store has confirmed the write. Bumping the
// generation retires every cached read at once; the sweep only reclaims
// memory. Failure is logged and never returned.
func (s *CatalogService) invalidate(ctx context.Context, op, productID string) {
	bumped := s.cache.Bump(ctx, CatalogGenerationKey)
	swept := s.cache.DeletePrefix(ctx, CatalogNamespace)
	if bumped {
		metrics.CacheInvalidationsTotal.WithLabelValues("ok").Inc()
		if !swept {
			s.logger.Debug().Str("op", op).Msg("stale catalog entries left to expire")
		}
		return
	}
	metrics.CacheInvalidationsTotal.WithLabelValues("failed").Inc()
	s.logger.Warn().Str("op", op).Str("product_id", productID).Msg("catalog cache invalidation failed; entries expire by TTL")
}

func normalizeProductFilter(in ports.ListProductsInput) (ports.ProductFilter, error) {
	f := ports.ProductFilter{
		Keyword:   strings.TrimSpace(in.Keyword),
		Category:  domain.NormalizeCategory(in.Category),
		MinPrice:  in.MinPrice,
		MaxPrice:  in.MaxPrice,
		MinRating: in.MinRating,
		Sort:      strings.TrimSpace(in.Sort),
		Page:      in.Page,
		Limit:     in.Limit,
	}

	if f.Sort == "" {
		f.Sort = defaultSort
	}
	if _, ok := productSorts[f.Sort]; !ok {
		return f, domain.Validation("unsupported sort field")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Page < 1 {
		return f, domain.Validation("page must be at least 1")
	}
	if f.Limit == 0 {
		f.Limit = defaultPageLimit
	}
	if f.Limit < 1 || f.Limit > maxPageLimit {
		return f, domain.Validation("limit must be between 1 and 100")
	}
	if f.MinPrice != nil && *f.MinPrice < 0 || f.MaxPrice != nil && *f.MaxPrice < 0 {
		return f, domain.Validation("price bounds cannot be negative")
	}
	if f.MinPrice != nil && f.MaxPrice != nil && *f.MinPrice > *f.MaxPrice {
		return f, domain.Validation("min_price cannot exceed max_price")
	}
	if f.MinRating != nil && (*f.MinRating < 0 || *f.MinRating > 5) {
		return f, domain.Validation("rating must be between 0 and 5")
	}
	return f, nil
}

// listCacheKey encodes a normalised filter under generation gen.
// url.Values.Encode sorts by key, so the same query always yields the same
// key regardless of the order the client sent its parameters in.
func listCacheKey(gen int64, f ports.ProductFilter) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("limit", strconv.Itoa(f.Limit))
	v.Set("sort", f.Sort)
	if f.Keyword != "" {
		v.Set("keyword", strings.ToLower(f.Keyword))
	}
	if f.Category != "" {
		v.Set("category", f.Category)
	}
	setFloat(v, "min_price", f.MinPrice)
	setFloat(v, "max_price", f.MaxPrice)
	setFloat(v, "rating", f.MinRating)
	return CatalogNamespace + "list:" + strconv.FormatInt(gen, 10) + ":" + v.Encode()
}

func productCacheKey(gen int64, id string) string {
	return CatalogNamespace + "id:" + strconv.FormatInt(gen, 10) + ":" + id
}

func setFloat(v url.Values, name string, f *float64) {
	if f != nil {
		v.Set(name, strconv.FormatFloat(*f, 'f', -1, 64))
	}
}
