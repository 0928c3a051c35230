package service

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	users map[string]*domain.User // by id
	seq   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{users: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, domain.ErrUserExists
		}
	}
	r.seq++
	c := cloneUser(user)
	c.ID = "u" + strconv.Itoa(r.seq)
	r.users[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, name, address *string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if name != nil {
		u.Name = *name
	}
	if address != nil {
		u.Address = *address
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) UpdatePasswordHash(_ context.Context, id, hash string) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	u.PasswordHash = hash
	return cloneUser(u), nil
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

type stubProductRepo struct {
	mu        sync.Mutex
	products  map[string]*domain.Product
	seq       int
	listCalls int
	failWrite error // if set, Create/Update/Delete return this error

	// afterFind and afterList run once the store has answered, outside the
	// lock, to interleave another request before the caller continues.
	afterFind func()
	afterList func()
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[string]*domain.Product)}
}

func cloneProduct(p *domain.Product) *domain.Product {
	clone := *p
	return &clone
}

func (r *stubProductRepo) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return nil, r.failWrite
	}
	r.seq++
	c := cloneProduct(p)
	c.ID = "p" + strconv.Itoa(r.seq)
	// Keep creation order stable for -created_at sorting.
	c.CreatedAt = c.CreatedAt.Add(time.Duration(r.seq) * time.Millisecond)
	r.products[c.ID] = c
	return cloneProduct(c), nil
}

func (r *stubProductRepo) FindByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	p, ok := r.products[id]
	var out *domain.Product
	if ok {
		out = cloneProduct(p)
	}
	hook := r.afterFind
	r.afterFind = nil
	r.mu.Unlock()

	if !ok {
		return nil, domain.ErrProductNotFound
	}
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *stubProductRepo) List(_ context.Context, f ports.ProductFilter) ([]*domain.Product, int64, error) {
	items, total, err := r.list(f)

	r.mu.Lock()
	hook := r.afterList
	r.afterList = nil
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
	return items, total, err
}

// list applies the same filters the real Mongo repo would use.
func (r *stubProductRepo) list(f ports.ProductFilter) ([]*domain.Product, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++

	var matched []*domain.Product
	for _, p := range r.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if f.Keyword != "" {
			kw := strings.ToLower(f.Keyword)
			if !strings.Contains(strings.ToLower(p.Name), kw) && !strings.Contains(strings.ToLower(p.Description), kw) {
				continue
			}
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.MinRating != nil && p.Rating < *f.MinRating {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}

	sort.Slice(matched, func(i, j int) bool {
		switch f.Sort {
		case "price":
			return matched[i].Price < matched[j].Price
		case "-price":
			return matched[i].Price > matched[j].Price
		default:
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
	})

	total := int64(len(matched))
	start := (f.Page - 1) * f.Limit
	if start > len(matched) {
		start = len(matched)
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

// Update mirrors a Mongo $set of the patched fields only.
func (r *stubProductRepo) Update(_ context.Context, id string, patch domain.ProductPatch, updatedAt time.Time) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return nil, r.failWrite
	}
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	patch.Apply(p)
	p.UpdatedAt = updatedAt
	return cloneProduct(p), nil
}

func (r *stubProductRepo) Delete(_ context.Context, id string) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite != nil {
		return nil, r.failWrite
	}
	p, ok := r.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	delete(r.products, id)
	return p, nil
}

func (r *stubProductRepo) SetRating(_ context.Context, id string, agg domain.RatingAggregate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Rating = agg.Average
	p.RatingsCount = agg.Count
	return nil
}

// ---------------------------------------------------------------------------
// Cache
// ---------------------------------------------------------------------------

// memCache is a map-backed ports.Cache. Generation counters are kept apart
// from entries. down simulates an unreachable backend: reads miss, writes
// are dropped, DeletePrefix and Bump report failure.
type memCache struct {
	mu          sync.Mutex
	entries     map[string][]byte
	gens        map[string]int64
	down        bool
	prefixCalls []string
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string][]byte), gens: make(map[string]int64)}
}

func (c *memCache) Generation(_ context.Context, key string) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return 0, false
	}
	return c.gens[key], true
}

func (c *memCache) Bump(_ context.Context, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return false
	}
	c.gens[key]++
	return true
}

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return nil, false
	}
	v, ok := c.entries[key]
	return v, ok
}

func (c *memCache) Set(_ context.Context, key string, value []byte, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.down {
		return
	}
	c.entries[key] = value
}

func (c *memCache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *memCache) DeletePrefix(_ context.Context, prefix string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prefixCalls = append(c.prefixCalls, prefix)
	if c.down {
		return false
	}
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	return true
}

func (c *memCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ---------------------------------------------------------------------------
// Cart
// ---------------------------------------------------------------------------

type stubCartRepo struct {
	items map[string]*domain.CartItem
	seq   int
}

func newStubCartRepo() *stubCartRepo {
	return &stubCartRepo{items: make(map[string]*domain.CartItem)}
}

func (r *stubCartRepo) AddOrIncrement(_ context.Context, userID, productID string) (*domain.CartItem, error) {
	for _, it := range r.items {
		if it.UserID == userID && it.ProductID == productID {
			it.Quantity++
			clone := *it
			return &clone, nil
		}
	}
	r.seq++
	it := &domain.CartItem{ID: "c" + strconv.Itoa(r.seq), UserID: userID, ProductID: productID, Quantity: 1}
	r.items[it.ID] = it
	clone := *it
	return &clone, nil
}

func (r *stubCartRepo) FindByID(_ context.Context, id string) (*domain.CartItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	clone := *it
	return &clone, nil
}

func (r *stubCartRepo) ListByUser(_ context.Context, userID string, page, limit int) ([]*domain.CartItem, int64, error) {
	var out []*domain.CartItem
	for _, it := range r.items {
		if it.UserID == userID {
			clone := *it
			out = append(out, &clone)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubCartRepo) UpdateQuantity(_ context.Context, id string, quantity int) (*domain.CartItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	it.Quantity = quantity
	clone := *it
	return &clone, nil
}

func (r *stubCartRepo) Delete(_ context.Context, id string) (*domain.CartItem, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrCartItemNotFound
	}
	delete(r.items, id)
	return it, nil
}

// ---------------------------------------------------------------------------
// Orders
// ---------------------------------------------------------------------------

type stubOrderRepo struct {
	orders     map[string]*domain.Order
	seq        int
	lastFilter ports.ListOrdersFilter
	afterFind  func() // runs once, after FindByID has read the order
}

func newStubOrderRepo() *stubOrderRepo {
	return &stubOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *stubOrderRepo) Create(_ context.Context, o *domain.Order) (*domain.Order, error) {
	r.seq++
	clone := *o
	clone.ID = "o" + strconv.Itoa(r.seq)
	r.orders[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	clone := *o
	if hook := r.afterFind; hook != nil {
		r.afterFind = nil
		hook()
	}
	return &clone, nil
}

func (r *stubOrderRepo) List(_ context.Context, f ports.ListOrdersFilter) ([]*domain.Order, int64, error) {
	r.lastFilter = f
	var out []*domain.Order
	for _, o := range r.orders {
		if o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && string(o.Status) != f.Status {
			continue
		}
		clone := *o
		out = append(out, &clone)
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateShippingAddress(_ context.Context, id, address string, updatedAt time.Time) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	o.ShippingAddress = address
	o.UpdatedAt = updatedAt
	out := *o
	return &out, nil
}

func (r *stubOrderRepo) ApplyAdminPatch(_ context.Context, id string, patch domain.OrderAdminPatch, updatedAt time.Time) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	patch.Apply(o)
	o.UpdatedAt = updatedAt
	out := *o
	return &out, nil
}

func (r *stubOrderRepo) Delete(_ context.Context, id string) (*domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	delete(r.orders, id)
	return o, nil
}

func (r *stubOrderRepo) HasDelivered(_ context.Context, userID, productID string) (bool, error) {
	for _, o := range r.orders {
		if o.UserID == userID && o.ProductID == productID && o.Status == domain.OrderDelivered {
			return true, nil
		}
	}
	return false, nil
}

// ---------------------------------------------------------------------------
// Reviews
// ---------------------------------------------------------------------------

type stubReviewRepo struct {
	reviews map[string]*domain.Review
	seq     int
}

func newStubReviewRepo() *stubReviewRepo {
	return &stubReviewRepo{reviews: make(map[string]*domain.Review)}
}

func (r *stubReviewRepo) Create(_ context.Context, rv *domain.Review) (*domain.Review, error) {
	for _, existing := range r.reviews {
		if existing.UserID == rv.UserID && existing.ProductID == rv.ProductID {
			return nil, domain.ErrReviewExists
		}
	}
	r.seq++
	clone := *rv
	clone.ID = "r" + strconv.Itoa(r.seq)
	r.reviews[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubReviewRepo) FindByID(_ context.Context, id string) (*domain.Review, error) {
	rv, ok := r.reviews[id]
	if !ok {
		return nil, domain.ErrReviewNotFound
	}
	clone := *rv
	return &clone, nil
}

func (r *stubReviewRepo) ListByProduct(_ context.Context, productID string, _, _ int) ([]*domain.Review, int64, error) {
	var out []*domain.Review
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			clone := *rv
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, int64(len(out)), nil
}

func (r *stubReviewRepo) Update(_ context.Context, rv *domain.Review) (*domain.Review, error) {
	if _, ok := r.reviews[rv.ID]; !ok {
		return nil, domain.ErrReviewNotFound
	}
	clone := *rv
	r.reviews[rv.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubReviewRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(r.reviews, id)
	return nil
}

func (r *stubReviewRepo) Aggregate(_ context.Context, productID string) (domain.RatingAggregate, error) {
	var sum, n int
	for _, rv := range r.reviews {
		if rv.ProductID == productID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return domain.RatingAggregate{}, nil
	}
	return domain.RatingAggregate{Average: float64(sum) / float64(n), Count: n}, nil
}

// ---------------------------------------------------------------------------
// Notifier
// ---------------------------------------------------------------------------

type stubNotifier struct {
	sent []string // recipient addresses
	err  error
}

func (n *stubNotifier) SendPasswordReset(_ context.Context, to, _, _ string) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, to)
	return nil
}

var errStore = errors.New("store unavailable")
