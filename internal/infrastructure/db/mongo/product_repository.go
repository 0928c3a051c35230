package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/glimpse/storefront-api/internal/core/domain"
	"github.com/glimpse/storefront-api/internal/core/ports"
)

const collectionProducts = "products"

type ProductRepository struct {
	col *mongo.Collection
}

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{col: db.Collection(collectionProducts)}
}

type mongoProduct struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Category     string             `bson:"category"`
	Name         string             `bson:"name"`
	Price        float64            `bson:"price"`
	Image        string             `bson:"image"`
	Description  string             `bson:"description"`
	Stock        int                `bson:"stock"`
	Rating       float64            `bson:"rating"`
	RatingsCount int                `bson:"ratings_count"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func toMongoProduct(p *domain.Product) mongoProduct {
	return mongoProduct{
		Category:     p.Category,
		Name:         p.Name,
		Price:        p.Price,
		Image:        p.Image,
		Description:  p.Description,
		Stock:        p.Stock,
		Rating:       p.Rating,
		RatingsCount: p.RatingsCount,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (m *mongoProduct) toDomain() *domain.Product {
	return &domain.Product{
		ID:           m.ID.Hex(),
		Category:     m.Category,
		Name:         m.Name,
		Price:        m.Price,
		Image:        m.Image,
		Description:  m.Description,
		Stock:        m.Stock,
		Rating:       m.Rating,
		RatingsCount: m.RatingsCount,
		CreatedAt:    m.CreatedAt.UTC(),
		UpdatedAt:    m.UpdatedAt.UTC(),
	}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toMongoProduct(p)
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("insert product: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoProduct
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("find product: %w", err)
	}
	return mp.toDomain(), nil
}

// List returns one page of products matching f and the total match count.
func (r *ProductRepository) List(ctx context.Context, f ports.ProductFilter) ([]*domain.Product, int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := productQuery(f)
	opts := options.Find().
		SetSkip(skip(f.Page, f.Limit)).
		SetLimit(int64(f.Limit)).
		SetSort(productSort(f.Sort))

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoProduct
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode products: %w", err)
	}

	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	out := make([]*domain.Product, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

// Update sets only the fields present in patch. Rating fields are owned by
// SetRating and are never touched here.
func (r *ProductRepository) Update(ctx context.Context, id string, patch domain.ProductPatch, updatedAt time.Time) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoProduct
	if err := findOneAndUpdate(ctx, r.col, bson.M{"_id": oid}, bson.M{"$set": productPatchSet(patch, updatedAt)}, &mp, domain.ErrProductNotFound); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update product: %w", err)
	}
	return mp.toDomain(), nil
}

func productPatchSet(patch domain.ProductPatch, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}
	if patch.Price != nil {
		set["price"] = *patch.Price
	}
	if patch.Image != nil {
		set["image"] = *patch.Image
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.Stock != nil {
		set["stock"] = *patch.Stock
	}
	return set
}

func (r *ProductRepository) Delete(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mp mongoProduct
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&mp); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("delete product: %w", err)
	}
	return mp.toDomain(), nil
}

func (r *ProductRepository) SetRating(ctx context.Context, id string, agg domain.RatingAggregate) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"rating":        agg.Average,
		"ratings_count": agg.Count,
		"updated_at":    time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set product rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the products collection.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "price", Value: 1}}},
		{Keys: bson.D{{Key: "rating", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

// productQuery translates a catalog filter into a Mongo query document.
func productQuery(f ports.ProductFilter) bson.M {
	q := bson.M{}
	if f.Keyword != "" {
		rx := primitive.Regex{Pattern: regexp.QuoteMeta(f.Keyword), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": rx},
			bson.M{"description": rx},
		}
	}
	if f.Category != "" {
		q["category"] = f.Category
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		price := bson.M{}
		if f.MinPrice != nil {
			price["$gte"] = *f.MinPrice
		}
		if f.MaxPrice != nil {
			price["$lte"] = *f.MaxPrice
		}
		q["price"] = price
	}
	if f.MinRating != nil {
		q["rating"] = bson.M{"$gte": *f.MinRating}
	}
	return q
}

// productSort maps a whitelisted sort key to a sort document. _id breaks
// ties so paging is stable.
func productSort(key string) bson.D {
	dir := 1
	field := key
	if strings.HasPrefix(key, "-") {
		dir = -1
		field = key[1:]
	}
	if field == "" {
		field, dir = "created_at", -1
	}
	return bson.D{{Key: field, Value: dir}, {Key: "_id", Value: dir}}
}
