package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/glimpse/storefront-api/internal/core/domain"
)

const collectionCart = "cart_items"

type CartRepository struct {
	col *mongo.Collection
}

func NewCartRepository(db *mongo.Database) *CartRepository {
	return &CartRepository{col: db.Collection(collectionCart)}
}

type mongoCartItem struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	User      primitive.ObjectID `bson:"user"`
	Product   primitive.ObjectID `bson:"product"`
	Quantity  int                `bson:"quantity"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (m *mongoCartItem) toDomain() *domain.CartItem {
	return &domain.CartItem{
		ID:        m.ID.Hex(),
		UserID:    m.User.Hex(),
		ProductID: m.Product.Hex(),
		Quantity:  m.Quantity,
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

// AddOrIncrement relies on the single-document atomicity of an upserting
// findAndModify. Two concurrent first inserts race on the unique
// (user, product) index; the loser retries once as a plain increment.
func (r *CartRepository) AddOrIncrement(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, err
	}
	pid, err := objectID(productID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	filter := bson.M{"user": uid, "product": pid}
	update := bson.M{
		"$inc":         bson.M{"quantity": 1},
		"$set":         bson.M{"updated_at": now},
		"$setOnInsert": bson.M{"created_at": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var item mongoCartItem
	for attempt := 0; attempt < 2; attempt++ {
		err = r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
		if err == nil {
			return item.toDomain(), nil
		}
		if !mongo.IsDuplicateKeyError(err) {
			break
		}
	}
	return nil, fmt.Errorf("add cart item: %w", err)
}

func (r *CartRepository) FindByID(ctx context.Context, id string) (*domain.CartItem, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var item mongoCartItem
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("find cart item: %w", err)
	}
	return item.toDomain(), nil
}

func (r *CartRepository) ListByUser(ctx context.Context, userID string, page, limit int) ([]*domain.CartItem, int64, error) {
	uid, err := objectID(userID)
	if err != nil {
		return nil, 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user": uid}
	opts := options.Find().
		SetSkip(skip(page, limit)).
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list cart: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoCartItem
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode cart: %w", err)
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count cart: %w", err)
	}

	out := make([]*domain.CartItem, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *CartRepository) UpdateQuantity(ctx context.Context, id string, quantity int) (*domain.CartItem, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"quantity": quantity, "updated_at": time.Now().UTC()}}
	var item mongoCartItem
	if err := findOneAndUpdate(ctx, r.col, bson.M{"_id": oid}, update, &item, domain.ErrCartItemNotFound); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update cart item: %w", err)
	}
	return item.toDomain(), nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) (*domain.CartItem, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var item mongoCartItem
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&item); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCartItemNotFound
		}
		return nil, fmt.Errorf("delete cart item: %w", err)
	}
	return item.toDomain(), nil
}

// EnsureIndexes creates necessary indexes on the cart collection.
func (r *CartRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user", Value: 1}, {Key: "product", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}
