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
	"github.com/glimpse/storefront-api/internal/core/ports"
)

const collectionOrders = "orders"

type OrderRepository struct {
	col *mongo.Collection
}

func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{col: db.Collection(collectionOrders)}
}

type mongoOrder struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	User            primitive.ObjectID `bson:"user"`
	Product         primitive.ObjectID `bson:"product"`
	Quantity        int                `bson:"quantity"`
	Status          string             `bson:"status"`
	ShippingAddress string             `bson:"shipping_address"`
	PaymentStatus   string             `bson:"payment_status"`
	DeliveryDate    *time.Time         `bson:"delivery_date,omitempty"`
	CreatedAt       time.Time          `bson:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at"`
}

func (m *mongoOrder) toDomain() *domain.Order {
	o := &domain.Order{
		ID:              m.ID.Hex(),
		UserID:          m.User.Hex(),
		ProductID:       m.Product.Hex(),
		Quantity:        m.Quantity,
		Status:          domain.OrderStatus(m.Status),
		ShippingAddress: m.ShippingAddress,
		PaymentStatus:   domain.PaymentStatus(m.PaymentStatus),
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
	if m.DeliveryDate != nil {
		d := m.DeliveryDate.UTC()
		o.DeliveryDate = &d
	}
	return o
}

func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (*domain.Order, error) {
	uid, err := objectID(o.UserID)
	if err != nil {
		return nil, err
	}
	pid, err := objectID(o.ProductID)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoOrder{
		User:            uid,
		Product:         pid,
		Quantity:        o.Quantity,
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		PaymentStatus:   string(o.PaymentStatus),
		DeliveryDate:    o.DeliveryDate,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert order: %w", err)
	}
	doc.ID = res.InsertedID.(primitive.ObjectID)
	return doc.toDomain(), nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mo mongoOrder
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find order: %w", err)
	}
	return mo.toDomain(), nil
}

// List returns the user's orders newest first.
func (r *OrderRepository) List(ctx context.Context, f ports.ListOrdersFilter) ([]*domain.Order, int64, error) {
	uid, err := objectID(f.UserID)
	if err != nil {
		return nil, 0, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"user": uid}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	opts := options.Find().
		SetSkip(skip(f.Page, f.Limit)).
		SetLimit(int64(f.Limit)).
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoOrder
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode orders: %w", err)
	}
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}

	out := make([]*domain.Order, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, total, nil
}

func (r *OrderRepository) UpdateShippingAddress(ctx context.Context, id, address string, updatedAt time.Time) (*domain.Order, error) {
	return r.set(ctx, id, bson.M{"shipping_address": address, "updated_at": updatedAt})
}

func (r *OrderRepository) ApplyAdminPatch(ctx context.Context, id string, patch domain.OrderAdminPatch, updatedAt time.Time) (*domain.Order, error) {
	return r.set(ctx, id, orderAdminSet(patch, updatedAt))
}

// set applies a $set of exactly the given fields. Owner and product never
// change after creation.
func (r *OrderRepository) set(ctx context.Context, id string, fields bson.M) (*domain.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mo mongoOrder
	if err := findOneAndUpdate(ctx, r.col, bson.M{"_id": oid}, bson.M{"$set": fields}, &mo, domain.ErrOrderNotFound); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return mo.toDomain(), nil
}

func orderAdminSet(patch domain.OrderAdminPatch, updatedAt time.Time) bson.M {
	set := bson.M{"updated_at": updatedAt}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.PaymentStatus != nil {
		set["payment_status"] = string(*patch.PaymentStatus)
	}
	if patch.DeliveryDate != nil {
		set["delivery_date"] = patch.DeliveryDate.UTC()
	}
	return set
}

func (r *OrderRepository) Delete(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var mo mongoOrder
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&mo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, fmt.Errorf("delete order: %w", err)
	}
	return mo.toDomain(), nil
}

func (r *OrderRepository) HasDelivered(ctx context.Context, userID, productID string) (bool, error) {
	uid, err := objectID(userID)
	if err != nil {
		return false, err
	}
	pid, err := objectID(productID)
	if err != nil {
		return false, err
	}
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{
		"user":    uid,
		"product": pid,
		"status":  string(domain.OrderDelivered),
	}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("check delivered order: %w", err)
	}
	return n > 0, nil
}

// EnsureIndexes creates necessary indexes on the orders collection.
func (r *OrderRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "product", Value: 1}, {Key: "status", Value: 1}}},
	}
	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
