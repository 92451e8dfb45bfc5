package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"flipcart_back_end/internal/models"
)

const (
	cartsCollection    = "carts"
	productsCollection = "products"
)

// MongoStore implémente Store sur MongoDB.
type MongoStore struct {
	client   *mongo.Client
	carts    *mongo.Collection
	products *mongo.Collection
}

// ConnectMongo ouvre le client, vérifie la connexion et crée les index.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:   client,
		carts:    db.Collection(cartsCollection),
		products: db.Collection(productsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	slog.Info("mongo connected", "database", dbName)
	return s, nil
}

// Un seul panier actif par utilisateur : index unique partiel.
func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.carts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().
			SetName("uniq_active_cart_per_user").
			SetUnique(true).
			SetPartialFilterExpression(bson.M{"status": models.CartStatusActive}),
	})
	if err != nil {
		return fmt.Errorf("mongo index carts: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// =============================================
// CARTS
// =============================================

func (s *MongoStore) FindActiveCart(ctx context.Context, userID string) (models.Cart, error) {
	var cart models.Cart
	err := s.carts.FindOne(ctx, bson.M{"userId": userID, "status": models.CartStatusActive}).Decode(&cart)
	if err != nil {
		return models.Cart{}, translate(err)
	}
	return cart, nil
}

func (s *MongoStore) ListCarts(ctx context.Context) ([]models.Cart, error) {
	cur, err := s.carts.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	carts := []models.Cart{}
	if err := cur.All(ctx, &carts); err != nil {
		return nil, err
	}
	return carts, nil
}

func (s *MongoStore) InsertCart(ctx context.Context, cart models.Cart) (models.Cart, error) {
	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	if _, err := s.carts.InsertOne(ctx, cart); err != nil {
		return models.Cart{}, err
	}
	return cart, nil
}

func (s *MongoStore) SaveCart(ctx context.Context, cart models.Cart) error {
	res, err := s.carts.ReplaceOne(ctx, bson.M{"_id": cart.ID}, cart)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteCart(ctx context.Context, id string) (models.Cart, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Cart{}, ErrNotFound
	}
	var cart models.Cart
	if err := s.carts.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&cart); err != nil {
		return models.Cart{}, translate(err)
	}
	return cart, nil
}

// =============================================
// PRODUCTS
// =============================================

func (s *MongoStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	cur, err := s.products.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	products := []models.Product{}
	if err := cur.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *MongoStore) FindProduct(ctx context.Context, id string) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, ErrNotFound
	}
	var p models.Product
	if err := s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return models.Product{}, translate(err)
	}
	return p, nil
}

func (s *MongoStore) InsertProduct(ctx context.Context, product models.Product) (models.Product, error) {
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	if _, err := s.products.InsertOne(ctx, product); err != nil {
		return models.Product{}, err
	}
	return product, nil
}

func (s *MongoStore) SaveProduct(ctx context.Context, product models.Product) error {
	res, err := s.products.ReplaceOne(ctx, bson.M{"_id": product.ID}, product)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id string) (models.Product, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, ErrNotFound
	}
	var p models.Product
	if err := s.products.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&p); err != nil {
		return models.Product{}, translate(err)
	}
	return p, nil
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
