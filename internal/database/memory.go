package database

import (
	"context"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"flipcart_back_end/internal/models"
)

// MemoryStore est un Store en mémoire (tests, dev local avec STORE_DRIVER=memory).
// Les valeurs sont copiées à l'entrée et à la sortie, comme un aller-retour BSON.
type MemoryStore struct {
	mu       sync.RWMutex
	carts    map[primitive.ObjectID]models.Cart
	products map[primitive.ObjectID]models.Product
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		carts:    make(map[primitive.ObjectID]models.Cart),
		products: make(map[primitive.ObjectID]models.Product),
	}
}

func (m *MemoryStore) FindActiveCart(ctx context.Context, userID string) (models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return models.Cart{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, c := range m.carts {
		if c.UserID == userID && c.Status == models.CartStatusActive {
			return c.Clone(), nil
		}
	}
	return models.Cart{}, ErrNotFound
}

func (m *MemoryStore) ListCarts(ctx context.Context) ([]models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Cart, 0, len(m.carts))
	for _, c := range m.carts {
		out = append(out, c.Clone())
	}
	// ordre d'insertion, comme un find({}) Mongo sans tri
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (m *MemoryStore) InsertCart(ctx context.Context, cart models.Cart) (models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return models.Cart{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if cart.ID.IsZero() {
		cart.ID = primitive.NewObjectID()
	}
	m.carts[cart.ID] = cart.Clone()
	return cart.Clone(), nil
}

func (m *MemoryStore) SaveCart(ctx context.Context, cart models.Cart) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.carts[cart.ID]; !ok {
		return ErrNotFound
	}
	m.carts[cart.ID] = cart.Clone()
	return nil
}

func (m *MemoryStore) DeleteCart(ctx context.Context, id string) (models.Cart, error) {
	if err := ctx.Err(); err != nil {
		return models.Cart{}, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Cart{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.carts[oid]
	if !ok {
		return models.Cart{}, ErrNotFound
	}
	delete(m.carts, oid)
	return c, nil
}

func (m *MemoryStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.Hex() < out[j].ID.Hex() })
	return out, nil
}

func (m *MemoryStore) FindProduct(ctx context.Context, id string) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[oid]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (m *MemoryStore) InsertProduct(ctx context.Context, product models.Product) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	m.products[product.ID] = product.Clone()
	return product.Clone(), nil
}

func (m *MemoryStore) SaveProduct(ctx context.Context, product models.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[product.ID]; !ok {
		return ErrNotFound
	}
	m.products[product.ID] = product.Clone()
	return nil
}

func (m *MemoryStore) DeleteProduct(ctx context.Context, id string) (models.Product, error) {
	if err := ctx.Err(); err != nil {
		return models.Product{}, err
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Product{}, ErrNotFound
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[oid]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	delete(m.products, oid)
	return p, nil
}

func (m *MemoryStore) Close(context.Context) error { return nil }
