package database

import (
	"context"
	"errors"

	"flipcart_back_end/internal/models"
)

// ErrNotFound est renvoyé quand aucun document ne correspond.
var ErrNotFound = errors.New("database: document not found")

// CartStore persiste les paniers. Save remplace le document entier.
type CartStore interface {
	FindActiveCart(ctx context.Context, userID string) (models.Cart, error)
	ListCarts(ctx context.Context) ([]models.Cart, error)
	InsertCart(ctx context.Context, cart models.Cart) (models.Cart, error)
	SaveCart(ctx context.Context, cart models.Cart) error
	DeleteCart(ctx context.Context, id string) (models.Cart, error)
}

// ProductStore persiste les produits. Save remplace le document entier.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	FindProduct(ctx context.Context, id string) (models.Product, error)
	InsertProduct(ctx context.Context, product models.Product) (models.Product, error)
	SaveProduct(ctx context.Context, product models.Product) error
	DeleteProduct(ctx context.Context, id string) (models.Product, error)
}

// Store regroupe les deux collections.
type Store interface {
	CartStore
	ProductStore
	Close(ctx context.Context) error
}
