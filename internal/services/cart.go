package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"flipcart_back_end/internal/cache"
	"flipcart_back_end/internal/database"
	"flipcart_back_end/internal/lock"
	"flipcart_back_end/internal/models"
)

const DefaultStoreTimeout = 5 * time.Second

// CartService maintient le panier actif unique de chaque utilisateur.
// Chaque mutation est un read-modify-write sous verrou cart:<userId>.
type CartService struct {
	store    database.CartStore
	locks    lock.Locker
	notifier cache.CartNotifier
	timeout  time.Duration
	now      func() time.Time
}

func NewCartService(store database.CartStore, locks lock.Locker, notifier cache.CartNotifier, timeout time.Duration) *CartService {
	if notifier == nil {
		notifier = cache.NopCartNotifier{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &CartService{
		store:    store,
		locks:    locks,
		notifier: notifier,
		timeout:  timeout,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddItem ajoute quantity au produit dans le panier actif (fusion, pas écrasement),
// en créant le panier s'il n'existe pas.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (models.Cart, error) {
	userID, productID = strings.TrimSpace(userID), strings.TrimSpace(productID)
	if userID == "" || productID == "" {
		return models.Cart{}, validationError("productId and user are required")
	}
	if quantity < 1 {
		return models.Cart{}, validationError("quantity must be a positive integer")
	}

	var out models.Cart
	err := s.withCartLock(ctx, userID, func(ctx context.Context) error {
		cart, err := s.store.FindActiveCart(ctx, userID)
		isNew := false
		switch {
		case errors.Is(err, database.ErrNotFound):
			isNew = true
			cart = models.Cart{
				UserID:    userID,
				Items:     []models.CartItem{},
				Status:    models.CartStatusActive,
				CreatedAt: s.now(),
			}
		case err != nil:
			return persistenceError("failed to load cart", err)
		}

		if i := cart.FindItem(productID); i >= 0 {
			cart.Items[i].Quantity += quantity
		} else {
			cart.Items = append(cart.Items, models.CartItem{ProductID: productID, Quantity: quantity})
		}
		cart.UpdatedAt = s.now()

		if isNew {
			cart, err = s.store.InsertCart(ctx, cart)
		} else {
			err = s.store.SaveCart(ctx, cart)
		}
		if err != nil {
			return persistenceError("failed to save cart", err)
		}
		out = cart
		return nil
	})
	if err != nil {
		return models.Cart{}, err
	}

	s.notifier.Publish(ctx, userID, cache.CartEventUpdated)
	return out, nil
}

// GetCart retourne le panier actif de l'utilisateur.
func (s *CartService) GetCart(ctx context.Context, userID string) (models.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Cart{}, validationError("userId is required")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.loadActive(ctx, userID)
}

// ListAllCarts retourne tous les paniers, quel que soit leur statut.
func (s *CartService) ListAllCarts(ctx context.Context) ([]models.Cart, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	carts, err := s.store.ListCarts(ctx)
	if err != nil {
		return nil, persistenceError("failed to fetch carts", err)
	}
	return carts, nil
}

// UpdateItemQuantity remplace la quantité d'une ligne existante.
func (s *CartService) UpdateItemQuantity(ctx context.Context, userID, productID string, quantity int) (models.Cart, error) {
	userID, productID = strings.TrimSpace(userID), strings.TrimSpace(productID)
	if userID == "" || productID == "" {
		return models.Cart{}, validationError("userId, productId and quantity are required")
	}
	if quantity < 1 {
		return models.Cart{}, validationError("quantity must be a positive integer")
	}

	return s.mutate(ctx, userID, cache.CartEventUpdated, func(cart *models.Cart) error {
		i := cart.FindItem(productID)
		if i < 0 {
			return notFoundError("item not found in cart")
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
}

// RemoveItem retire une ligne; retirer un produit absent n'est pas une erreur.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (models.Cart, error) {
	userID, productID = strings.TrimSpace(userID), strings.TrimSpace(productID)
	if userID == "" || productID == "" {
		return models.Cart{}, validationError("userId and productId are required")
	}

	return s.mutate(ctx, userID, cache.CartEventUpdated, func(cart *models.Cart) error {
		kept := cart.Items[:0]
		for _, it := range cart.Items {
			if it.ProductID != productID {
				kept = append(kept, it)
			}
		}
		cart.Items = kept
		return nil
	})
}

// ClearCart vide le panier actif sans toucher à userId ni au statut.
func (s *CartService) ClearCart(ctx context.Context, userID string) (models.Cart, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Cart{}, validationError("userId is required")
	}

	return s.mutate(ctx, userID, cache.CartEventCleared, func(cart *models.Cart) error {
		cart.Items = []models.CartItem{}
		return nil
	})
}

// DeleteCartRecord supprime un panier par son identifiant (administration).
func (s *CartService) DeleteCartRecord(ctx context.Context, cartID string) (models.Cart, error) {
	cartID = strings.TrimSpace(cartID)
	if cartID == "" {
		return models.Cart{}, notFoundError("cart not found")
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cart, err := s.store.DeleteCart(tctx, cartID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Cart{}, notFoundError("cart not found")
		}
		return models.Cart{}, persistenceError("failed to delete cart", err)
	}

	if cart.Status == models.CartStatusActive {
		s.notifier.Publish(ctx, cart.UserID, cache.CartEventDeleted)
	}
	return cart, nil
}

// mutate charge le panier actif sous verrou, applique fn, horodate et sauvegarde.
func (s *CartService) mutate(ctx context.Context, userID, event string, fn func(*models.Cart) error) (models.Cart, error) {
	var out models.Cart
	err := s.withCartLock(ctx, userID, func(ctx context.Context) error {
		cart, err := s.loadActive(ctx, userID)
		if err != nil {
			return err
		}
		if err := fn(&cart); err != nil {
			return err
		}
		cart.UpdatedAt = s.now()
		if err := s.store.SaveCart(ctx, cart); err != nil {
			return persistenceError("failed to save cart", err)
		}
		out = cart
		return nil
	})
	if err != nil {
		return models.Cart{}, err
	}

	s.notifier.Publish(ctx, userID, event)
	return out, nil
}

func (s *CartService) loadActive(ctx context.Context, userID string) (models.Cart, error) {
	cart, err := s.store.FindActiveCart(ctx, userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Cart{}, notFoundError("cart not found")
		}
		return models.Cart{}, persistenceError("failed to load cart", err)
	}
	return cart, nil
}

func (s *CartService) withCartLock(ctx context.Context, userID string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock, err := s.locks.Lock(ctx, "cart:"+userID)
	if err != nil {
		slog.Error("cart lock", "user_id", userID, "error", err)
		return persistenceError("cart is busy, try again", err)
	}
	defer unlock()

	return fn(ctx)
}
