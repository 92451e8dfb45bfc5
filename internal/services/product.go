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

const (
	MinRating = 1
	MaxRating = 5
)

// ProductInput porte les champs d'une création ou d'une mise à jour partielle.
// Un champ nil est absent; un pointeur vers une valeur nulle est appliqué.
type ProductInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"imageUrl"`
	Stock       *int     `json:"stock"`
}

// ProductService gère le cycle de vie des produits et leurs avis.
type ProductService struct {
	store   database.ProductStore
	locks   lock.Locker
	cache   cache.ProductCache
	index   Indexer
	timeout time.Duration
	now     func() time.Time
}

func NewProductService(store database.ProductStore, locks lock.Locker, pc cache.ProductCache, index Indexer, timeout time.Duration) *ProductService {
	if pc == nil {
		pc = cache.NopProductCache{}
	}
	if index == nil {
		index = NopIndexer{}
	}
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	return &ProductService{
		store:   store,
		locks:   locks,
		cache:   pc,
		index:   index,
		timeout: timeout,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, persistenceError("failed to fetch products", err)
	}
	return products, nil
}

// Get lit le produit dans le cache Redis, puis dans le store.
// Le remplissage du cache se fait sous le verrou product:<id>.
func (s *ProductService) Get(ctx context.Context, id string) (models.Product, error) {
	id = strings.TrimSpace(id)
	if p, ok := s.cache.Get(ctx, id); ok {
		return p, nil
	}

	var out models.Product
	err := s.withProductLock(ctx, id, func(ctx context.Context) error {
		p, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		s.cache.Set(ctx, p)
		out = p
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return out, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (models.Product, error) {
	if blank(in.Name) || blank(in.Description) || blank(in.Category) || blank(in.ImageURL) || in.Price == nil {
		return models.Product{}, validationError("Please provide all required fields: name, description, price, category, imageUrl")
	}
	if *in.Price < 0 {
		return models.Product{}, validationError("price must be non-negative")
	}
	stock := 0
	if in.Stock != nil {
		stock = *in.Stock
	}
	if stock < 0 {
		return models.Product{}, validationError("stock must be non-negative")
	}

	now := s.now()
	p := models.Product{
		Name:        strings.TrimSpace(*in.Name),
		Description: *in.Description,
		Price:       *in.Price,
		Category:    strings.TrimSpace(*in.Category),
		ImageURL:    strings.TrimSpace(*in.ImageURL),
		Stock:       stock,
		Reviews:     []models.Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	p, err := s.store.InsertProduct(tctx, p)
	if err != nil {
		return models.Product{}, persistenceError("Error creating product", err)
	}

	s.reindex(ctx, p)
	return p, nil
}

// Update applique uniquement les champs présents. rating et reviews sont
// dérivés des avis et ne sont pas modifiables ici.
func (s *ProductService) Update(ctx context.Context, id string, in ProductInput) (models.Product, error) {
	if err := validatePatch(in); err != nil {
		return models.Product{}, err
	}

	p, err := s.mutate(ctx, id, func(p *models.Product) error {
		if in.Name != nil {
			p.Name = strings.TrimSpace(*in.Name)
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if in.Price != nil {
			p.Price = *in.Price
		}
		if in.Category != nil {
			p.Category = strings.TrimSpace(*in.Category)
		}
		if in.ImageURL != nil {
			p.ImageURL = strings.TrimSpace(*in.ImageURL)
		}
		if in.Stock != nil {
			p.Stock = *in.Stock
		}
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) (models.Product, error) {
	id = strings.TrimSpace(id)

	var out models.Product
	err := s.withProductLock(ctx, id, func(ctx context.Context) error {
		p, err := s.store.DeleteProduct(ctx, id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return notFoundError("Product not found")
			}
			return persistenceError("Error deleting product", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	s.cache.Invalidate(ctx, id)
	if err := s.index.Delete(ctx, id); err != nil {
		slog.Warn("search delete", "product_id", id, "error", err)
	}
	return out, nil
}

// AddReview ajoute un avis et recalcule la note moyenne dans la même écriture.
func (s *ProductService) AddReview(ctx context.Context, productID, userID string, rating int, comment string) (models.Product, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return models.Product{}, validationError("userId is required")
	}

	return s.mutate(ctx, productID, func(p *models.Product) error {
		if rating < MinRating || rating > MaxRating {
			return validationError("Rating must be between 1 and 5")
		}
		p.Reviews = append(p.Reviews, models.Review{
			UserID:    userID,
			Rating:    rating,
			Comment:   comment,
			CreatedAt: s.now(),
		})
		avg, _ := models.AverageRating(p.Reviews)
		p.Rating = &avg
		return nil
	})
}

// Search délègue à l'index de recherche.
func (s *ProductService) Search(ctx context.Context, query string) ([]models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, validationError("query parameter q is required")
	}
	if !s.index.Enabled() {
		return nil, &Error{Kind: KindUnavailable, Message: "search is not configured"}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	products, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, persistenceError("search failed", err)
	}
	return products, nil
}

func (s *ProductService) mutate(ctx context.Context, id string, fn func(*models.Product) error) (models.Product, error) {
	id = strings.TrimSpace(id)

	var out models.Product
	err := s.withProductLock(ctx, id, func(ctx context.Context) error {
		p, err := s.load(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(&p); err != nil {
			return err
		}
		p.UpdatedAt = s.now()
		if err := s.store.SaveProduct(ctx, p); err != nil {
			return persistenceError("failed to save product", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return models.Product{}, err
	}

	s.cache.Invalidate(ctx, id)
	s.reindex(ctx, out)
	return out, nil
}

func (s *ProductService) load(ctx context.Context, id string) (models.Product, error) {
	p, err := s.store.FindProduct(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return models.Product{}, notFoundError("Product not found")
		}
		return models.Product{}, persistenceError("failed to load product", err)
	}
	return p, nil
}

func (s *ProductService) withProductLock(ctx context.Context, id string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	unlock, err := s.locks.Lock(ctx, "product:"+id)
	if err != nil {
		slog.Error("product lock", "product_id", id, "error", err)
		return persistenceError("product is busy, try again", err)
	}
	defer unlock()

	return fn(ctx)
}

// reindex est best-effort: une panne de l'index ne fait pas échouer l'écriture.
func (s *ProductService) reindex(ctx context.Context, p models.Product) {
	if err := s.index.Index(ctx, p); err != nil {
		slog.Warn("search index", "product_id", p.ID.Hex(), "error", err)
	}
}

func validatePatch(in ProductInput) error {
	for field, v := range map[string]*string{"name": in.Name, "description": in.Description, "category": in.Category, "imageUrl": in.ImageURL} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return validationError(field + " cannot be empty")
		}
	}
	if in.Price != nil && *in.Price < 0 {
		return validationError("price must be non-negative")
	}
	if in.Stock != nil && *in.Stock < 0 {
		return validationError("stock must be non-negative")
	}
	return nil
}

func blank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
