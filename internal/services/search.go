package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"flipcart_back_end/internal/models"
)

const ProductIndex = "products"

// Indexer maintient l'index de recherche des produits.
type Indexer interface {
	Enabled() bool
	Index(ctx context.Context, p models.Product) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]models.Product, error)
}

// NopIndexer est utilisé quand Elasticsearch n'est pas configuré.
type NopIndexer struct{}

func (NopIndexer) Enabled() bool                                            { return false }
func (NopIndexer) Index(context.Context, models.Product) error              { return nil }
func (NopIndexer) Delete(context.Context, string) error                     { return nil }
func (NopIndexer) Search(context.Context, string) ([]models.Product, error) { return nil, nil }

// ElasticIndexer indexe les produits dans Elasticsearch.
type ElasticIndexer struct {
	client *elasticsearch.Client
	index  string
}

func NewElasticIndexer(client *elasticsearch.Client) *ElasticIndexer {
	return &ElasticIndexer{client: client, index: ProductIndex}
}

func (e *ElasticIndexer) Enabled() bool { return true }

func (e *ElasticIndexer) Index(ctx context.Context, p models.Product) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      e.index,
		DocumentID: p.ID.Hex(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("elastic index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("elastic index %s: %s", p.ID.Hex(), res.Status())
	}
	return nil
}

func (e *ElasticIndexer) Delete(ctx context.Context, id string) error {
	req := esapi.DeleteRequest{
		Index:      e.index,
		DocumentID: id,
		Refresh:    "true",
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return fmt.Errorf("elastic delete: %w", err)
	}
	defer res.Body.Close()

	// déjà absent de l'index: rien à faire
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return fmt.Errorf("elastic delete %s: %s", id, res.Status())
	}
	return nil
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source models.Product `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search cherche dans name, description et category.
func (e *ElasticIndexer) Search(ctx context.Context, query string) ([]models.Product, error) {
	var buf bytes.Buffer
	q := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  query,
				"fields": []string{"name^2", "description", "category"},
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("elastic encode query: %w", err)
	}

	req := esapi.SearchRequest{
		Index: []string{e.index},
		Body:  &buf,
	}
	res, err := req.Do(ctx, e.client)
	if err != nil {
		return nil, fmt.Errorf("elastic search: %w", err)
	}
	defer res.Body.Close()

	// index pas encore créé: aucun résultat
	if res.StatusCode == http.StatusNotFound {
		return []models.Product{}, nil
	}
	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, fmt.Errorf("elastic search: %s: %s", res.Status(), body)
	}

	var r searchResponse
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("elastic decode: %w", err)
	}

	products := make([]models.Product, 0, len(r.Hits.Hits))
	for _, h := range r.Hits.Hits {
		products = append(products, h.Source)
	}
	return products, nil
}
