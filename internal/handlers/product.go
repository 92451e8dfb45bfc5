package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"flipcart_back_end/internal/middleware"
	"flipcart_back_end/internal/models"
	"flipcart_back_end/internal/services"
)

type ProductHandler struct {
	products *services.ProductService
}

func NewProductHandler(products *services.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

type reviewRequest struct {
	Rating  json.RawMessage `json:"rating"`
	Comment string          `json:"comment"`
}

// GET /products
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.products.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respondList(c, len(products), products)
}

// GET /products/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	products, err := h.products.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}
	if products == nil {
		products = []models.Product{}
	}
	respondList(c, len(products), products)
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", product)
}

// POST /products (admin)
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Create(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "Product created successfully", product)
}

// PUT /products/:id (admin)
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var in services.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Product updated successfully", product)
}

// DELETE /products/:id (admin)
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if _, err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	respondMessage(c, http.StatusOK, "Product deleted successfully")
}

// POST /products/:id/review
// L'auteur de l'avis est l'utilisateur du token.
func (h *ProductHandler) AddReview(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	// une note illisible vaut 0 et sera refusée après le contrôle d'existence
	rating, _ := wholeNumber(req.Rating)

	product, err := h.products.AddReview(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID), rating, req.Comment)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, "Review added successfully", product)
}
