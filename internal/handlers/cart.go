package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"flipcart_back_end/internal/models"
	"flipcart_back_end/internal/services"
)

type CartHandler struct {
	carts *services.CartService
}

func NewCartHandler(carts *services.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type addToCartRequest struct {
	ProductID string          `json:"productId"`
	Quantity  json.RawMessage `json:"quantity"`
	User      string          `json:"user"`
}

type cartItemRequest struct {
	UserID    string          `json:"userId"`
	ProductID string          `json:"productId"`
	Quantity  json.RawMessage `json:"quantity"`
}

// POST /cart/add
func (h *CartHandler) AddToCart(c *gin.Context) {
	var req addToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity := 1
	if !absent(req.Quantity) {
		quantity, _ = wholeNumber(req.Quantity)
	}

	cart, err := h.carts.AddItem(c.Request.Context(), req.User, req.ProductID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Item added to cart", cart)
}

// GET /carts
func (h *CartHandler) ListCarts(c *gin.Context) {
	carts, err := h.carts.ListAllCarts(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	if carts == nil {
		carts = []models.Cart{}
	}
	respondList(c, len(carts), carts)
}

// GET /cart/:userId
func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.carts.GetCart(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "", cart)
}

// PUT /cart/update
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	quantity, _ := wholeNumber(req.Quantity)
	cart, err := h.carts.UpdateItemQuantity(c.Request.Context(), req.UserID, req.ProductID, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Cart updated", cart)
}

// DELETE /cart/item
func (h *CartHandler) RemoveItem(c *gin.Context) {
	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondMessage(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.carts.RemoveItem(c.Request.Context(), req.UserID, req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Item removed from cart", cart)
}

// DELETE /cart/:userId
func (h *CartHandler) ClearCart(c *gin.Context) {
	cart, err := h.carts.ClearCart(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Cart cleared", cart)
}

// DELETE /carts/:id (admin)
func (h *CartHandler) DeleteCart(c *gin.Context) {
	cart, err := h.carts.DeleteCartRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, "Cart deleted successfully.", cart)
}
