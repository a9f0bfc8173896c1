package api

import (
	"net/http"

	"storefront-service/internal/models"

	"github.com/gin-gonic/gin"
)

// cartPayload attaches derived totals to the cart; they are recomputed
// from the line items on every response.
func cartPayload(cart *models.Cart) gin.H {
	return gin.H{
		"items":          cart.Items,
		"total_quantity": cart.TotalQuantity(),
		"total_amount":   cart.TotalAmount(),
	}
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

// getCart returns the caller's cart with recomputed totals
func (h *Handler) getCart(c *gin.Context) {
	cart, err := h.cart.Fetch(c.Request.Context(), identity(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "cart fetched", cartPayload(cart))
}

// addCartItem upserts a line item
func (h *Handler) addCartItem(c *gin.Context) {
	var req addCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.cart.AddItem(c.Request.Context(), identity(c), req.ProductID, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "item added to cart", cartPayload(cart))
}

// updateCartItem sets an exact quantity; zero or less removes the item
func (h *Handler) updateCartItem(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	var req updateCartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.cart.UpdateQuantity(c.Request.Context(), identity(c), productID, req.Quantity)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "cart updated", cartPayload(cart))
}

// removeCartItem deletes a line item
func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	cart, err := h.cart.RemoveItem(c.Request.Context(), identity(c), productID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "item removed from cart", cartPayload(cart))
}

// clearCart empties the cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cart.Clear(c.Request.Context(), identity(c)); err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "cart cleared", nil)
}

// mergeCart folds the guest session cart into the signed-in user's cart
func (h *Handler) mergeCart(c *gin.Context) {
	ident := identity(c)
	if ident.SessionID == "" {
		respondError(c, http.StatusBadRequest, "missing guest session header")
		return
	}

	cart, err := h.cart.MergeGuestCart(c.Request.Context(), ident.UserID, ident.SessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "guest cart merged", cartPayload(cart))
}

// snapshotCart copies the server cart into the guest session on logout
func (h *Handler) snapshotCart(c *gin.Context) {
	ident := identity(c)
	if ident.SessionID == "" {
		respondError(c, http.StatusBadRequest, "missing guest session header")
		return
	}

	cart, err := h.cart.SnapshotToGuest(c.Request.Context(), ident.UserID, ident.SessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "cart snapshotted to guest session", cartPayload(cart))
}
