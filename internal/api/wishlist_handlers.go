package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type addWishlistItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
}

// getWishlist returns the caller's wishlist
func (h *Handler) getWishlist(c *gin.Context) {
	wl, err := h.wishlist.Fetch(c.Request.Context(), identity(c))
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "wishlist fetched", wl)
}

// addWishlistItem adds a product; adding twice is a no-op
func (h *Handler) addWishlistItem(c *gin.Context) {
	var req addWishlistItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	wl, err := h.wishlist.Add(c.Request.Context(), identity(c), req.ProductID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "item added to wishlist", wl)
}

// removeWishlistItem removes a product; absence is a no-op
func (h *Handler) removeWishlistItem(c *gin.Context) {
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}

	wl, err := h.wishlist.Remove(c.Request.Context(), identity(c), productID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "item removed from wishlist", wl)
}

// clearWishlist empties the wishlist
func (h *Handler) clearWishlist(c *gin.Context) {
	if err := h.wishlist.Clear(c.Request.Context(), identity(c)); err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "wishlist cleared", nil)
}

// mergeWishlist unions the guest wishlist into the signed-in user's
func (h *Handler) mergeWishlist(c *gin.Context) {
	ident := identity(c)
	if ident.SessionID == "" {
		respondError(c, http.StatusBadRequest, "missing guest session header")
		return
	}

	wl, err := h.wishlist.MergeGuestWishlist(c.Request.Context(), ident.UserID, ident.SessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "guest wishlist merged", wl)
}

// snapshotWishlist copies the server wishlist into the guest session
func (h *Handler) snapshotWishlist(c *gin.Context) {
	ident := identity(c)
	if ident.SessionID == "" {
		respondError(c, http.StatusBadRequest, "missing guest session header")
		return
	}

	wl, err := h.wishlist.SnapshotToGuest(c.Request.Context(), ident.UserID, ident.SessionID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "wishlist snapshotted to guest session", wl)
}
