package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// listProducts returns the catalog
func (h *Handler) listProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "products fetched", products)
}

// getProduct returns one product with its reviews and, for carted
// products, how many more units the caller can still add.
func (h *Handler) getProduct(c *gin.Context) {
	productID, ok := pathID(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	product, err := h.catalog.Product(ctx, productID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	reviews, err := h.catalog.Reviews(ctx, productID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	remaining, err := h.cart.RemainingAddable(ctx, identity(c), productID)
	if err != nil {
		h.handleError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "product fetched", gin.H{
		"product":           product,
		"reviews":           reviews,
		"remaining_addable": remaining,
	})
}
