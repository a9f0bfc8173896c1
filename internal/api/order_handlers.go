package api

import (
	"net/http"

	"storefront-service/internal/service"

	"github.com/gin-gonic/gin"
)

type updateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// placeOrder runs the checkout transaction for the signed-in user
func (h *Handler) placeOrder(c *gin.Context) {
	var req service.PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader("Idempotency-Key")
	}

	order, err := h.orders.PlaceOrder(c.Request.Context(), identity(c).UserID, &req)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, "order placed", order)
}

// getOrder returns one order to its owner or an admin
func (h *Handler) getOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(c.Request.Context(), identity(c), orderID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "order fetched", order)
}

// listMyOrders returns the caller's orders, newest first
func (h *Handler) listMyOrders(c *gin.Context) {
	orders, err := h.orders.ListUserOrders(c.Request.Context(), identity(c).UserID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "orders fetched", orders)
}

// listOrders returns all orders (admin)
func (h *Handler) listOrders(c *gin.Context) {
	orders, err := h.orders.ListOrders(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "orders fetched", orders)
}

// updateOrderStatus moves an order along the status progression (admin)
func (h *Handler) updateOrderStatus(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req updateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), orderID, req.Status)
	if err != nil {
		h.handleError(c, err)
		return
	}
	respondOK(c, http.StatusOK, "order status updated", order)
}
