package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"storefront-service/internal/auth"
	"storefront-service/internal/models"
	"storefront-service/internal/service"
	"storefront-service/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// GuestSessionHeader carries the guest session id on requests and, when
// the server issues a fresh one, on responses.
const GuestSessionHeader = "X-Guest-Session"

const identityKey = "identity"

// Handler contains HTTP handlers
type Handler struct {
	cart     *service.CartService
	wishlist *service.WishlistService
	orders   *service.OrderService
	catalog  *service.CatalogService
	jwt      *auth.JWTService
	logger   *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(
	cart *service.CartService,
	wishlist *service.WishlistService,
	orders *service.OrderService,
	catalog *service.CatalogService,
	jwtService *auth.JWTService,
) *Handler {
	return &Handler{
		cart:     cart,
		wishlist: wishlist,
		orders:   orders,
		catalog:  catalog,
		jwt:      jwtService,
		logger:   util.GetLogger(),
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(h.resolveIdentity())
	{
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)

		v1.GET("/cart", h.getCart)
		v1.POST("/cart", h.addCartItem)
		v1.PUT("/cart/:productId", h.updateCartItem)
		v1.DELETE("/cart/:productId", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)
		v1.POST("/cart/merge", h.requireAuth(), h.mergeCart)
		v1.POST("/cart/snapshot", h.requireAuth(), h.snapshotCart)

		v1.GET("/wishlist", h.getWishlist)
		v1.POST("/wishlist", h.addWishlistItem)
		v1.DELETE("/wishlist/:productId", h.removeWishlistItem)
		v1.DELETE("/wishlist", h.clearWishlist)
		v1.POST("/wishlist/merge", h.requireAuth(), h.mergeWishlist)
		v1.POST("/wishlist/snapshot", h.requireAuth(), h.snapshotWishlist)

		v1.POST("/orders", h.requireAuth(), h.placeOrder)
		v1.GET("/orders/my-orders", h.requireAuth(), h.listMyOrders)
		v1.GET("/orders/:id", h.requireAuth(), h.getOrder)
		v1.GET("/orders", h.requireAuth(), h.requireAdmin(), h.listOrders)
		v1.PUT("/orders/:id/status", h.requireAuth(), h.requireAdmin(), h.updateOrderStatus)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// resolveIdentity establishes who is calling: a valid bearer token yields
// an authenticated identity; otherwise the caller is a guest identified by
// session header, issued here when absent.
func (h *Handler) resolveIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		var ident auth.Identity

		if token := extractToken(c); token != "" {
			claims, err := h.jwt.ValidateAccessToken(token)
			if err != nil {
				respondError(c, http.StatusUnauthorized, "invalid or expired token")
				c.Abort()
				return
			}
			ident = auth.Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			}
		}

		ident.SessionID = c.GetHeader(GuestSessionHeader)
		if !ident.Authenticated() && ident.SessionID == "" {
			ident.SessionID = uuid.New().String()
			c.Header(GuestSessionHeader, ident.SessionID)
		}

		c.Set(identityKey, ident)
		c.Next()
	}
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity(c).Authenticated() {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func (h *Handler) requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identity(c).IsAdmin() {
			respondError(c, http.StatusForbidden, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) auth.Identity {
	if v, ok := c.Get(identityKey); ok {
		if ident, ok := v.(auth.Identity); ok {
			return ident
		}
	}
	return auth.Identity{}
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		respondError(c, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// respondOK writes the success envelope
func respondOK(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondError writes the error envelope
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"status":  "error",
		"message": message,
	})
}

// handleError maps domain errors to HTTP responses. Internal errors are
// logged with their cause but surfaced as a generic message.
func (h *Handler) handleError(c *gin.Context, err error) {
	var validationErr *models.ValidationError
	var stockErr *models.InsufficientStockError
	var transitionErr *models.StatusTransitionError

	switch {
	case errors.As(err, &validationErr):
		respondError(c, http.StatusBadRequest, validationErr.Error())
	case errors.As(err, &stockErr):
		respondError(c, http.StatusConflict, stockErr.Error())
	case errors.As(err, &transitionErr):
		respondError(c, http.StatusConflict, transitionErr.Error())
	case errors.Is(err, models.ErrProductNotFound):
		respondError(c, http.StatusNotFound, "product not found")
	case errors.Is(err, models.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, "order not found")
	case errors.Is(err, models.ErrForbidden):
		respondError(c, http.StatusForbidden, "not allowed")
	case errors.Is(err, models.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, "authentication required")
	default:
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		respondError(c, http.StatusInternalServerError, "something went wrong, please try again")
	}
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
