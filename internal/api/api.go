package api

import (
	"errors"
	"net/http"

	"rare-source/internal/models"
	"rare-source/internal/service"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	service *service.Service
	hub     *Hub
}

func SetupRoutes(r *gin.RouterGroup, svc *service.Service, hub *Hub) *APIHandler {
	handler := &APIHandler{
		service: svc,
		hub:     hub,
	}

	r.GET("/search", handler.Search)
	r.GET("/search/export", handler.ExportSearch)
	r.GET("/market/stats", handler.MarketStats)
	r.POST("/procurement/lock", handler.LockProcurement)

	cacheGroup := r.Group("/cache")
	{
		cacheGroup.POST("/invalidate", handler.InvalidateCache)
		cacheGroup.POST("/cleanup", handler.CleanupCache)
	}

	return handler
}

// Search handles GET /search?q=<part number>.
func (h *APIHandler) Search(c *gin.Context) {
	offers, err := h.service.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		if errors.Is(err, service.ErrEmptyQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, offers)
}

// MarketStats handles GET /market/stats.
func (h *APIHandler) MarketStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.MarketStats())
}

// LockProcurement handles POST /procurement/lock.
func (h *APIHandler) LockProcurement(c *gin.Context) {
	var req models.ProcurementLock
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	confirmation, err := h.service.LockProcurement(req.PartID, req.Quantity)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, confirmation)
}

// InvalidateCache handles POST /cache/invalidate?q=<part number>.
func (h *APIHandler) InvalidateCache(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}
	ok := h.service.Invalidate(c.Request.Context(), query)
	c.JSON(http.StatusOK, gin.H{"invalidated": ok})
}

// CleanupCache handles POST /cache/cleanup.
func (h *APIHandler) CleanupCache(c *gin.Context) {
	removed := h.service.CleanupExpired(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"removed": removed})
}
