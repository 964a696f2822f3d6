package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pricelens/backend/internal/domain"
	"github.com/pricelens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	searchService *usecase.AggregationService
}

// NewHandler creates a new HTTP handler
func NewHandler(searchService *usecase.AggregationService) *Handler {
	return &Handler{
		searchService: searchService,
	}
}

// searchRequest is the body of POST /api/v1/search
type searchRequest struct {
	Type     domain.InputType `json:"type"`
	Query    string           `json:"query"`
	Image    []byte           `json:"image"` // base64
	MimeType string           `json:"mimeType"`
	Barcode  string           `json:"barcode"`
}

// viewedRequest is the body of POST /api/v1/recent
type viewedRequest struct {
	Offer domain.NormalizedOffer `json:"offer"`
	Query string                 `json:"query"`
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "pricelens-backend",
		"version": "1.0.0",
	})
}

// Search handles text, image and barcode searches
func (h *Handler) Search(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	session, err := h.searchService.Search(c.Request.Context(), clientID(c), &domain.SearchInput{
		Type:     req.Type,
		Query:    req.Query,
		Image:    req.Image,
		MimeType: req.MimeType,
		Barcode:  req.Barcode,
	})
	if err != nil {
		h.writeSearchError(c, session, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": string(domain.StageRanked),
		"data":   session,
	})
}

// writeSearchError maps the error taxonomy onto HTTP responses
func (h *Handler) writeSearchError(c *gin.Context, session *domain.SearchSession, err error) {
	var aggErr *domain.AggregationError
	stage := ""
	reason := ""
	if errors.As(err, &aggErr) {
		stage = string(aggErr.Stage)
		reason = aggErr.Reason
	}

	switch {
	case errors.Is(err, domain.ErrNoResults):
		// No matches is a result, not a failure
		c.JSON(http.StatusOK, gin.H{
			"status":    "no_results",
			"noResults": true,
			"message":   "No matching offers found",
			"data":      session,
		})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "A query, image or barcode is required",
		})
	case errors.Is(err, domain.ErrIdentification):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "Could not identify the product",
			"reason": reason,
			"stage":  stage,
		})
	case errors.Is(err, domain.ErrCollection):
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Retailers temporarily unavailable",
			"stage": stage,
		})
	case errors.Is(err, domain.ErrStaleSearch):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Search superseded by a newer one",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
	}
}

// RestoreSession returns the last search when the client is returning from a details page
func (h *Handler) RestoreSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	if c.Query("returning") != "true" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "restore requires returning=true",
		})
		return
	}

	session, err := h.searchService.RestoreSession(c.Request.Context(), clientID(c))
	if err != nil {
		if errors.Is(err, domain.ErrNoPreviousSearch) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": domain.ErrNoPreviousSearch.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data": session,
	})
}

// ResetSession forgets the last search
func (h *Handler) ResetSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	if err := h.searchService.ResetSession(c.Request.Context(), clientID(c)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Session cache unavailable",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// EndBrowsingSession clears the ephemeral tier, e.g. when the tab closes
func (h *Handler) EndBrowsingSession(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	if err := h.searchService.Sessions().EndBrowsingSession(c.Request.Context(), clientID(c)); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Session cache unavailable",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// RecordViewed stores the offer the user opened
func (h *Handler) RecordViewed(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	var req viewedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Offer.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "offer with an id is required",
		})
		return
	}

	item := domain.ViewedItem{
		Offer:    req.Offer,
		Query:    req.Query,
		ViewedAt: time.Now().UnixMilli(),
	}
	if err := h.searchService.Sessions().RecordViewed(c.Request.Context(), clientID(c), item); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Session cache unavailable",
		})
		return
	}
	c.Status(http.StatusNoContent)
}

// RecentlyViewed lists recently viewed offers, newest first
func (h *Handler) RecentlyViewed(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	items := h.searchService.Sessions().RecentlyViewed(c.Request.Context(), clientID(c))
	c.JSON(http.StatusOK, gin.H{
		"data": items,
	})
}

// CurrentItem returns the offer currently being viewed
func (h *Handler) CurrentItem(c *gin.Context) {
	if !h.configured(c) {
		return
	}

	item, err := h.searchService.Sessions().CurrentItem(c.Request.Context(), clientID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "no item being viewed",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": item,
	})
}

// configured writes 501 when the handler was built without a search service
func (h *Handler) configured(c *gin.Context) bool {
	if h.searchService == nil {
		c.JSON(http.StatusNotImplemented, gin.H{
			"error": "Search service not configured",
		})
		return false
	}
	return true
}
