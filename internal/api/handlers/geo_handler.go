package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Amedjranamen/IM/internal/services"
)

// GeoHandler proxies forward and reverse geocoding requests.
type GeoHandler struct {
	geocodingService services.IGeocodingService
}

// NewGeoHandler creates a new GeoHandler.
func NewGeoHandler(geocodingService services.IGeocodingService) *GeoHandler {
	return &GeoHandler{geocodingService: geocodingService}
}

// Geocode handles GET /api/geocode?q=...
func (h *GeoHandler) Geocode(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter 'q' is required"})
		return
	}

	results, err := h.geocodingService.Geocode(c.Request.Context(), query)
	if err != nil {
		if errors.Is(err, services.ErrGeocodingUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Geocoding service unavailable"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to geocode"})
		return
	}

	c.Data(http.StatusOK, "application/json", results)
}

// ReverseGeocode handles GET /api/reverse-geocode?lat=...&lon=...
func (h *GeoHandler) ReverseGeocode(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid 'lat' and 'lon' query parameters are required"})
		return
	}

	result, err := h.geocodingService.ReverseGeocode(c.Request.Context(), lat, lon)
	if err != nil {
		if errors.Is(err, services.ErrGeocodingUnavailable) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Geocoding service unavailable"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reverse geocode"})
		return
	}

	c.JSON(http.StatusOK, result)
}
