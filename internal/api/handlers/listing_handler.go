package handlers

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Amedjranamen/IM/internal/models"
	"github.com/Amedjranamen/IM/internal/services"
	"github.com/Amedjranamen/IM/internal/storage"
)

// ListingHandler handles REST requests for listings.
type ListingHandler struct {
	listingService services.IListingService
	store          storage.Store
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listingService services.IListingService, store storage.Store) *ListingHandler {
	return &ListingHandler{
		listingService: listingService,
		store:          store,
	}
}

// optionalString returns a pointer to the query value when present.
func optionalString(c *gin.Context, key string) *string {
	if v, ok := c.GetQuery(key); ok && v != "" {
		return &v
	}
	return nil
}

// optionalFloat parses an optional float query parameter. Unparseable values
// are treated as absent.
func optionalFloat(c *gin.Context, key string) *float64 {
	if v, ok := c.GetQuery(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

// optionalInt parses an optional integer query parameter.
func optionalInt(c *gin.Context, key string) *int {
	if v, ok := c.GetQuery(key); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return &n
		}
	}
	return nil
}

// Search handles GET /api/listings.
func (h *ListingHandler) Search(c *gin.Context) {
	params := services.SearchParams{
		Search:       optionalString(c, "search"),
		City:         optionalString(c, "city"),
		Neighborhood: optionalString(c, "neighborhood"),
		ListingType:  optionalString(c, "listing_type"),
		PriceMin:     optionalFloat(c, "price_min"),
		PriceMax:     optionalFloat(c, "price_max"),
		SurfaceMin:   optionalInt(c, "surface_min"),
		SurfaceMax:   optionalInt(c, "surface_max"),
		RoomsMin:     optionalInt(c, "rooms_min"),
		RoomsMax:     optionalInt(c, "rooms_max"),
		Lat:          optionalFloat(c, "lat"),
		Lon:          optionalFloat(c, "lon"),
		Radius:       optionalFloat(c, "radius"),
	}

	params.RandomOrder = c.DefaultQuery("random_order", "true") == "true"

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil || limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	params.Limit = limit

	skip, err := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)
	if err != nil || skip < 0 {
		skip = 0
	}
	params.Skip = skip

	listings, err := h.listingService.Search(c.Request.Context(), params)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to search listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// GetByID handles GET /api/listings/:id.
func (h *ListingHandler) GetByID(c *gin.Context) {
	listing, err := h.listingService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listing"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Create handles POST /api/listings.
func (h *ListingHandler) Create(c *gin.Context) {
	var req models.ListingCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), currentUser(c), req)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create listing"})
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Update handles PUT /api/listings/:id.
func (h *ListingHandler) Update(c *gin.Context) {
	var req models.ListingUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), c.Param("id"), currentUser(c).ID, req)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to update this listing"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update listing"})
		}
		return
	}

	c.JSON(http.StatusOK, listing)
}

// Delete handles DELETE /api/listings/:id. Stored media files are removed
// best-effort after the listing row is gone.
func (h *ListingHandler) Delete(c *gin.Context) {
	images, err := h.listingService.Delete(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this listing"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete listing"})
		}
		return
	}

	for _, filename := range images {
		if err := h.store.Delete(context.WithoutCancel(c.Request.Context()), filename); err != nil {
			log.Printf("Failed to delete stored file %s: %v", filename, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted successfully"})
}

// MyListings handles GET /api/my-listings.
func (h *ListingHandler) MyListings(c *gin.Context) {
	listings, err := h.listingService.FindByOwner(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listings"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// Cities handles GET /api/cities.
func (h *ListingHandler) Cities(c *gin.Context) {
	cities, err := h.listingService.Cities(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cities"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

// Neighborhoods handles GET /api/neighborhoods.
func (h *ListingHandler) Neighborhoods(c *gin.Context) {
	neighborhoods, err := h.listingService.Neighborhoods(c.Request.Context(), optionalString(c, "city"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch neighborhoods"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"neighborhoods": neighborhoods})
}
