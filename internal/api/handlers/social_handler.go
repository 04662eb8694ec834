package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Amedjranamen/IM/internal/models"
	"github.com/Amedjranamen/IM/internal/services"
)

// SocialHandler handles likes, comments and favorites.
type SocialHandler struct {
	socialService services.ISocialService
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(socialService services.ISocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

// ListComments handles GET /api/listings/:id/comments.
func (h *SocialHandler) ListComments(c *gin.Context) {
	comments, err := h.socialService.ListComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch comments"})
		return
	}

	c.JSON(http.StatusOK, comments)
}

// CreateComment handles POST /api/listings/:id/comments.
func (h *SocialHandler) CreateComment(c *gin.Context) {
	var req models.CommentCreate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	comment, err := h.socialService.CreateComment(c.Request.Context(), c.Param("id"), currentUser(c), req.Text)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	c.JSON(http.StatusOK, comment)
}

// DeleteComment handles DELETE /api/comments/:id.
func (h *SocialHandler) DeleteComment(c *gin.Context) {
	err := h.socialService.DeleteComment(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to delete this comment"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete comment"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted successfully"})
}

// ToggleLike handles POST /api/listings/:id/like.
func (h *SocialHandler) ToggleLike(c *gin.Context) {
	liked, count, err := h.socialService.ToggleLike(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to toggle like"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked, "likes_count": count})
}

// CheckLiked handles GET /api/listings/:id/liked.
func (h *SocialHandler) CheckLiked(c *gin.Context) {
	liked, err := h.socialService.IsLiked(c.Request.Context(), c.Param("id"), currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check like state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked})
}

// AddFavorite handles POST /api/favorites/:listing_id.
func (h *SocialHandler) AddFavorite(c *gin.Context) {
	err := h.socialService.AddFavorite(c.Request.Context(), c.Param("listing_id"), currentUser(c).ID)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, services.ErrAlreadyFavorited):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Already in favorites"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add favorite"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Added to favorites"})
}

// RemoveFavorite handles DELETE /api/favorites/:listing_id.
func (h *SocialHandler) RemoveFavorite(c *gin.Context) {
	err := h.socialService.RemoveFavorite(c.Request.Context(), c.Param("listing_id"), currentUser(c).ID)
	if err != nil {
		if errors.Is(err, services.ErrFavoriteNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Favorite not found"})
			return
		}
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove favorite"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Removed from favorites"})
}

// ListFavorites handles GET /api/favorites.
func (h *SocialHandler) ListFavorites(c *gin.Context) {
	listings, err := h.socialService.ListFavorites(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch favorites"})
		return
	}

	c.JSON(http.StatusOK, listings)
}

// CheckFavorite handles GET /api/favorites/:listing_id/check.
func (h *SocialHandler) CheckFavorite(c *gin.Context) {
	isFavorite, err := h.socialService.IsFavorite(c.Request.Context(), c.Param("listing_id"), currentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check favorite state"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"is_favorite": isFavorite})
}
