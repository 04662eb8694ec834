package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Amedjranamen/IM/internal/config"
	"github.com/Amedjranamen/IM/internal/services"
	"github.com/Amedjranamen/IM/internal/storage"
	"github.com/Amedjranamen/IM/internal/tasks"
)

// allowedMimeTypes maps accepted upload content types to the file extension
// stored filenames get when the original name carries none.
var allowedMimeTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"video/mp4":  "mp4",
	"video/webm": "webm",
}

// resizableMimeTypes are the upload types the image worker can decode.
var resizableMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
}

// MediaHandler handles listing media uploads and deletions.
type MediaHandler struct {
	cfg            *config.Config
	listingService services.IListingService
	store          storage.Store
	taskClient     *asynq.Client
}

// NewMediaHandler creates a new MediaHandler. taskClient may be nil, in which
// case no background resize tasks are enqueued.
func NewMediaHandler(cfg *config.Config, listingService services.IListingService, store storage.Store, taskClient *asynq.Client) *MediaHandler {
	return &MediaHandler{
		cfg:            cfg,
		listingService: listingService,
		store:          store,
		taskClient:     taskClient,
	}
}

// fileExtension derives the stored extension from the upload's original name,
// falling back to the one implied by its content type.
func fileExtension(file *multipart.FileHeader, contentType string) string {
	if ext := strings.TrimPrefix(filepath.Ext(file.Filename), "."); ext != "" {
		return strings.ToLower(ext)
	}
	return allowedMimeTypes[contentType]
}

// UploadImages handles POST /api/listings/:id/images. The whole batch is
// validated before any file is stored: a single invalid file rejects the
// request and leaves the listing's image list unchanged.
func (h *MediaHandler) UploadImages(c *gin.Context) {
	listingID := c.Param("id")

	listing, err := h.listingService.GetOwned(c.Request.Context(), listingID, currentUser(c).ID)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to modify this listing"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch listing"})
		}
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid multipart form: " + err.Error()})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No files provided"})
		return
	}

	if len(listing.Images)+len(files) > h.cfg.MaxFilesPerListing {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Maximum %d files allowed per listing", h.cfg.MaxFilesPerListing),
		})
		return
	}

	maxSizeBytes := int64(h.cfg.ImageMaxSizeMB) * 1024 * 1024
	for _, file := range files {
		contentType := file.Header.Get("Content-Type")
		if _, ok := allowedMimeTypes[contentType]; !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Unsupported file type: %s", contentType)})
			return
		}
		if file.Size > maxSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("File %s exceeds the %dMB size limit", file.Filename, h.cfg.ImageMaxSizeMB),
			})
			return
		}
	}

	storedNames := make([]string, 0, len(files))
	for _, file := range files {
		contentType := file.Header.Get("Content-Type")
		filename := fmt.Sprintf("%s_%s.%s", listingID, uuid.NewString(), fileExtension(file, contentType))

		src, err := file.Open()
		if err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read uploaded file"})
			return
		}
		saveErr := h.store.Save(c.Request.Context(), filename, src)
		src.Close()
		if saveErr != nil {
			_ = c.Error(saveErr)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
			return
		}
		storedNames = append(storedNames, filename)

		if h.taskClient != nil && resizableMimeTypes[contentType] {
			task, err := tasks.NewImageResizeTask(filename)
			if err == nil {
				_, err = h.taskClient.Enqueue(task)
			}
			if err != nil {
				log.Printf("Failed to enqueue resize task for %s: %v", filename, err)
			}
		}
	}

	if err := h.listingService.AppendImages(c.Request.Context(), listingID, storedNames); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to attach files to listing"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": fmt.Sprintf("%d files uploaded successfully", len(storedNames)),
		"images":  storedNames,
	})
}

// DeleteImage handles DELETE /api/listings/:id/images/:filename. The stored
// object is removed best-effort after the reference is gone.
func (h *MediaHandler) DeleteImage(c *gin.Context) {
	listingID := c.Param("id")
	filename := c.Param("filename")

	err := h.listingService.RemoveImage(c.Request.Context(), listingID, currentUser(c).ID, filename)
	if err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			c.JSON(http.StatusNotFound, gin.H{"error": "Listing not found"})
		case errors.Is(err, services.ErrForbidden):
			c.JSON(http.StatusForbidden, gin.H{"error": "Not authorized to modify this listing"})
		default:
			_ = c.Error(err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove image"})
		}
		return
	}

	if err := h.store.Delete(context.WithoutCancel(c.Request.Context()), filename); err != nil {
		log.Printf("Failed to delete stored file %s: %v", filename, err)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Image deleted successfully"})
}
