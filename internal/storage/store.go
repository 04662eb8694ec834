package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Amedjranamen/IM/internal/config"
)

// Store abstracts where uploaded media files live.
type Store interface {
	// Save writes the file under the given name, overwriting any existing file.
	Save(ctx context.Context, filename string, r io.Reader) error
	// Open returns a reader for the stored file. The caller must close it.
	Open(ctx context.Context, filename string) (io.ReadCloser, error)
	// Delete removes the stored file. Deleting a missing file is not an error.
	Delete(ctx context.Context, filename string) error
}

// NewStore builds the media store selected by MEDIA_BACKEND.
func NewStore(cfg *config.Config) (Store, error) {
	switch cfg.MediaBackend {
	case "local":
		return NewLocalStore(cfg.UploadDir)
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown media backend: %s", cfg.MediaBackend)
	}
}
