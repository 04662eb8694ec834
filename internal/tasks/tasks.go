package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // registered for image.Decode; output is always JPEG
	"io"
	"log"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/Amedjranamen/IM/internal/config"
	"github.com/Amedjranamen/IM/internal/storage"
)

const (
	TypeImageResize = "image:resize"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	opts := rdb.Options()
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// ImageResizePayload names the stored file an upload produced.
type ImageResizePayload struct {
	Filename string `json:"filename"`
}

// NewImageResizeTask builds a task that normalizes an uploaded image in place.
func NewImageResizeTask(filename string) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageResizePayload{Filename: filename})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeImageResize, payload, asynq.Queue("images")), nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
// It holds dependencies needed by task handlers.
type TaskProcessor struct {
	cfg   *config.Config
	store storage.Store
}

func NewTaskProcessor(cfg *config.Config, store storage.Store) *TaskProcessor {
	return &TaskProcessor{cfg: cfg, store: store}
}

// SetupServer configures and returns an Asynq server with the processor's
// handlers registered. The caller runs it.
func SetupServer(rdb *redis.Client, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	opts := rdb.Options()
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"default": 3,
				"images":  5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageResize, processor.HandleImageResizeTask)

	return srv, mux
}

// --- Task Handlers ---

// HandleImageResizeTask downscales an uploaded image that exceeds the
// configured max dimension and re-encodes it as JPEG, overwriting the stored
// file. Files already within bounds are left untouched.
func (p *TaskProcessor) HandleImageResizeTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageResizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	rc, err := p.store.Open(ctx, payload.Filename)
	if err != nil {
		log.Printf("Image %s not readable, likely deleted before processing: %v", payload.Filename, err)
		return fmt.Errorf("stored image not found: %w", asynq.SkipRetry)
	}
	imgData, err := io.ReadAll(rc)
	rc.Close()
	if err != nil {
		return fmt.Errorf("failed to read image %s: %w", payload.Filename, err)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image %s: %v", payload.Filename, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	maxDim := p.cfg.ImageMaxDimension
	if img.Bounds().Dx() <= maxDim && img.Bounds().Dy() <= maxDim {
		log.Printf("Image %s (%s, %dx%d) within bounds, no resize needed",
			payload.Filename, format, img.Bounds().Dx(), img.Bounds().Dy())
		return nil
	}

	resized := resize.Thumbnail(uint(maxDim), uint(maxDim), img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to re-encode resized image %s: %w", payload.Filename, err)
	}

	if err := p.store.Save(ctx, payload.Filename, &buf); err != nil {
		return fmt.Errorf("failed to store resized image %s: %w", payload.Filename, err)
	}

	log.Printf("Resized image %s from %dx%d to %dx%d",
		payload.Filename, img.Bounds().Dx(), img.Bounds().Dy(), resized.Bounds().Dx(), resized.Bounds().Dy())
	return nil
}
