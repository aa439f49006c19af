package upload

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// FieldName is the multipart form field the browser posts the image under.
const FieldName = "image"

// DefaultMaxSizeBytes caps uploads at 10 MB.
const DefaultMaxSizeBytes = 10_000_000

// ErrValidation marks client-side upload failures (wrong type, too large).
var ErrValidation = errors.New("invalid upload")

var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
	".gif":  true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

type Config struct {
	// Directory receives the temp files; created on first use if absent.
	Directory string
	// MaxSizeBytes caps accepted uploads; zero means DefaultMaxSizeBytes.
	MaxSizeBytes int64
}

// Receiver validates an uploaded image and stores it under a temp path with
// a collision-resistant name. The stored file is owned by the request that
// created it and removed by the request handler on every exit path.
type Receiver struct {
	config Config
}

type StoredFile struct {
	Path string
	Size int64
}

func NewReceiver(config Config) (*Receiver, error) {
	if config.Directory == "" {
		return nil, fmt.Errorf("upload directory is not set")
	}
	if config.MaxSizeBytes <= 0 {
		config.MaxSizeBytes = DefaultMaxSizeBytes
	}
	return &Receiver{config: config}, nil
}

// Store validates the file against the image allow-list and size limit and
// writes it into the upload directory.
func (r *Receiver) Store(file *multipart.FileHeader) (*StoredFile, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[extension] {
		return nil, fmt.Errorf("%w: file extension %q is not an accepted image type", ErrValidation, extension)
	}

	contentType := strings.ToLower(strings.TrimSpace(file.Header.Get("Content-Type")))
	if mediaType, _, found := strings.Cut(contentType, ";"); found {
		contentType = strings.TrimSpace(mediaType)
	}
	if !allowedContentTypes[contentType] {
		return nil, fmt.Errorf("%w: content type %q is not an accepted image type", ErrValidation, contentType)
	}

	if file.Size > r.config.MaxSizeBytes {
		return nil, fmt.Errorf("%w: file size %d exceeds limit of %d bytes", ErrValidation, file.Size, r.config.MaxSizeBytes)
	}

	if err := os.MkdirAll(r.config.Directory, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	source, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer func() {
		if closeErr := source.Close(); closeErr != nil {
			slog.Error("failed to close uploaded file reader", "error", closeErr, "filename", file.Filename)
		}
	}()

	// uuid instead of a timestamp so concurrent uploads cannot collide
	path := filepath.Join(r.config.Directory, fmt.Sprintf("%s-%s%s", FieldName, uuid.NewString(), extension))
	destination, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	written, err := io.Copy(destination, source)
	if closeErr := destination.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		if removeErr := os.Remove(path); removeErr != nil {
			slog.Error("failed to remove partial temp file", "error", removeErr, "path", path)
		}
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}

	slog.Info("stored uploaded image", "path", path, "size_bytes", written)
	return &StoredFile{Path: path, Size: written}, nil
}
