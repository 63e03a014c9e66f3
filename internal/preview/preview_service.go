package preview

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/h2non/bimg"
	"go.uber.org/zap"

	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
	"tempiaops/internal/logger"
	"tempiaops/internal/service/s3"
)

const (
	maxImageSize  = 1024 // longest edge in pixels
	jpegQuality   = 85
	previewPrefix = "previews/"
	renderTimeout = 30 * time.Second
)

// Rasterizer turns the first page of a PDF into JPEG bytes.
type Rasterizer func(ctx context.Context, pdf []byte) ([]byte, error)

type Service struct {
	storage s3.Storage
	render  Rasterizer
}

func NewService(storage s3.Storage, tmpDir string) *Service {
	return &Service{
		storage: storage,
		render:  PDFRasterizer(tmpDir),
	}
}

// NewServiceWithRasterizer is NewService with a custom page renderer.
func NewServiceWithRasterizer(storage s3.Storage, render Rasterizer) *Service {
	return &Service{storage: storage, render: render}
}

// Key is the blob key of the thumbnail for one version of an FDV file.
func Key(file *domain.FdvFile) string {
	return fmt.Sprintf("%s%s_v%d.jpg", previewPrefix, file.ID, file.Version)
}

// GetOrGenerate returns the cached thumbnail for file, rendering and storing
// it on first request.
func (s *Service) GetOrGenerate(ctx context.Context, file *domain.FdvFile) ([]byte, error) {
	key := Key(file)
	log := logger.L().With(zap.String("fdv_id", file.ID.String()), zap.String("preview_key", key))

	cached, err := s.storage.GetObject(ctx, key)
	if err == nil {
		defer cached.Close()
		return io.ReadAll(cached)
	}
	if !apperror.IsCode(err, apperror.CodeNotFound) {
		log.Warn("preview lookup failed, regenerating", zap.Error(err))
	}

	source, err := s.storage.GetObject(ctx, file.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", file.StoragePath, err)
	}
	defer source.Close()

	pdf, err := io.ReadAll(source)
	if err != nil {
		return nil, fmt.Errorf("failed to read file data: %w", err)
	}

	img, err := s.render(ctx, pdf)
	if err != nil {
		log.Error("preview generation failed", zap.Error(err))
		return nil, apperror.Wrap(err, apperror.CodeInternal, "failed to generate preview")
	}

	if err := s.storage.UploadBytes(ctx, key, img, "image/jpeg"); err != nil {
		log.Warn("failed to store preview", zap.Error(err))
	}

	return img, nil
}

// Remove drops the stored thumbnail; a missing thumbnail is not an error.
func (s *Service) Remove(ctx context.Context, file *domain.FdvFile) error {
	return s.storage.DeleteObject(ctx, Key(file))
}

// PDFRasterizer renders page one with pdftoppm and resizes it with bimg.
func PDFRasterizer(tmpDir string) Rasterizer {
	return func(ctx context.Context, data []byte) ([]byte, error) {
		if err := os.MkdirAll(tmpDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		tmpPath, err := os.MkdirTemp(tmpDir, "preview_")
		if err != nil {
			return nil, fmt.Errorf("failed to create temp dir: %w", err)
		}
		defer os.RemoveAll(tmpPath)

		pdfPath := filepath.Join(tmpPath, "input.pdf")
		if err := os.WriteFile(pdfPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write PDF file: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, renderTimeout)
		defer cancel()

		outputPath := filepath.Join(tmpPath, "output")
		cmd := exec.CommandContext(ctx, "pdftoppm",
			"-jpeg",
			"-f", "1",
			"-l", "1",
			"-scale-to", fmt.Sprintf("%d", maxImageSize),
			"-singlefile",
			pdfPath,
			outputPath,
		)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			return nil, fmt.Errorf("failed to convert PDF: %w (stderr: %s)", err, stderr.String())
		}

		imgData, err := os.ReadFile(outputPath + ".jpg")
		if err != nil {
			return nil, fmt.Errorf("failed to read converted image: %w", err)
		}

		return optimizeImage(imgData)
	}
}

func optimizeImage(data []byte) ([]byte, error) {
	image := bimg.NewImage(data)

	size, err := image.Size()
	if err != nil {
		return nil, fmt.Errorf("failed to get image size: %w", err)
	}

	width, height := calculateNewDimensions(size.Width, size.Height, maxImageSize)

	processed, err := image.Process(bimg.Options{
		Width:   width,
		Height:  height,
		Quality: jpegQuality,
		Type:    bimg.JPEG,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to process image: %w", err)
	}

	return processed, nil
}

// calculateNewDimensions scales the longest edge to maxSize and keeps the
// aspect ratio. Images already within bounds are left as they are.
func calculateNewDimensions(width, height, maxSize int) (newWidth, newHeight int) {
	if width <= maxSize && height <= maxSize {
		return width, height
	}
	if width > height {
		newWidth = maxSize
		newHeight = (height * maxSize) / width
	} else {
		newHeight = maxSize
		newWidth = (width * maxSize) / height
	}
	return
}
