// Package images downloads IIIF renditions of artworks to disk.
package images

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lehigh-university-libraries/gallery/internal/models"
)

// MinImageSize is the smallest payload accepted as a real image. Anything
// smaller is treated as an error page or placeholder.
const MinImageSize = 1000

// Fetcher retrieves artwork images from the IIIF image service
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string
}

// NewFetcher creates a new image fetcher
func NewFetcher(userAgent string) *Fetcher {
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		UserAgent: userAgent,
	}
}

// ImageSet holds the downloaded renditions of one artwork
type ImageSet struct {
	ThumbnailPath string
	FullPath      string
}

// FetchArtwork downloads the thumbnail and full-size renditions of an artwork
// into outputDir. At least one rendition must succeed.
func (f *Fetcher) FetchArtwork(ctx context.Context, artwork models.Artwork, outputDir string) (*ImageSet, error) {
	if artwork.ImageID == nil || *artwork.ImageID == "" {
		return nil, fmt.Errorf("artwork %d has no image", artwork.ID)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	slog.Info("Fetching images for artwork", "id", artwork.ID, "image_id", *artwork.ImageID)

	imageSet := &ImageSet{}

	thumbPath := filepath.Join(outputDir, fmt.Sprintf("%d_thumbnail.jpg", artwork.ID))
	if err := f.Download(ctx, artwork.ThumbnailURL(), thumbPath); err != nil {
		slog.Warn("Failed to download thumbnail", "id", artwork.ID, "error", err)
	} else {
		imageSet.ThumbnailPath = thumbPath
		slog.Info("Downloaded thumbnail", "id", artwork.ID, "path", thumbPath)
	}

	fullPath := filepath.Join(outputDir, fmt.Sprintf("%d_full.jpg", artwork.ID))
	if err := f.Download(ctx, artwork.FullImageURL(), fullPath); err != nil {
		slog.Warn("Failed to download full image", "id", artwork.ID, "error", err)
	} else {
		imageSet.FullPath = fullPath
		slog.Info("Downloaded full image", "id", artwork.ID, "path", fullPath)
	}

	if imageSet.ThumbnailPath == "" && imageSet.FullPath == "" {
		return nil, fmt.Errorf("no images could be downloaded for artwork %d", artwork.ID)
	}

	return imageSet, nil
}

// Download fetches url and writes the body to outputPath
func (f *Fetcher) Download(ctx context.Context, url, outputPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("image service returned status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	if len(imageData) < MinImageSize {
		return fmt.Errorf("image too small (likely placeholder)")
	}

	if err := os.WriteFile(outputPath, imageData, 0644); err != nil {
		return fmt.Errorf("failed to write image file: %w", err)
	}

	return nil
}
