package jobs

import (
	"context"
	"fmt"

	"github.com/disintegration/imaging"

	"picvault/internal/config"
	"picvault/internal/store"
)

// Thumbnailer renders fixed-size JPEG thumbnails from stored originals.
type Thumbnailer struct {
	cfg   *config.Config
	store *store.Store
}

// NewThumbnailer builds a Thumbnailer.
func NewThumbnailer(cfg *config.Config, s *store.Store) *Thumbnailer {
	return &Thumbnailer{cfg: cfg, store: s}
}

// Render produces the thumbnail for one content hash at the named size
// ("small" or "medium"). The image is fit within a square bounding box, so
// aspect ratio is preserved, and written as JPEG regardless of the source
// format. Rendering is idempotent: re-running overwrites the same path.
func (t *Thumbnailer) Render(ctx context.Context, sha256, size string) error {
	var edge int
	switch size {
	case "small":
		edge = t.cfg.Thumbnails.SmallEdge
	case "medium":
		edge = t.cfg.Thumbnails.MediumEdge
	default:
		return fmt.Errorf("unknown thumbnail size %q", size)
	}

	srcPath, err := t.store.FindOriginalPath(ctx, sha256)
	if err != nil {
		return err
	}
	if srcPath == "" {
		return fmt.Errorf("no stored original for hash %s", sha256)
	}

	src, err := imaging.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open original %s: %w", srcPath, err)
	}

	thumb := imaging.Fit(src, edge, edge, imaging.Lanczos)
	dstPath := t.cfg.ThumbnailPath(size, sha256)
	if err := imaging.Save(thumb, dstPath, imaging.JPEGQuality(t.cfg.Thumbnails.JPEGQuality)); err != nil {
		return fmt.Errorf("save thumbnail %s: %w", dstPath, err)
	}
	return nil
}

func thumbnailSize(kind string) string {
	switch kind {
	case KindThumbnailSmall:
		return "small"
	case KindThumbnailMedium:
		return "medium"
	default:
		return ""
	}
}
