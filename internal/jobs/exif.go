package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"picvault/internal/store"
)

// ExifExtractor pulls EXIF tags from stored originals into the metadata
// registry as a JSON object.
type ExifExtractor struct {
	store *store.Store
}

// NewExifExtractor builds an ExifExtractor.
func NewExifExtractor(s *store.Store) *ExifExtractor {
	return &ExifExtractor{store: s}
}

// Extract reads EXIF tags from the original for sha256 and stores them as
// JSON. Images without EXIF data (PNGs, stripped JPEGs) store "{}" so the
// field distinguishes "processed, nothing found" from "not yet processed".
func (e *ExifExtractor) Extract(ctx context.Context, sha256 string) error {
	srcPath, err := e.store.FindOriginalPath(ctx, sha256)
	if err != nil {
		return err
	}
	if srcPath == "" {
		return fmt.Errorf("no stored original for hash %s", sha256)
	}

	f, err := os.Open(srcPath)
	if err != nil {
		return fmt.Errorf("open original %s: %w", srcPath, err)
	}
	defer f.Close()

	payload := "{}"
	if decoded, err := exif.Decode(f); err == nil {
		walker := &tagCollector{tags: make(map[string]string)}
		if err := decoded.Walk(walker); err == nil && len(walker.tags) > 0 {
			data, err := json.Marshal(walker.tags)
			if err != nil {
				return fmt.Errorf("marshal exif tags: %w", err)
			}
			payload = string(data)
		}
	}

	return e.store.SetEnrichment(ctx, sha256, store.FieldExifJSON, payload)
}

type tagCollector struct {
	tags map[string]string
}

func (c *tagCollector) Walk(name exif.FieldName, tag *tiff.Tag) error {
	c.tags[string(name)] = tag.String()
	return nil
}
