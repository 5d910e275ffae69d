package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateValidation(); err != nil {
		return err
	}
	if err := c.validateThumbnails(); err != nil {
		return err
	}
	if err := c.validateCaption(); err != nil {
		return err
	}
	if err := c.validateWorkers(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.MediaDir) == "" {
		return errors.New("paths.media_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateValidation() error {
	if len(c.Validation.AllowedExtensions) == 0 {
		return errors.New("validation.allowed_extensions must not be empty")
	}
	if len(c.Validation.AllowedMIMETypes) == 0 {
		return errors.New("validation.allowed_mime_types must not be empty")
	}
	if err := ensurePositive(map[string]int64{
		"validation.max_upload_bytes": c.Validation.MaxUploadBytes,
		"validation.max_pixels":       c.Validation.MaxPixels,
		"validation.max_pixel_ratio":  c.Validation.MaxPixelRatio,
	}); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateThumbnails() error {
	if err := ensurePositive(map[string]int64{
		"thumbnails.small_edge":  int64(c.Thumbnails.SmallEdge),
		"thumbnails.medium_edge": int64(c.Thumbnails.MediumEdge),
	}); err != nil {
		return err
	}
	if c.Thumbnails.JPEGQuality < 1 || c.Thumbnails.JPEGQuality > 100 {
		return errors.New("thumbnails.jpeg_quality must be between 1 and 100")
	}
	if c.Thumbnails.SmallEdge >= c.Thumbnails.MediumEdge {
		return errors.New("thumbnails.small_edge must be smaller than thumbnails.medium_edge")
	}
	return nil
}

func (c *Config) validateCaption() error {
	if !c.Caption.Enabled {
		return nil
	}
	if c.Caption.APIKey == "" {
		return errors.New("caption.api_key must be set when caption.enabled is true (or set PICVAULT_CAPTION_API_KEY)")
	}
	if c.Caption.BaseURL == "" {
		return errors.New("caption.base_url must be set when caption.enabled is true")
	}
	if c.Caption.Model == "" {
		return errors.New("caption.model must be set when caption.enabled is true")
	}
	if c.Caption.TimeoutSeconds <= 0 {
		return errors.New("caption.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkers() error {
	return ensurePositive(map[string]int64{
		"workers.count":                 int64(c.Workers.Count),
		"workers.poll_interval_seconds": int64(c.Workers.PollIntervalSeconds),
		"workers.max_attempts":          int64(c.Workers.MaxAttempts),
	})
}

func ensurePositive(values map[string]int64) error {
	for name, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
