package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeValidation()
	c.normalizeCaption()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.MediaDir, err = expandPath(c.Paths.MediaDir); err != nil {
		return fmt.Errorf("paths.media_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	return nil
}

func (c *Config) normalizeValidation() {
	exts := make([]string, 0, len(c.Validation.AllowedExtensions))
	for _, ext := range c.Validation.AllowedExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	c.Validation.AllowedExtensions = exts

	mimes := make([]string, 0, len(c.Validation.AllowedMIMETypes))
	for _, mime := range c.Validation.AllowedMIMETypes {
		mime = strings.ToLower(strings.TrimSpace(mime))
		if mime == "" {
			continue
		}
		mimes = append(mimes, mime)
	}
	c.Validation.AllowedMIMETypes = mimes
}

func (c *Config) normalizeCaption() {
	if key := strings.TrimSpace(os.Getenv("PICVAULT_CAPTION_API_KEY")); key != "" {
		c.Caption.APIKey = key
	}
	c.Caption.APIKey = strings.TrimSpace(c.Caption.APIKey)
	c.Caption.BaseURL = strings.TrimSpace(c.Caption.BaseURL)
	c.Caption.Model = strings.TrimSpace(c.Caption.Model)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
