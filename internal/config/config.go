package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	MediaDir string `toml:"media_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
}

// Validation contains limits applied to uploaded payloads before acceptance.
type Validation struct {
	AllowedExtensions []string `toml:"allowed_extensions"`
	AllowedMIMETypes  []string `toml:"allowed_mime_types"`
	MaxUploadBytes    int64    `toml:"max_upload_bytes"`
	// MaxPixels is the absolute decoded pixel-area ceiling.
	MaxPixels int64 `toml:"max_pixels"`
	// MaxPixelRatio caps decoded pixel area relative to encoded byte size.
	// A payload whose pixel area exceeds ratio*len(bytes) is treated as a
	// decompression bomb.
	MaxPixelRatio int64 `toml:"max_pixel_ratio"`
}

// Thumbnails contains settings for derived thumbnail generation.
type Thumbnails struct {
	SmallEdge   int `toml:"small_edge"`
	MediumEdge  int `toml:"medium_edge"`
	JPEGQuality int `toml:"jpeg_quality"`
}

// Caption contains connection settings for the captioning model endpoint.
// The endpoint is any OpenAI-compatible chat completion API that accepts
// image content parts.
type Caption struct {
	Enabled        bool   `toml:"enabled"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Workers contains enrichment worker pool settings.
type Workers struct {
	Count               int `toml:"count"`
	PollIntervalSeconds int `toml:"poll_interval_seconds"`
	MaxAttempts         int `toml:"max_attempts"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for picvault.
//
// Sections by subsystem:
//   - Paths: data/media/log directories and the API bind address
//   - Validation: upload acceptance limits (extensions, MIME, bomb guard)
//   - Thumbnails: derived thumbnail sizes and JPEG quality
//   - Caption: caption model endpoint for the enrichment worker
//   - Workers: enrichment worker pool sizing and retry policy
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Validation Validation `toml:"validation"`
	Thumbnails Thumbnails `toml:"thumbnails"`
	Caption    Caption    `toml:"caption"`
	Workers    Workers    `toml:"workers"`
	Logging    Logging    `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/picvault/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. The second return value is the
// resolved config path; the third reports whether the file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("picvault.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories required for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.Paths.LogDir,
		c.OriginalsDir(),
		filepath.Join(c.ThumbnailsDir(), "small"),
		filepath.Join(c.ThumbnailsDir(), "medium"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "picvault.db")
}

// LockPath returns the daemon single-instance lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "picvaultd.lock")
}

// OriginalsDir returns the directory holding uploaded original files.
func (c *Config) OriginalsDir() string {
	return filepath.Join(c.Paths.MediaDir, "originals")
}

// ThumbnailsDir returns the root directory holding generated thumbnails.
func (c *Config) ThumbnailsDir() string {
	return filepath.Join(c.Paths.MediaDir, "thumbnails")
}

// ThumbnailPath returns the location of a generated thumbnail for a content hash.
func (c *Config) ThumbnailPath(size, sha256 string) string {
	return filepath.Join(c.ThumbnailsDir(), size, sha256+".jpeg")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
