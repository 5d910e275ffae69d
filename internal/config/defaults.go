package config

const (
	defaultDataDir             = "~/.local/share/picvault/data"
	defaultMediaDir            = "~/.local/share/picvault/media"
	defaultLogDir              = "~/.local/share/picvault/logs"
	defaultAPIBind             = "127.0.0.1:8480"
	defaultMaxUploadBytes      = 100 * 1024 * 1024
	defaultMaxPixels           = 50_000_000
	defaultMaxPixelRatio       = 500
	defaultThumbnailSmallEdge  = 256
	defaultThumbnailMediumEdge = 768
	defaultThumbnailQuality    = 85
	defaultCaptionBaseURL      = "https://openrouter.ai/api/v1"
	defaultCaptionModel        = "google/gemini-3-flash-preview"
	defaultCaptionTimeout      = 60
	defaultWorkerCount         = 2
	defaultWorkerPollSeconds   = 2
	defaultWorkerMaxAttempts   = 3
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var (
	defaultAllowedExtensions = []string{".jpg", ".jpeg", ".png"}
	defaultAllowedMIMETypes  = []string{"image/jpeg", "image/png"}
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:  defaultDataDir,
			MediaDir: defaultMediaDir,
			LogDir:   defaultLogDir,
			APIBind:  defaultAPIBind,
		},
		Validation: Validation{
			AllowedExtensions: append([]string(nil), defaultAllowedExtensions...),
			AllowedMIMETypes:  append([]string(nil), defaultAllowedMIMETypes...),
			MaxUploadBytes:    defaultMaxUploadBytes,
			MaxPixels:         defaultMaxPixels,
			MaxPixelRatio:     defaultMaxPixelRatio,
		},
		Thumbnails: Thumbnails{
			SmallEdge:   defaultThumbnailSmallEdge,
			MediumEdge:  defaultThumbnailMediumEdge,
			JPEGQuality: defaultThumbnailQuality,
		},
		Caption: Caption{
			Enabled:        false,
			BaseURL:        defaultCaptionBaseURL,
			Model:          defaultCaptionModel,
			TimeoutSeconds: defaultCaptionTimeout,
		},
		Workers: Workers{
			Count:               defaultWorkerCount,
			PollIntervalSeconds: defaultWorkerPollSeconds,
			MaxAttempts:         defaultWorkerMaxAttempts,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
