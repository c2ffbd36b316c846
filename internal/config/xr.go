package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical XR defaults file.
const DefaultConfigPath = "config/xr.defaults.json"

// Built-in fallbacks used when a field is absent from the loaded file.
const (
	DefaultReferenceSpaceType     = "local-floor"
	DefaultFramebufferScaleFactor = 1.0
	DefaultFoveation              = 1.0
	DefaultOverlaySamples         = 4
	DefaultFrameInterval          = 11 * time.Millisecond
)

// XRConfig holds session and compositing parameters. Every field is a
// pointer so a partial file only overrides what it names.
type XRConfig struct {
	ReferenceSpaceType     *string  `json:"reference_space_type,omitempty"`
	FramebufferScaleFactor *float64 `json:"framebuffer_scale_factor,omitempty"`
	Foveation              *float64 `json:"foveation,omitempty"`
	CameraAutoUpdate       *bool    `json:"camera_auto_update,omitempty"`

	// Sample count for overlay surfaces while they are emulated.
	OverlaySamples *int `json:"overlay_samples,omitempty"`

	// Simulated host frame period, duration string like "11ms".
	FrameInterval *string `json:"frame_interval,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyXRConfig returns an XRConfig with all fields nil. Every Get* method
// falls back to its built-in default.
func EmptyXRConfig() *XRConfig {
	return &XRConfig{}
}

// DefaultXRConfig returns a config with every field populated from the
// built-in defaults.
func DefaultXRConfig() *XRConfig {
	return &XRConfig{
		ReferenceSpaceType:     ptrString(DefaultReferenceSpaceType),
		FramebufferScaleFactor: ptrFloat64(DefaultFramebufferScaleFactor),
		Foveation:              ptrFloat64(DefaultFoveation),
		CameraAutoUpdate:       ptrBool(true),
		OverlaySamples:         ptrInt(DefaultOverlaySamples),
		FrameInterval:          ptrString(DefaultFrameInterval.String()),
	}
}

// LoadXRConfig loads an XRConfig from a JSON file.
// The file must have a .json extension and be under 1MB.
func LoadXRConfig(path string) (*XRConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyXRConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath, searching the current
// directory and its parents. Panics if the file cannot be loaded, intended
// for test setup.
func MustLoadDefaultConfig() *XRConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,    // from internal/config/
		"../../../" + DefaultConfigPath, // from internal/xr/<pkg>/
	}
	for _, path := range candidates {
		if cfg, err := LoadXRConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *XRConfig) Validate() error {
	if c.ReferenceSpaceType != nil && *c.ReferenceSpaceType == "" {
		return fmt.Errorf("reference_space_type must not be empty")
	}

	if c.FramebufferScaleFactor != nil && *c.FramebufferScaleFactor <= 0 {
		return fmt.Errorf("framebuffer_scale_factor must be positive, got %f", *c.FramebufferScaleFactor)
	}

	if c.Foveation != nil {
		if *c.Foveation < 0 || *c.Foveation > 1 {
			return fmt.Errorf("foveation must be between 0 and 1, got %f", *c.Foveation)
		}
	}

	if c.OverlaySamples != nil && *c.OverlaySamples < 0 {
		return fmt.Errorf("overlay_samples must be non-negative, got %d", *c.OverlaySamples)
	}

	if c.FrameInterval != nil && *c.FrameInterval != "" {
		d, err := time.ParseDuration(*c.FrameInterval)
		if err != nil {
			return fmt.Errorf("invalid frame_interval '%s': %w", *c.FrameInterval, err)
		}
		if d <= 0 {
			return fmt.Errorf("frame_interval must be positive, got %s", d)
		}
	}

	return nil
}

// GetReferenceSpaceType returns the reference space requested at session start.
func (c *XRConfig) GetReferenceSpaceType() string {
	if c.ReferenceSpaceType == nil || *c.ReferenceSpaceType == "" {
		return DefaultReferenceSpaceType
	}
	return *c.ReferenceSpaceType
}

// GetFramebufferScaleFactor returns the framebuffer scale factor or the default.
func (c *XRConfig) GetFramebufferScaleFactor() float64 {
	if c.FramebufferScaleFactor == nil {
		return DefaultFramebufferScaleFactor
	}
	return *c.FramebufferScaleFactor
}

// GetFoveation returns the foveation applied at session start.
func (c *XRConfig) GetFoveation() float64 {
	if c.Foveation == nil {
		return DefaultFoveation
	}
	return *c.Foveation
}

// GetCameraAutoUpdate returns the camera_auto_update value or the default.
func (c *XRConfig) GetCameraAutoUpdate() bool {
	if c.CameraAutoUpdate == nil {
		return true
	}
	return *c.CameraAutoUpdate
}

// GetOverlaySamples returns the emulated overlay sample count or the default.
func (c *XRConfig) GetOverlaySamples() int {
	if c.OverlaySamples == nil {
		return DefaultOverlaySamples
	}
	return *c.OverlaySamples
}

// GetFrameInterval parses and returns FrameInterval as a time.Duration.
func (c *XRConfig) GetFrameInterval() time.Duration {
	if c.FrameInterval == nil || *c.FrameInterval == "" {
		return DefaultFrameInterval
	}
	d, err := time.ParseDuration(*c.FrameInterval)
	if err != nil || d <= 0 {
		return DefaultFrameInterval
	}
	return d
}
