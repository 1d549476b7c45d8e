package config

import (
	"encoding/json"
	"os"
	"sync"
)

// Config holds application configuration
type Config struct {
	Display Display `json:"display"`
	Window  Window  `json:"window"`
	Backend Backend `json:"backend"`
	Logging Logging `json:"logging"`
	Inspect Inspect `json:"inspect"`
}

// Display contains display layer parameters
type Display struct {
	// Vendor is the prefix of the vendor string
	Vendor string `json:"vendor"`

	// SwapInterval is applied to new window surfaces (clamped by the backend)
	SwapInterval int `json:"swap_interval"`
}

// Window contains parameters of the demo window
type Window struct {
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Title     string `json:"title"`
	Resizable bool   `json:"resizable"`
}

// Backend selects and tunes the rendering backend
type Backend struct {
	// Name of a registered backend
	Name string `json:"name"`

	// HighPerformance prefers a discrete adapter
	HighPerformance bool `json:"high_performance"`
}

// Logging contains logger options
type Logging struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// Inspect configures the diagnostics HTTP server
type Inspect struct {
	Enabled bool   `json:"enabled"`
	Addr    string `json:"addr"`
}

const (
	MinSwapInterval = 0
	MaxSwapInterval = 4
)

var (
	instance *Config
	once     sync.Once
	mu       sync.RWMutex
)

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Display: Display{
			Vendor:       "gpudisplay",
			SwapInterval: 1,
		},
		Window: Window{
			Width:     1280,
			Height:    720,
			Title:     "gpudisplay",
			Resizable: true,
		},
		Backend: Backend{
			Name:            "wgpu",
			HighPerformance: true,
		},
		Logging: Logging{
			Level: "info",
		},
		Inspect: Inspect{
			Enabled: false,
			Addr:    "127.0.0.1:8642",
		},
	}
}

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if instance != nil {
			return
		}
		instance = DefaultConfig()
		// Try to load from file
		if data, err := os.ReadFile("config.json"); err == nil {
			json.Unmarshal(data, instance)
		}
	})
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load loads configuration from a file
func Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}

	return json.Unmarshal(data, instance)
}

// Save saves configuration to a file
func Save(path string) error {
	mu.RLock()
	cfg := instance
	mu.RUnlock()

	if cfg == nil {
		cfg = DefaultConfig()
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Reset restores the defaults
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	instance = DefaultConfig()
}

// SetSwapInterval sets the default swap interval
func SetSwapInterval(interval int) {
	mu.Lock()
	defer mu.Unlock()

	if instance == nil {
		instance = DefaultConfig()
	}

	if interval < MinSwapInterval {
		interval = MinSwapInterval
	}
	if interval > MaxSwapInterval {
		interval = MaxSwapInterval
	}
	instance.Display.SwapInterval = interval
}

// GetSwapInterval returns the default swap interval
func GetSwapInterval() int {
	mu.RLock()
	defer mu.RUnlock()

	if instance == nil {
		return 1
	}
	return instance.Display.SwapInterval
}
