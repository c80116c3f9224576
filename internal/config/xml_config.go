// Package config provides XML-based configuration management for the report
// server.
package config

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"VigilanceReports"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Sheet source configuration
	Sheets SheetsConfig `xml:"Sheets"`

	// Image resolution configuration
	Images ImagesConfig `xml:"Images"`

	// Report output configuration
	Reports ReportsConfig `xml:"Reports"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
}

// SheetsConfig identifies the published inspection sheet
type SheetsConfig struct {
	SheetID             string `xml:"SheetID"`
	GID                 string `xml:"GID"`
	FetchTimeoutSeconds int    `xml:"FetchTimeoutSeconds"`
}

// ImagesConfig tunes image download and normalization
type ImagesConfig struct {
	FetchTimeoutSeconds int `xml:"FetchTimeoutSeconds"`
	MaxWidth            int `xml:"MaxWidth"`
	JPEGQuality         int `xml:"JPEGQuality"`
	Workers             int `xml:"Workers"`
}

// ReportsConfig controls generated report storage
type ReportsConfig struct {
	Directory             string `xml:"Directory"`
	RetentionCount        int    `xml:"RetentionCount"`
	AllowDeletion         bool   `xml:"AllowDeletion"`
	GenerationTimeoutMins int    `xml:"GenerationTimeoutMinutes"`
	SessionTimeoutMinutes int    `xml:"SessionTimeoutMinutes"`
	CleanupIntervalMins   int    `xml:"CleanupIntervalMinutes"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	EnableCompression    bool   `xml:"EnableCompression"`
	CompressionLevel     int    `xml:"CompressionLevel"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "0.0.0.0",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  30,
			WriteTimeout: 120,
			IdleTimeout:  120,
			BodyLimit:    "4M",
		},
		Sheets: SheetsConfig{
			SheetID:             "",
			GID:                 "0",
			FetchTimeoutSeconds: 30,
		},
		Images: ImagesConfig{
			FetchTimeoutSeconds: 10,
			MaxWidth:            800,
			JPEGQuality:         85,
			Workers:             4,
		},
		Reports: ReportsConfig{
			Directory:             "./data/reports",
			RetentionCount:        50,
			AllowDeletion:         true,
			GenerationTimeoutMins: 5,
			SessionTimeoutMinutes: 30,
			CleanupIntervalMins:   5,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: true,
			EnableCompression:    true,
			CompressionLevel:     5,
		},
	}
}

// LoadConfig loads configuration from XML file
func LoadConfig(configPath string) (*AppConfig, error) {
	// If file doesn't exist, create default
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		config.applyEnvironmentOverrides()
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
		config.resolvePaths(filepath.Dir(configPath))
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &AppConfig{}
	if err := xml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Site Vigilance Report Server Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	// Sheet source overrides
	if sheetID := os.Getenv("GOOGLE_SHEET_ID"); sheetID != "" {
		c.Sheets.SheetID = sheetID
	}
	if gid := os.Getenv("SHEET_GID"); gid != "" {
		c.Sheets.GID = gid
	}

	// REPORTS_DIR override
	if dir := os.Getenv("REPORTS_DIR"); dir != "" {
		c.Reports.Directory = dir
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Reports.Directory) {
		c.Reports.Directory = filepath.Join(configDir, c.Reports.Directory)
	}
}

// GetReportDir returns the absolute report directory path
func (c *AppConfig) GetReportDir() string {
	return c.Reports.Directory
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// Validate checks that required settings are present
func (c *AppConfig) Validate() error {
	if c.Sheets.SheetID == "" {
		return fmt.Errorf("Sheets.SheetID is required (set it in the config file or GOOGLE_SHEET_ID)")
	}
	return nil
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Reports.Directory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Reports.Directory, err)
	}
	return nil
}
