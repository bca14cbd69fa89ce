package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	DefaultPortraitsSubDir = "portraits"
)

const (
	defaultPort              = 8080
	defaultPortraitQueueSize = 50
	defaultNumPortraitWorker = 2
	defaultPortraitMaxSize   = 512
)

type Config struct {
	// "production" selects JSON logging; anything else is development
	Environment string
	Port        int

	// database path, shared by the GORM record tables and the metadata table
	DatabasePath string

	// family document (.json/.yaml) imported when the database is empty
	SeedFile          string
	FamilyDescription string

	// media storage configuration
	MediaStoragePath string // root for generated assets
	PortraitsSubDir  string
	PortraitsPath    string // full-calculated path for portraits

	// portrait generation settings
	PortraitMaxSize int

	// worker settings
	PortraitQueueSize  int
	NumPortraitWorkers int

	CORSAllowedOrigins []string

	// Warnings lists ignored values, for logging once a logger exists
	Warnings []string
}

// IsProduction reports whether production logging and defaults apply
func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func getEnvOrDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func (c *Config) getEnvIntOrDefault(envVar string, defaultVal int) int {
	valStr := os.Getenv(envVar)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val <= 0 {
		c.Warnings = append(c.Warnings, fmt.Sprintf("invalid %s '%s', using default %d", envVar, valStr, defaultVal))
		return defaultVal
	}
	return val
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func LoadConfig() (Config, error) {
	var cfg Config

	cfg.Environment = getEnvOrDefault("ENVIRONMENT", "development")
	cfg.Port = cfg.getEnvIntOrDefault("PORT", defaultPort)
	cfg.DatabasePath = getEnvOrDefault("DATABASE_PATH", "family.db")
	cfg.SeedFile = os.Getenv("SEED_FILE")
	cfg.FamilyDescription = os.Getenv("FAMILY_DESCRIPTION")

	mediaStorage := getEnvOrDefault("MEDIA_STORAGE_PATH", filepath.Join(".", "media_storage"))
	absMediaStorage, err := filepath.Abs(mediaStorage)
	if err != nil {
		return Config{}, fmt.Errorf("failed to get absolute path for media storage '%s': %w", mediaStorage, err)
	}
	cfg.MediaStoragePath = absMediaStorage

	cfg.PortraitsSubDir = getEnvOrDefault("PORTRAITS_SUBDIR", DefaultPortraitsSubDir)
	if strings.ContainsAny(cfg.PortraitsSubDir, `/\`) || cfg.PortraitsSubDir == ".." {
		return Config{}, fmt.Errorf("PORTRAITS_SUBDIR must be a single directory name, got '%s'", cfg.PortraitsSubDir)
	}
	cfg.PortraitsPath = filepath.Join(absMediaStorage, cfg.PortraitsSubDir)

	cfg.PortraitMaxSize = cfg.getEnvIntOrDefault("PORTRAIT_MAX_SIZE", defaultPortraitMaxSize)
	cfg.PortraitQueueSize = cfg.getEnvIntOrDefault("PORTRAIT_QUEUE_SIZE", defaultPortraitQueueSize)
	cfg.NumPortraitWorkers = cfg.getEnvIntOrDefault("NUM_PORTRAIT_WORKERS", defaultNumPortraitWorker)

	cfg.CORSAllowedOrigins = splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "http://localhost:5173"))

	return cfg, nil
}
