package config

import (
	"fmt"
	"os"
	"path/filepath"

	"checkdocs/pkg/logging"
	"checkdocs/pkg/models"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	DefaultChecksDir = "checks"
	DefaultManifest  = "manifest.json"
	DefaultSiteLabel = "Consistency Checker"
	DefaultAddr      = "127.0.0.1:8080"
)

var DefaultLevels = []string{"FATAL_ERROR", "ERROR", "WARNING", "INFORMATION"}

// Config describes one catalog root and how the admin tool serves it.
type Config struct {
	Root          string
	ChecksDir     string
	Manifest      string
	SiteLabel     string
	Addr          string
	SessionSecret string

	DefaultLevel  string
	DefaultScript string
	Levels        []string

	// SettingsFile is the settings file that was applied, if any.
	SettingsFile string
}

// ChecksPath is the on-disk directory holding the check pages.
func (c *Config) ChecksPath() string {
	if filepath.IsAbs(c.ChecksDir) {
		return c.ChecksDir
	}
	return filepath.Join(c.Root, c.ChecksDir)
}

// ManifestFile is the on-disk path of manifest.json.
func (c *Config) ManifestFile() string {
	if filepath.IsAbs(c.Manifest) {
		return c.Manifest
	}
	return filepath.Join(c.Root, c.Manifest)
}

// Settings returns the resolved catalog settings.
func (c *Config) Settings() models.Settings {
	return models.Settings{
		SiteLabel:     c.SiteLabel,
		ChecksDir:     c.ChecksDir,
		Manifest:      c.Manifest,
		DefaultLevel:  c.DefaultLevel,
		DefaultScript: c.DefaultScript,
		Levels:        append([]string(nil), c.Levels...),
	}
}

func defaults() *Config {
	return &Config{
		Root:          ".",
		ChecksDir:     DefaultChecksDir,
		Manifest:      DefaultManifest,
		SiteLabel:     DefaultSiteLabel,
		Addr:          DefaultAddr,
		DefaultLevel:  models.DefaultLevel,
		DefaultScript: models.DefaultScript,
		Levels:        append([]string(nil), DefaultLevels...),
	}
}

// Load builds the configuration for root. An empty root falls back to
// CHECKDOCS_ROOT and then to the working directory. The catalog settings file
// is read from the root, then .env and the environment are applied on top.
func Load(root string, log *zap.Logger) (*Config, error) {
	log = logging.OrNop(log)
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file loaded", zap.Error(err))
	}

	// Helper to get env with default
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	cfg := defaults()
	if root == "" {
		root = getEnv("CHECKDOCS_ROOT", ".")
	}
	cfg.Root = root

	settings, file, err := LoadSettings(root)
	if err != nil {
		return nil, err
	}
	if settings != nil {
		cfg.apply(settings)
		cfg.SettingsFile = file
	}

	cfg.ChecksDir = getEnv("CHECKDOCS_CHECKS_DIR", cfg.ChecksDir)
	cfg.Manifest = getEnv("CHECKDOCS_MANIFEST", cfg.Manifest)
	cfg.SiteLabel = getEnv("CHECKDOCS_SITE_LABEL", cfg.SiteLabel)
	cfg.Addr = getEnv("CHECKDOCS_ADDR", cfg.Addr)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)

	return cfg, nil
}

func (c *Config) apply(s *models.Settings) {
	if s.SiteLabel != "" {
		c.SiteLabel = s.SiteLabel
	}
	if s.ChecksDir != "" {
		c.ChecksDir = s.ChecksDir
	}
	if s.Manifest != "" {
		c.Manifest = s.Manifest
	}
	if s.DefaultLevel != "" {
		c.DefaultLevel = s.DefaultLevel
	}
	if s.DefaultScript != "" {
		c.DefaultScript = s.DefaultScript
	}
	if len(s.Levels) > 0 {
		c.Levels = append([]string(nil), s.Levels...)
	}
}

// settingsCandidates lists the settings files looked up under a root, in order.
var settingsCandidates = []string{
	filepath.Join("admin", "config.yml"),
	filepath.Join("admin", "config.yaml"),
	filepath.Join("admin", "config.toml"),
}

// LoadSettings reads the first settings file found under root. It returns a
// nil Settings when the catalog has none.
func LoadSettings(root string) (*models.Settings, string, error) {
	for _, candidate := range settingsCandidates {
		path := filepath.Join(root, candidate)
		content, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, "", fmt.Errorf("read settings %s: %w", path, err)
		}

		var s models.Settings
		switch filepath.Ext(path) {
		case ".toml":
			err = toml.Unmarshal(content, &s)
		default:
			err = yaml.Unmarshal(content, &s)
		}
		if err != nil {
			return nil, "", fmt.Errorf("parse settings %s: %w", path, err)
		}
		return &s, path, nil
	}
	return nil, "", nil
}
