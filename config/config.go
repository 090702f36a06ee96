// Package config loads the BoQ importer settings from the environment.
package config

import (
	"log"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// DefaultEnvFiles are read, when present, before the environment is parsed.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Configuration holds the import defaults and logging level.
type Configuration struct {
	DefaultSectionTitle string `env:"BOQ_DEFAULT_SECTION_TITLE" envDefault:"General"`
	HeaderRowOffset     int    `env:"BOQ_HEADER_ROW_OFFSET" envDefault:"0"`
	SkipWarningRows     bool   `env:"BOQ_SKIP_WARNING_ROWS" envDefault:"false"`
	ReplaceExisting     bool   `env:"BOQ_REPLACE_EXISTING" envDefault:"true"`
	MaxUploadSize       int64  `env:"BOQ_MAX_UPLOAD_SIZE" envDefault:"10485760"`
	MappingFile         string `env:"BOQ_MAPPING_FILE"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`

	logger *logrus.Logger
}

// LoadEnv loads the env files that exist and returns how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Load reads envFiles, parses the environment and builds the logger.
func Load(envFiles []string) (*Configuration, error) {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return nil, errors.Wrap(err, "load env files")
	}
	if n == 0 {
		log.Println("config: no .env files found, using process environment")
	}

	c := &Configuration{}
	if err := env.Parse(c); err != nil {
		return nil, errors.Wrap(err, "parse environment")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	c.logger = logrus.New()
	c.logger.SetLevel(c.LogrusLogLevel())
	c.logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return c, nil
}

// Validate rejects settings the importer cannot run with.
func (c *Configuration) Validate() error {
	if c.HeaderRowOffset < 0 {
		return errors.Errorf("BOQ_HEADER_ROW_OFFSET must not be negative, got %d", c.HeaderRowOffset)
	}
	if c.MaxUploadSize <= 0 {
		return errors.Errorf("BOQ_MAX_UPLOAD_SIZE must be positive, got %d", c.MaxUploadSize)
	}
	switch c.LogLevel {
	case "silent", "error", "warn", "info", "debug":
	default:
		return errors.Errorf("LOG_LEVEL must be one of silent|error|warn|info|debug, got %q", c.LogLevel)
	}
	return nil
}

// Logger returns the configured logger. A Configuration built without Load
// gets a default info-level logger.
func (c *Configuration) Logger() *logrus.Logger {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.SetLevel(c.LogrusLogLevel())
	}
	return c.logger
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}
