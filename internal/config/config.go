package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid is returned by Load when a value is out of range.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		File string `yaml:"file"`
	} `yaml:"log"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Catalog struct {
		TTL string `yaml:"ttl"`
	} `yaml:"catalog"`
	Trivia struct {
		AnswerWindow      string `yaml:"answer_window"`
		QuestionsPerLevel int    `yaml:"questions_per_level"`
		WinPercent        int    `yaml:"win_percent"`
		GiftThreshold     int    `yaml:"gift_threshold"`
		GiftCourseID      string `yaml:"gift_course_id"`
	} `yaml:"trivia"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Redis.TTL = "30m"
	cfg.Catalog.TTL = "10m"
	cfg.Trivia.AnswerWindow = "10s"
	cfg.Trivia.QuestionsPerLevel = 3
	cfg.Trivia.WinPercent = 70
	cfg.Trivia.GiftThreshold = 3
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the trivia thresholds. A zero win percent is rejected rather
// than treated as unset.
func (c Config) Validate() error {
	t := c.Trivia
	if t.WinPercent < 1 || t.WinPercent > 100 {
		return fmt.Errorf("%w: trivia.win_percent must be between 1 and 100, got %d", ErrInvalid, t.WinPercent)
	}
	if t.GiftThreshold < 0 {
		return fmt.Errorf("%w: trivia.gift_threshold must not be negative, got %d", ErrInvalid, t.GiftThreshold)
	}
	if t.QuestionsPerLevel < 0 {
		return fmt.Errorf("%w: trivia.questions_per_level must not be negative, got %d", ErrInvalid, t.QuestionsPerLevel)
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
