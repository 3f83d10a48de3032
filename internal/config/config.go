package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"studybuddy/internal/validation"
)

const envPrefix = "STUDYBUDDY_"

type AppConfig struct {
	Name     string `yaml:"name" validate:"required"`
	Env      string `yaml:"env" validate:"required,oneof=development production test"`
	LogLevel string `yaml:"logLevel" validate:"oneof=debug info warn error"`
	Platform string `yaml:"platform" validate:"required,oneof=ios android web"`
}

type ServerConfig struct {
	Addr              string        `yaml:"addr" validate:"required"`
	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout" validate:"gt=0"`
	AllowedOrigins    []string      `yaml:"allowedOrigins"`
	MaxLogBodyBytes   int           `yaml:"maxLogBodyBytes" validate:"gte=0"`
}

type StorageConfig struct {
	Driver          string `yaml:"driver" validate:"required,oneof=memory sqlite redis"`
	SQLitePath      string `yaml:"sqlitePath" validate:"required_if=Driver sqlite"`
	RedisAddr       string `yaml:"redisAddr" validate:"required_if=Driver redis"`
	RedisPassword   string `yaml:"redisPassword"`
	RedisDB         int    `yaml:"redisDb" validate:"gte=0"`
	RedisKey        string `yaml:"redisKey"`
	RedisMaxEntries int64  `yaml:"redisMaxEntries" validate:"gte=0"`
}

// SimulationConfig controls the fake backend latency and failure rate.
type SimulationConfig struct {
	ChatDelay   time.Duration `yaml:"chatDelay" validate:"gte=0"`
	VoiceDelay  time.Duration `yaml:"voiceDelay" validate:"gte=0"`
	UploadDelay time.Duration `yaml:"uploadDelay" validate:"gte=0"`
	FailureRate float64       `yaml:"failureRate" validate:"gte=0,lte=1"`
}

// QuizConfig bounds how long quiz sessions are held in memory.
type QuizConfig struct {
	SessionIdleTimeout time.Duration `yaml:"sessionIdleTimeout" validate:"gt=0"`
	ResultRetention    time.Duration `yaml:"resultRetention" validate:"gt=0"`
	SweepInterval      time.Duration `yaml:"sweepInterval" validate:"gt=0"`
}

type ContactConfig struct {
	Endpoint string        `yaml:"endpoint" validate:"required,url"`
	Timeout  time.Duration `yaml:"timeout" validate:"gt=0"`
}

type OpenTDBConfig struct {
	BaseURL string        `yaml:"baseUrl" validate:"required,url"`
	Timeout time.Duration `yaml:"timeout" validate:"gt=0"`
}

type Config struct {
	App        AppConfig        `yaml:"app"`
	Server     ServerConfig     `yaml:"server"`
	Storage    StorageConfig    `yaml:"storage"`
	Simulation SimulationConfig `yaml:"simulation"`
	Quiz       QuizConfig       `yaml:"quiz"`
	Contact    ContactConfig    `yaml:"contact"`
	OpenTDB    OpenTDBConfig    `yaml:"opentdb"`
}

func Default() Config {
	return Config{
		App: AppConfig{
			Name:     "studybuddy",
			Env:      "development",
			LogLevel: "info",
			Platform: "ios",
		},
		Server: ServerConfig{
			Addr:              ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			AllowedOrigins:    []string{"*"},
			MaxLogBodyBytes:   1024,
		},
		Storage: StorageConfig{
			Driver:     "memory",
			SQLitePath: "studybuddy.db",
			RedisAddr:  "localhost:6379",
			RedisKey:   "studybuddy:results",
		},
		Simulation: SimulationConfig{
			ChatDelay:   2 * time.Second,
			VoiceDelay:  2 * time.Second,
			UploadDelay: 3 * time.Second,
		},
		Quiz: QuizConfig{
			SessionIdleTimeout: 30 * time.Minute,
			ResultRetention:    10 * time.Minute,
			SweepInterval:      time.Minute,
		},
		Contact: ContactConfig{
			Endpoint: "https://formspree.io/f/xkgzprpp",
			Timeout:  10 * time.Second,
		},
		OpenTDB: OpenTDBConfig{
			BaseURL: "https://opentdb.com/api.php",
			Timeout: 10 * time.Second,
		},
	}
}

// LoadDotEnv loads variables from the given files into the process
// environment. Missing files are skipped.
func LoadDotEnv(files ...string) error {
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// Load reads defaults, then the YAML file at path (if any), then STUDYBUDDY_*
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.LookupEnv)
}

func LoadWithEnv(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg := Default()

	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %q: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %q: %w", path, err)
		}
	}

	if err := applyEnv(&cfg, lookup); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	textVars := map[string]*string{
		"ENV":              &cfg.App.Env,
		"LOG_LEVEL":        &cfg.App.LogLevel,
		"PLATFORM":         &cfg.App.Platform,
		"ADDR":             &cfg.Server.Addr,
		"STORAGE_DRIVER":   &cfg.Storage.Driver,
		"SQLITE_PATH":      &cfg.Storage.SQLitePath,
		"REDIS_ADDR":       &cfg.Storage.RedisAddr,
		"REDIS_PASSWORD":   &cfg.Storage.RedisPassword,
		"REDIS_KEY":        &cfg.Storage.RedisKey,
		"CONTACT_ENDPOINT": &cfg.Contact.Endpoint,
		"OPENTDB_URL":      &cfg.OpenTDB.BaseURL,
	}
	for name, target := range textVars {
		if value, ok := lookup(envPrefix + name); ok {
			*target = value
		}
	}

	durations := map[string]*time.Duration{
		"CHAT_DELAY":   &cfg.Simulation.ChatDelay,
		"VOICE_DELAY":  &cfg.Simulation.VoiceDelay,
		"UPLOAD_DELAY": &cfg.Simulation.UploadDelay,

		"SESSION_IDLE_TIMEOUT": &cfg.Quiz.SessionIdleTimeout,
		"RESULT_RETENTION":     &cfg.Quiz.ResultRetention,
	}
	for name, target := range durations {
		value, ok := lookup(envPrefix + name)
		if !ok {
			continue
		}
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*target = parsed
	}

	if value, ok := lookup(envPrefix + "REDIS_DB"); ok {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%sREDIS_DB: %w", envPrefix, err)
		}
		cfg.Storage.RedisDB = parsed
	}

	if value, ok := lookup(envPrefix + "FAILURE_RATE"); ok {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%sFAILURE_RATE: %w", envPrefix, err)
		}
		cfg.Simulation.FailureRate = parsed
	}

	return nil
}
