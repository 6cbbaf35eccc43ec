package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds every runtime setting of the server
type Config struct {
	Addr             string
	DataDir          string
	QuestionsFile    string // empty means the embedded pool
	QuestionCount    int
	GraceDelay       time.Duration
	Retention        time.Duration
	PointsPerCorrect int
	WinBonus         int
	TieBonus         int
	JWTSecret        string // empty means a random key persisted in DataDir
	TokenTTL         time.Duration
	AllowedOrigins   []string
	LogLevel         string
	LogFormat        string
}

// Load reads .env when present, then the environment
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from getenv, applying defaults for unset keys
func FromEnv(getenv func(string) string) (*Config, error) {
	e := env{get: getenv}
	cfg := &Config{
		Addr:             e.str("QUIZDUEL_ADDR", ":8090"),
		DataDir:          e.str("QUIZDUEL_DATA_DIR", "data"),
		QuestionsFile:    e.str("QUIZDUEL_QUESTIONS_FILE", ""),
		QuestionCount:    e.integer("QUIZDUEL_QUESTION_COUNT", 10),
		GraceDelay:       e.duration("QUIZDUEL_GRACE_DELAY", 3*time.Second),
		Retention:        e.duration("QUIZDUEL_RETENTION", 5*time.Minute),
		PointsPerCorrect: e.integer("QUIZDUEL_POINTS_PER_CORRECT", 10),
		WinBonus:         e.integer("QUIZDUEL_WIN_BONUS", 50),
		TieBonus:         e.integer("QUIZDUEL_TIE_BONUS", 0),
		JWTSecret:        e.str("QUIZDUEL_JWT_SECRET", ""),
		TokenTTL:         e.duration("QUIZDUEL_TOKEN_TTL", 7*24*time.Hour),
		AllowedOrigins:   e.list("QUIZDUEL_ALLOWED_ORIGINS", []string{"*"}),
		LogLevel:         e.str("LOG_LEVEL", "info"),
		LogFormat:        strings.ToLower(e.str("LOG_FORMAT", "text")),
	}
	if e.err != nil {
		return nil, e.err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.QuestionCount <= 0 {
		return fmt.Errorf("QUIZDUEL_QUESTION_COUNT must be positive, got %d", c.QuestionCount)
	}
	if c.GraceDelay <= 0 || c.Retention <= 0 || c.TokenTTL <= 0 {
		return fmt.Errorf("durations must be positive")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

// env reads typed values and keeps the first parse error
type env struct {
	get func(string) string
	err error
}

func (e *env) str(key, fallback string) string {
	if v := strings.TrimSpace(e.get(key)); v != "" {
		return v
	}
	return fallback
}

func (e *env) integer(key string, fallback int) int {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: invalid integer %q", key, v)
	}
	return n
}

func (e *env) duration(key string, fallback time.Duration) time.Duration {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && e.err == nil {
		e.err = fmt.Errorf("%s: invalid duration %q", key, v)
	}
	return d
}

func (e *env) list(key string, fallback []string) []string {
	v := e.str(key, "")
	if v == "" {
		return fallback
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
