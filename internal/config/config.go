package config

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	OracleRandom = "random"
	OracleLLM    = "llm"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	LogLevel  string    `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort  string    `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	Redis     Redis     `yaml:"redis"`
	HTTP      HTTP      `yaml:"http"`
	Game      Game      `yaml:"game"`
	Oracle    Oracle    `yaml:"oracle"`
	Telemetry Telemetry `yaml:"telemetry"`
}

type Redis struct {
	Enabled     bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env:"REDIS_SNAPSHOT_TTL" env-default:"24h"`
}

type HTTP struct {
	AllowedOrigins    []string `yaml:"allowed-origins" env:"HTTP_ALLOWED_ORIGINS" env-default:"*"`
	RequestsPerSecond float64  `yaml:"requests-per-second" env:"HTTP_REQUESTS_PER_SECOND" env-default:"10"`
	Burst             int      `yaml:"burst" env:"HTTP_BURST" env-default:"20"`
}

type Game struct {
	Width        int           `yaml:"width" env:"GAME_WIDTH" env-default:"50"`
	Height       int           `yaml:"height" env:"GAME_HEIGHT" env-default:"40"`
	StepsPerTurn int           `yaml:"steps-per-turn" env:"GAME_STEPS_PER_TURN" env-default:"20"`
	TickInterval time.Duration `yaml:"tick-interval" env:"GAME_TICK_INTERVAL" env-default:"100ms"`
	MaxTurns     int           `yaml:"max-turns" env:"GAME_MAX_TURNS" env-default:"10"`
	LogSize      int           `yaml:"log-size" env:"GAME_LOG_SIZE" env-default:"10"`
	Autostart    bool          `yaml:"autostart" env:"GAME_AUTOSTART" env-default:"false"`
}

type Oracle struct {
	Kind          string        `yaml:"kind" env:"ORACLE_KIND" env-default:"random"`
	Seed          uint64        `yaml:"seed" env:"ORACLE_SEED" env-default:"1"`
	Timeout       time.Duration `yaml:"timeout" env:"ORACLE_TIMEOUT" env-default:"20s"`
	RatePerSecond float64       `yaml:"rate-per-second" env:"ORACLE_RATE_PER_SECOND" env-default:"1"`
	Burst         int           `yaml:"burst" env:"ORACLE_BURST" env-default:"2"`
	LLM           LLM           `yaml:"llm"`
}

type LLM struct {
	URL         string  `yaml:"url" env:"LLM_URL" env-default:"https://api.openai.com/v1/responses"`
	Model       string  `yaml:"model" env:"LLM_MODEL"`
	APIKey      string  `yaml:"api-key" env:"LLM_API_KEY"`
	Temperature float64 `yaml:"temperature" env:"LLM_TEMPERATURE" env-default:"0.9"`
}

type Telemetry struct {
	Enabled     bool   `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	Endpoint    string `yaml:"endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"http://localhost:4318"`
	ServiceName string `yaml:"service-name" env:"OTEL_SERVICE_NAME" env-default:"lifebattle-backend"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	if err := config.Validate(); err != nil {
		panic(err)
	}

	return config
}

// Validate rejects settings the game cannot run with.
func (that *Config) Validate() error {
	if _, err := that.SlogLevel(); err != nil {
		return err
	}

	switch {
	case that.Game.Width <= 0 || that.Game.Height <= 0:
		return fmt.Errorf("%w: grid size %dx%d", ErrInvalidConfig, that.Game.Width, that.Game.Height)
	case that.Game.StepsPerTurn <= 0:
		return fmt.Errorf("%w: steps-per-turn must be positive", ErrInvalidConfig)
	case that.Game.MaxTurns <= 0:
		return fmt.Errorf("%w: max-turns must be positive", ErrInvalidConfig)
	case that.Game.TickInterval <= 0:
		return fmt.Errorf("%w: tick-interval must be positive", ErrInvalidConfig)
	}

	switch that.Oracle.Kind {
	case OracleRandom:
	case OracleLLM:
		if that.Oracle.LLM.URL == "" || that.Oracle.LLM.Model == "" || that.Oracle.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm oracle needs url, model and api-key", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown oracle kind %q", ErrInvalidConfig, that.Oracle.Kind)
	}

	return nil
}

// SlogLevel parses LogLevel: debug, info, warn or error.
func (that *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(that.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log-level %q", ErrInvalidConfig, that.LogLevel)
	}

	return level, nil
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
