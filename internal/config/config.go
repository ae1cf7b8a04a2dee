package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
	"github.com/rocketscienceinc/tictactoe-engine/internal/tictactoe"
)

var ErrUnknownLogLevel = errors.New("unknown log level")

type Config struct {
	LogLevel string `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	Game     Game   `yaml:"game"`
	Redis    Redis  `yaml:"redis"`
}

type Game struct {
	StartingPlayer string `yaml:"starting-player" env:"GAME_STARTING_PLAYER" env-default:"X"`
	RestartPolicy  string `yaml:"restart-policy" env:"GAME_RESTART_POLICY" env-default:"alternate"`
}

type Redis struct {
	Enabled     bool          `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
	Host        string        `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port        string        `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	SnapshotTTL time.Duration `yaml:"snapshot-ttl" env:"REDIS_SNAPSHOT_TTL" env-default:"24h"`
}

// MustLoad - load configuration from the yml file at path, or from the environment alone
// when the file does not exist.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(fmt.Errorf("unable to load config: %w", err))
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err = cleanenv.ReadEnv(config); err != nil {
			return nil, fmt.Errorf("unable to read environment: %w", err)
		}
	} else if err = cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func (that *Config) Validate() error {
	switch that.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogLevel, that.LogLevel)
	}

	if _, err := that.Game.Starter(); err != nil {
		return fmt.Errorf("invalid starting player: %w", err)
	}

	if _, err := that.Game.Policy(); err != nil {
		return fmt.Errorf("invalid restart policy: %w", err)
	}

	return nil
}

func (that *Game) Starter() (entity.Player, error) {
	return entity.ParsePlayer(that.StartingPlayer)
}

func (that *Game) Policy() (tictactoe.RestartPolicy, error) {
	return tictactoe.ParseRestartPolicy(that.RestartPolicy)
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
