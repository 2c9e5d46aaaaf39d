package config

import (
	"os"
	"strconv"
	"time"

	// this will automatically load your .env file:
	_ "github.com/joho/godotenv/autoload"
)

type Config struct {
	Server ServerConfig
	Logs   LogConfig
	Engine EngineConfig
}

type ServerConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string
	Pretty bool
}

type EngineConfig struct {
	Path           string
	Depth          int           // default analysis depth
	MoveTime       time.Duration // search budget for full-strength play
	QueueTimeout   time.Duration // per-request budget on the command queue
	RestartBackoff time.Duration // wait between crash and respawn
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Addr: envString("SERVER_ADDR", "0.0.0.0:8080"),
		},
		Logs: LogConfig{
			Level:  envString("LOG_LEVEL", "info"),
			Pretty: envBool("LOG_PRETTY", false),
		},
		Engine: EngineConfig{
			Path:           envString("ENGINE_PATH", "stockfish"),
			Depth:          envInt("ENGINE_DEPTH", 12),
			MoveTime:       envMillis("ENGINE_MOVE_TIME_MS", 1000*time.Millisecond),
			QueueTimeout:   envMillis("ENGINE_QUEUE_TIMEOUT_MS", 10*time.Second),
			RestartBackoff: envMillis("ENGINE_RESTART_BACKOFF_MS", time.Second),
		},
	}
	return cfg, nil
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// envMillis reads a millisecond count, matching how the engine's own
// movetime parameter is expressed.
func envMillis(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
