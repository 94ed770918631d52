package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port             int
	DatabaseURL      string
	NatsURL          string
	NatsToken        string
	LogLevel         string
	AnthropicAPIKey  string
	AnthropicModel   string
	DefaultChannel   string
	MessageChunkSize int
	AnalyzerPool     int
	AnalyzerPauseSec int
	AnalyzeEverySec  int
	StatePath        string
	StatsTTLSec      int
}

func Load() Config {
	return Config{
		Port:             envInt("CHATSIGHT_PORT", 8460),
		DatabaseURL:      envStr("DATABASE_URL", ""),
		NatsURL:          envStr("NATS_URL", "nats://localhost:4222"),
		NatsToken:        envStr("NATS_TOKEN", ""),
		LogLevel:         envStr("LOG_LEVEL", "info"),
		AnthropicAPIKey:  envStr("ANTHROPIC_API_KEY", ""),
		AnthropicModel:   envStr("CHATSIGHT_MODEL", "claude-sonnet-4-20250514"),
		DefaultChannel:   envStr("CHATSIGHT_CHANNEL", "webchat"),
		MessageChunkSize: envInt("CHATSIGHT_MESSAGE_CHUNK", 200),
		AnalyzerPool:     envInt("CHATSIGHT_ANALYZER_POOL", 10),
		AnalyzerPauseSec: envInt("CHATSIGHT_ANALYZER_PAUSE", 2),
		AnalyzeEverySec:  envInt("CHATSIGHT_ANALYZE_EVERY", 300),
		StatePath:        envStr("CHATSIGHT_STATE_PATH", ""),
		StatsTTLSec:      envInt("CHATSIGHT_STATS_TTL", 60),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
