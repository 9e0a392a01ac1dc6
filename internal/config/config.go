package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	LogFormat    string // console | json
	MaxUploadMB  int
	LogFile      string

	// ассистент (OpenAI-совместимый API)
	OpenAIKey     string
	OpenAIBaseURL string
	OpenAIModel   string
	AssistTimeout time.Duration

	// источник конфигурации цен (redis, ключ -> JSON)
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	PricingConfigKey string
	ConfigTimeout    time.Duration

	// сервис эквивалентов
	EquivalenceURL string
	EquivalenceRPS float64

	Workers        int
	ProcessTimeout time.Duration
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8082"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "64"))
	redisDB, _ := strconv.Atoi(getenv("REDIS_DB", "0"))
	workers, _ := strconv.Atoi(getenv("WORKERS", "8"))
	rps, err := strconv.ParseFloat(getenv("EQUIVALENCE_RPS", "5"), 64)
	if err != nil || rps <= 0 {
		rps = 5
	}
	if workers <= 0 {
		workers = 8
	}
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		LogFormat:    strings.ToLower(getenv("LOG_FORMAT", "console")),
		MaxUploadMB:  mb,
		LogFile:      getenv("LOG_FILE", "logs/catalog-service.log"),

		OpenAIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIBaseURL: os.Getenv("OPENAI_BASE_URL"),
		OpenAIModel:   getenv("OPENAI_MODEL", "gpt-4o-mini"),
		AssistTimeout: getdur("ASSIST_TIMEOUT", 15*time.Second),

		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisPassword:    os.Getenv("REDIS_PASSWORD"),
		RedisDB:          redisDB,
		PricingConfigKey: getenv("PRICING_CONFIG_KEY", "catalog:pricing-config"),
		ConfigTimeout:    getdur("CONFIG_TIMEOUT", 10*time.Second),

		EquivalenceURL: os.Getenv("EQUIVALENCE_URL"),
		EquivalenceRPS: rps,

		Workers:        workers,
		ProcessTimeout: getdur("PROCESS_TIMEOUT", 30*time.Second),
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(getenv(k, ""))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
