package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment names
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Config 应用配置
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string
	Env       string
	LogLevel  string

	// 认证
	AuthEnabled bool

	// 输出目录，渲染结果写入这里
	OutputDir string

	// 瓦片
	TileURL       string
	TileCacheDir  string
	TileUserAgent string
	MaxTiles      int

	// 每个客户端（JWT subject 或 IP）在窗口内的最大渲染请求数，0 表示不限
	RateLimit       int
	RateLimitWindow time.Duration

	// MQTT，Broker 为空时不发布事件
	MQTTBroker   string
	MQTTPort     int
	MQTTClientID string

	TracingEnabled     bool
	TracingSampleRatio float64
}

// Load 加载配置
func Load() *Config {
	return &Config{
		Port:      getEnv("PORT", ":8080"),
		DBPath:    getEnv("DB_PATH", "./data/maps/maps.db"),
		JWTSecret: getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		Env:       getEnv("APP_ENV", EnvDevelopment),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		AuthEnabled: getEnvBool("AUTH_ENABLED", false),

		OutputDir: getEnv("OUTPUT_DIR", "./data/maps/output"),

		TileURL:       getEnv("TILE_URL", ""),
		TileCacheDir:  getEnv("TILE_CACHE_DIR", ""),
		TileUserAgent: getEnv("TILE_USER_AGENT", ""),
		MaxTiles:      getEnvInt("MAX_TILES", 256),

		RateLimit:       getEnvInt("RATE_LIMIT", 60),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW", time.Minute),

		MQTTBroker:   getEnv("MQTT_BROKER", ""),
		MQTTPort:     getEnvInt("MQTT_PORT", 1883),
		MQTTClientID: getEnv("MQTT_CLIENT_ID", "measurement-map"),

		TracingEnabled:     getEnvBool("TRACING_ENABLED", false),
		TracingSampleRatio: getEnvFloat("TRACING_SAMPLE_RATIO", 1.0),
	}
}

// IsProduction reports whether APP_ENV is production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, EnvProduction)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration 解析 "90s"、"5m" 之类的时长，格式错误时使用默认值
func getEnvDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}
