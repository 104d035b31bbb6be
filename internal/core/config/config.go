package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type InvalidationCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr     string
	LogLevel string

	// engine/query defaults resolved by the HTTP layer
	DefaultRadiusKm float64
	MaxRadiusKm     float64
	BucketLimit     int
	TimeLocation    string

	// geo index
	H3Res int

	// query result cache
	CacheEnabled   bool
	RedisAddr      string
	CacheTTL       time.Duration
	CacheOpTimeout time.Duration
	LocalCacheSize int

	SeedPath string

	Invalidation InvalidationCfg
}

func FromEnv() Config {
	res := getint("H3_RES", 9)
	if res < 0 {
		res = 0
	}
	if res > 15 {
		res = 15
	}

	defRadius := getfloat("DEFAULT_RADIUS_KM", 2)
	maxRadius := getfloat("MAX_RADIUS_KM", 25)
	if maxRadius < defRadius {
		maxRadius = defRadius
	}

	return Config{
		Addr:     getenv("ADDR", ":8090"),
		LogLevel: getenv("LOG_LEVEL", "info"),

		DefaultRadiusKm: defRadius,
		MaxRadiusKm:     maxRadius,
		BucketLimit:     getint("BUCKET_LIMIT", 50),
		TimeLocation:    getenv("TIME_LOCATION", "Asia/Singapore"),

		H3Res: res,

		CacheEnabled:   getbool("CACHE_ENABLED", false),
		RedisAddr:      getenv("REDIS_ADDR", "localhost:6379"),
		CacheTTL:       getduration("CACHE_TTL", 30*time.Second),
		CacheOpTimeout: getduration("CACHE_OP_TIMEOUT", 250*time.Millisecond),
		LocalCacheSize: getint("LOCAL_CACHE_SIZE", 1024),

		SeedPath: getenv("SEED_PATH", ""),

		Invalidation: InvalidationCfg{
			Enabled: getbool("INVALIDATION_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "deal-changes"),
			Brokers: getenv("KAFKA_BROKERS", "localhost:9092"),
			GroupID: getenv("KAFKA_GROUP_ID", "deal-cache-invalidator"),
		},
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v := os.Getenv(k); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
