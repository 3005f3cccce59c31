package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type ReloadCfg struct {
	Enabled bool
	Topic   string
	Brokers string
	GroupID string
}

type Config struct {
	Addr           string
	LogLevel       string
	LogConsole     bool
	RedisAddr      string
	SnapshotTTL    time.Duration
	SnapshotOpTO   time.Duration
	RegistrySize   int
	ManifestPath   string
	MetricsEnabled bool
	Reload         ReloadCfg
	// Backward iteration knobs; zero keeps the transformer defaults.
	MaxIterations int
	Tolerance     float64
}

func FromEnv() Config {
	size := getint("REGISTRY_SIZE", 8)
	if size < 1 {
		size = 1
	}
	brokers := getenv("KAFKA_BROKERS", "localhost:9092")

	return Config{
		Addr:           getenv("ADDR", ":8090"),
		LogLevel:       getenv("LOG_LEVEL", "info"),
		LogConsole:     getbool("LOG_CONSOLE", false),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		SnapshotTTL:    getduration("SNAPSHOT_TTL", 24*time.Hour),
		SnapshotOpTO:   getduration("SNAPSHOT_OP_TIMEOUT", 2*time.Second),
		RegistrySize:   size,
		ManifestPath:   getenv("MANIFEST_PATH", "gridshift.yaml"),
		MetricsEnabled: getbool("METRICS_ENABLED", true),
		Reload: ReloadCfg{
			Enabled: getbool("RELOAD_ENABLED", false),
			Topic:   getenv("KAFKA_TOPIC", "gridshift-reload"),
			Brokers: brokers,
			GroupID: getenv("KAFKA_GROUP_ID", "gridshift"),
		},
		MaxIterations: getint("BACKWARD_MAX_ITERATIONS", 0),
		Tolerance:     getfloat("BACKWARD_TOLERANCE", 0),
	}
}

// BrokerList splits the comma separated broker string.
func (r ReloadCfg) BrokerList() []string {
	var out []string
	for b := range strings.SplitSeq(r.Brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
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
