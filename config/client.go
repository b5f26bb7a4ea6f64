package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// ClientConfig configures the logctl command line client.
type ClientConfig struct {
	APIBaseURL string
	StateFile  string
	Timeout    time.Duration
	Kafka      KafkaConfig
	Ingest     IngestConfig
	LogLevel   string
	PerPage    int
}

func defaultStateFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".logctl-state.json"
	}
	return filepath.Join(home, ".logctl", "state.json")
}

// NewClientConfig reads LOGCTL_* variables (and a .env file when present).
// It uses its own viper instance so flags can bind to it without touching
// the server's global one.
func NewClientConfig() *ClientConfig {
	v := viper.New()
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AutomaticEnv()

	v.SetDefault("LOGCTL_API_URL", "http://localhost:8080/api/v1")
	v.SetDefault("LOGCTL_STATE_FILE", defaultStateFile())
	v.SetDefault("LOGCTL_TIMEOUT", "30s")
	v.SetDefault("LOGCTL_LOG_LEVEL", "warn")
	v.SetDefault("LOGCTL_PER_PAGE", 50)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_LOG_TOPIC", "admin_log_records")
	v.SetDefault("INGEST_BATCH_SIZE", 100)
	v.SetDefault("INGEST_MAX_BATCH_WAIT", "1s")

	// a missing .env is normal for the CLI
	_ = v.ReadInConfig()

	return &ClientConfig{
		APIBaseURL: v.GetString("LOGCTL_API_URL"),
		StateFile:  v.GetString("LOGCTL_STATE_FILE"),
		Timeout:    v.GetDuration("LOGCTL_TIMEOUT"),
		LogLevel:   v.GetString("LOGCTL_LOG_LEVEL"),
		PerPage:    v.GetInt("LOGCTL_PER_PAGE"),
		Kafka: KafkaConfig{
			Brokers:  splitList(v.GetString("KAFKA_BROKERS")),
			LogTopic: v.GetString("KAFKA_LOG_TOPIC"),
		},
		Ingest: IngestConfig{
			BatchSize:    v.GetInt("INGEST_BATCH_SIZE"),
			MaxBatchWait: v.GetDuration("INGEST_MAX_BATCH_WAIT"),
		},
	}
}
