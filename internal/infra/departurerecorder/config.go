package departurerecorder

import (
	"os"
	"strconv"
)

type Config struct {
	Disabled bool
	// BufferSize bounds the queue in front of the backend writer.
	BufferSize int

	InfluxDBURL    string
	InfluxDBToken  string
	InfluxDBOrg    string
	InfluxDBBucket string

	BigQueryProjectID string
	BigQueryDataset   string
	BigQueryTable     string
	BigQueryEndpoint  string
}

func LoadConfig() *Config {
	return &Config{
		Disabled:   os.Getenv("DEPARTURE_EVENTS_DISABLED") == "true",
		BufferSize: getEnvIntOrDefault("DEPARTURE_EVENTS_BUFFER", DefaultBufferSize),

		InfluxDBURL:    getEnvOrDefault("INFLUXDB_URL", "http://localhost:8086"),
		InfluxDBToken:  os.Getenv("INFLUXDB_TOKEN"),
		InfluxDBOrg:    os.Getenv("INFLUXDB_ORG"),
		InfluxDBBucket: getEnvOrDefault("INFLUXDB_BUCKET", "departure_events"),

		BigQueryProjectID: getEnvOrDefault("BIGQUERY_PROJECT_ID", os.Getenv("GOOGLE_CLOUD_PROJECT")),
		BigQueryDataset:   getEnvOrDefault("BIGQUERY_DATASET", "last_train"),
		BigQueryTable:     getEnvOrDefault("BIGQUERY_TABLE", "departure_events"),
		BigQueryEndpoint:  os.Getenv("BIGQUERY_ENDPOINT"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}
