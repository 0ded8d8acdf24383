package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the analysis tools
type Config struct {
	// Inputs
	DataDir       string
	StationsFile  string
	ReferenceFile string
	WindowsFile   string

	// Analysis
	TopN                int
	NearThresholdMeters float64
	FileLimit           int

	// Outputs
	DatabasePath    string
	OutputDir       string
	MetricsTextfile string

	// Object storage
	StorageType        string
	StorageBaseDir     string
	GCSCredentialsFile string

	// Results API
	Port           string
	AllowedOrigins []string
}

// LoadDotEnv loads .env and then .env.local (which overrides) if present.
// Missing files are not an error.
func LoadDotEnv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	return &Config{
		// Inputs
		DataDir:       getEnv("DATA_DIR", "../data/"),
		StationsFile:  getEnv("STATIONS_FILE", "../misc/Capital_Bike_Share_Locations.csv"),
		ReferenceFile: getEnv("REFERENCE_FILE", "../misc/Metro_Stations_in_DC.geojson"),
		WindowsFile:   getEnv("WINDOWS_FILE", ""),

		// Analysis
		TopN:                getEnvInt("TOP_N", 10),
		NearThresholdMeters: getEnvFloat("NEAR_THRESHOLD_METERS", 200),
		FileLimit:           getEnvInt("FILE_LIMIT", 0),

		// Outputs
		DatabasePath:    getEnv("SQLITE_DATABASE", "../data/bikeshare.db"),
		OutputDir:       getEnv("OUTPUT_DIR", "../output"),
		MetricsTextfile: getEnv("METRICS_TEXTFILE", ""),

		// Object storage
		StorageType:        getEnv("STORAGE_TYPE", "local"),
		StorageBaseDir:     getEnv("STORAGE_BASE_DIR", "../output/buckets"),
		GCSCredentialsFile: getEnv("GCS_CREDENTIALS_FILE", ""),

		// Results API
		Port:           getEnv("PORT", "8081"),
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
	}
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result error
	if c.DataDir == "" {
		result = multierror.Append(result, fmt.Errorf("DATA_DIR must be set"))
	}
	if c.StationsFile == "" {
		result = multierror.Append(result, fmt.Errorf("STATIONS_FILE must be set"))
	}
	if c.TopN <= 0 {
		result = multierror.Append(result, fmt.Errorf("TOP_N must be positive, got %d", c.TopN))
	}
	if c.NearThresholdMeters <= 0 {
		result = multierror.Append(result, fmt.Errorf("NEAR_THRESHOLD_METERS must be positive, got %g", c.NearThresholdMeters))
	}
	if c.FileLimit < 0 {
		result = multierror.Append(result, fmt.Errorf("FILE_LIMIT must not be negative, got %d", c.FileLimit))
	}
	switch c.StorageType {
	case "local", "gcs":
	default:
		result = multierror.Append(result, fmt.Errorf("STORAGE_TYPE must be local or gcs, got %q", c.StorageType))
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
