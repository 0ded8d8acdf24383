package config

import (
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATA_DIR", "TOP_N", "NEAR_THRESHOLD_METERS", "STORAGE_TYPE", "PORT", "CORS_ALLOWED_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "../data/", cfg.DataDir)
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 200.0, cfg.NearThresholdMeters)
	assert.Equal(t, "local", cfg.StorageType)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/srv/trips")
	t.Setenv("TOP_N", "25")
	t.Setenv("NEAR_THRESHOLD_METERS", "402.3")
	t.Setenv("FILE_LIMIT", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")

	cfg := Load()
	assert.Equal(t, "/srv/trips", cfg.DataDir)
	assert.Equal(t, 25, cfg.TopN)
	assert.InDelta(t, 402.3, cfg.NearThresholdMeters, 1e-9)
	assert.Equal(t, 3, cfg.FileLimit)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoad_BadNumbersFallBack(t *testing.T) {
	t.Setenv("TOP_N", "ten")
	t.Setenv("NEAR_THRESHOLD_METERS", "far")

	cfg := Load()
	assert.Equal(t, 10, cfg.TopN)
	assert.Equal(t, 200.0, cfg.NearThresholdMeters)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{
		DataDir:             "",
		StationsFile:        "stations.csv",
		TopN:                0,
		NearThresholdMeters: -1,
		FileLimit:           -2,
		StorageType:         "s3",
	}

	err := cfg.Validate()
	require.Error(t, err)

	var merr *multierror.Error
	require.ErrorAs(t, err, &merr)
	assert.Len(t, merr.Errors, 5)
	assert.Contains(t, err.Error(), "STORAGE_TYPE")
}
