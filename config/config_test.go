package config

import (
	"path/filepath"
	"testing"
	"time"

	"sjsage522/carlistingworker/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, SiteAutoESA, config.Site)
	assert.Equal(t, 50, config.TargetCount)
	assert.Equal(t, 5, config.MaxPages)
	assert.Equal(t, 10, config.MaxWorkers)
	assert.Nil(t, config.MinPrice)
	assert.Nil(t, config.MaxPrice)
	assert.Equal(t, 10*time.Second, config.RequestTimeout)
	assert.Equal(t, 2*time.Second, config.PageDelay)
	assert.Equal(t, "listings", config.RedisStream)
	assert.False(t, config.StopOnBarrenPage)
	assert.NoError(t, config.Validate())

	// Test with environment variables
	t.Setenv("SITE", "Sauto")
	t.Setenv("BRAND", " Skoda ")
	t.Setenv("NUM_LISTINGS", "1100")
	t.Setenv("MAX_PAGES", "9999")
	t.Setenv("MAX_WORKERS", "12")
	t.Setenv("MIN_PRICE", "1800000")
	t.Setenv("MAX_PRICE", "2000000")
	t.Setenv("OUTPUT_DIR", "/data")
	t.Setenv("STOP_ON_BARREN_PAGE", "true")

	config = LoadConfig()
	assert.Equal(t, SiteSauto, config.Site)
	assert.Equal(t, "skoda", config.Brand)
	assert.Equal(t, 1100, config.TargetCount)
	assert.Equal(t, 9999, config.MaxPages)
	assert.Equal(t, 12, config.MaxWorkers)
	require.NotNil(t, config.MinPrice)
	require.NotNil(t, config.MaxPrice)
	assert.Equal(t, 1800000, *config.MinPrice)
	assert.Equal(t, 2000000, *config.MaxPrice)
	assert.Equal(t, filepath.Join("/data", "auta_sauto.csv"), config.StorePath())
	assert.True(t, config.StopOnBarrenPage)
	assert.NoError(t, config.Validate())
}

func TestValidateReportsEveryProblem(t *testing.T) {
	t.Setenv("NUM_LISTINGS", "0")
	t.Setenv("MAX_PAGES", "-1")
	t.Setenv("MIN_PRICE", "500")
	t.Setenv("MAX_PRICE", "100")

	err := LoadConfig().Validate()
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfiguration))
	assert.Contains(t, err.Error(), "NUM_LISTINGS must be positive")
	assert.Contains(t, err.Error(), "MAX_PAGES must be positive")
	assert.Contains(t, err.Error(), "MIN_PRICE must be lower than MAX_PRICE")
}

func TestValidateRejectsGarbage(t *testing.T) {
	t.Setenv("MAX_WORKERS", "ten")
	t.Setenv("STOP_ON_BARREN_PAGE", "sometimes")
	t.Setenv("SITE", "bazos")

	err := LoadConfig().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `MAX_WORKERS must be an integer, got "ten"`)
	assert.Contains(t, err.Error(), `STOP_ON_BARREN_PAGE must be a boolean, got "sometimes"`)
	assert.Contains(t, err.Error(), `SITE must be`)
}

func TestValidateNegativeMinPrice(t *testing.T) {
	t.Setenv("MIN_PRICE", "-5")

	err := LoadConfig().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MIN_PRICE must not be negative")
}
