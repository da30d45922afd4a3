package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storelink/transfer-api/pkg/logger"
)

func TestNew_ProductionEmitsJSONWithServiceField(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Service: "transfer-api", Out: &buf})
	log.Info().Msg("starting application")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "transfer-api", entry["service"])
	assert.Equal(t, "starting application", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestComponent_TagsSublogger(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "info", Out: &buf})
	log.Component("dispatcher").Warn().Msg("claim failed")

	assert.Contains(t, buf.String(), `"component":"dispatcher"`)
}

func TestNew_LevelFiltersLowerEntries(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(logger.Config{Env: "production", Level: "error", Out: &buf})
	log.Info().Msg("suppressed")

	assert.Empty(t, buf.Bytes())
}
