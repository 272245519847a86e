package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Contabilidad-api/pkg/logger"
)

func TestParseLevel_ValoresYDefecto(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, logger.ParseLevel("debug"))
	assert.Equal(t, zerolog.WarnLevel, logger.ParseLevel(" WARN "))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, logger.ParseLevel("verboso"))
}

func TestNewWithWriter_JSONConAppYComponente(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter(logger.Config{Env: "production", Level: "info", App: "contabilidad"}, &buf)
	cl := logger.Component(l, "ledger")
	cl.Info().Str("transaction_id", "tx-1").Msg("posted")
	l.Debug().Msg("no debe salir")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "contabilidad", entry["app"])
	assert.Equal(t, "ledger", entry["component"])
	assert.Equal(t, "tx-1", entry["transaction_id"])
	assert.Equal(t, "posted", entry["message"])
}
