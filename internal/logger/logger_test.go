package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONCarriesServiceField(t *testing.T) {
	l := New("trade", "debug", "json")
	var buf bytes.Buffer
	l.Logger.SetOutput(&buf)

	l.WithField("trade_id", 7).Info("trade created")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "trade", entry["service"])
	assert.Equal(t, float64(7), entry["trade_id"])
	assert.Equal(t, "trade created", entry["msg"])
	assert.Equal(t, logrus.DebugLevel, l.Logger.GetLevel())
}

func TestNewFallsBackToInfo(t *testing.T) {
	l := New("catalog", "loud", "text")
	assert.Equal(t, logrus.InfoLevel, l.Logger.GetLevel())
}

func TestNamedKeepsOutput(t *testing.T) {
	l := New("api", "info", "json")
	var buf bytes.Buffer
	l.Logger.SetOutput(&buf)

	l.Named("collection").Info("hello")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "collection", entry["service"])
}
