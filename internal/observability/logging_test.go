package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/snowsync/internal/config"
)

func TestFunctionLoggerNamesAndTagsStage(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)

	FunctionLogger(zap.New(core), "s3-to-jsd", "uat").Info("bucket event processed")

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "s3-to-jsd", entries[0].LoggerName)
	assert.Equal(t, "uat", entries[0].ContextMap()["stage"])
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, logger.Core().Enabled(zapcore.DebugLevel))
}
