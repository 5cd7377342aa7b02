package zerologadapters_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/libretrack/borrowing-analytics-go/recordstore/zerologadapters"
)

func Test_Logger_WritesKeyValuePairsAsFields(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := zerologadapters.NewLogger(zerolog.New(&buf))

	// act
	logger.Info("query handler completed", "query_type", "BookCopiesStatus", "duration_ms", 1.5)

	// assert
	output := buf.String()
	assert.Contains(t, output, `"message":"query handler completed"`)
	assert.Contains(t, output, `"query_type":"BookCopiesStatus"`)
	assert.Contains(t, output, `"duration_ms":1.5`)
}

func Test_Logger_KeepsTrailingArgWithoutKey(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	logger := zerologadapters.NewLogger(zerolog.New(&buf))

	// act
	logger.Warn("odd args", "dangling")

	// assert
	assert.Contains(t, buf.String(), `"arg":"dangling"`)
}

func Test_ContextualLogger_PrefersContextLogger(t *testing.T) {
	// arrange
	var fallbackBuf, ctxBuf bytes.Buffer
	contextual := zerologadapters.NewContextualLogger(zerolog.New(&fallbackBuf))

	requestLogger := zerolog.New(&ctxBuf).With().Str("request_id", "r-42").Logger()
	ctx := requestLogger.WithContext(context.Background())

	// act
	contextual.InfoContext(ctx, "query handler started", "query_type", "AllBooks")

	// assert
	assert.Empty(t, fallbackBuf.String())
	assert.Contains(t, ctxBuf.String(), `"request_id":"r-42"`)
	assert.Contains(t, ctxBuf.String(), `"query_type":"AllBooks"`)
}

func Test_ContextualLogger_FallsBackWithoutContextLogger(t *testing.T) {
	// arrange
	var buf bytes.Buffer
	contextual := zerologadapters.NewContextualLogger(zerolog.New(&buf))

	// act
	contextual.ErrorContext(context.Background(), "query handler failed", "error", "boom")

	// assert
	assert.Contains(t, buf.String(), `"query handler failed"`)
	assert.Contains(t, buf.String(), `"error":"boom"`)
}

func Test_ParseLevel_DefaultsToInfo(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, zerologadapters.ParseLevel("nonsense"))
	assert.Equal(t, zerolog.DebugLevel, zerologadapters.ParseLevel("debug"))
}
