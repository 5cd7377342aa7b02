package wiring_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/libretrack/borrowing-analytics-go/internal/config"
	"github.com/libretrack/borrowing-analytics-go/internal/wiring"
)

func Test_BuildRecordStore_RejectsUnsupportedEngine(t *testing.T) {
	// arrange
	cfg := config.Config{}
	cfg.Store.Engine = "cockroach"

	// act
	_, _, err := wiring.BuildRecordStore(context.Background(), cfg, wiring.EngineOptions{})

	// assert
	assert.ErrorIs(t, err, config.ErrUnsupportedEngine)
}

func Test_BuildRecordStore_RejectsUnsupportedPostgresDriver(t *testing.T) {
	// arrange
	cfg := config.Config{}
	cfg.Store.Engine = config.EnginePostgres
	cfg.Store.PostgresDriver = "odbc"

	// act
	_, _, err := wiring.BuildRecordStore(context.Background(), cfg, wiring.EngineOptions{})

	// assert
	assert.ErrorIs(t, err, config.ErrUnsupportedPostgresDriver)
}
