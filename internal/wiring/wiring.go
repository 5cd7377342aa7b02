// Package wiring builds a record store engine from the service configuration.
// It is shared by the server and the seeding tool so both always agree on how
// an engine is constructed.
package wiring

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/libretrack/borrowing-analytics-go/analytics/shell"
	"github.com/libretrack/borrowing-analytics-go/internal/config"
	"github.com/libretrack/borrowing-analytics-go/recordstore"
	"github.com/libretrack/borrowing-analytics-go/recordstore/mongoengine"
	"github.com/libretrack/borrowing-analytics-go/recordstore/postgresengine"
)

// RecordStore is the full engine surface: the analytics read interface plus
// document insertion for the seeding tool.
type RecordStore interface {
	shell.ReadsRecords
	Insert(ctx context.Context, documents ...recordstore.StorableDocument) error
}

// Closer releases the underlying database connections.
type Closer func()

// EngineOptions carries the observability collaborators handed to the engine.
type EngineOptions struct {
	Logger           recordstore.Logger
	ContextualLogger recordstore.ContextualLogger
	MetricsCollector recordstore.MetricsCollector
	TracingCollector recordstore.TracingCollector
}

// BuildRecordStore constructs the engine selected in the configuration and
// returns it together with a Closer for the underlying connections.
func BuildRecordStore(ctx context.Context, cfg config.Config, opts EngineOptions) (RecordStore, Closer, error) {
	switch cfg.Store.Engine {
	case config.EnginePostgres:
		return buildPostgresStore(ctx, cfg, opts)
	case config.EngineMongo:
		return buildMongoStore(ctx, cfg, opts)
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnsupportedEngine, cfg.Store.Engine)
	}
}

// buildPostgresStore opens a connection with the configured driver adapter
// and hands it to the matching document store constructor.
func buildPostgresStore(ctx context.Context, cfg config.Config, opts EngineOptions) (RecordStore, Closer, error) {
	switch cfg.Store.PostgresDriver {
	case config.DriverPGX:
		return buildPostgresStoreOnPGXPool(ctx, cfg, opts)
	case config.DriverSQLDB:
		return buildPostgresStoreOnSQLDB(ctx, cfg, opts)
	case config.DriverSQLX:
		return buildPostgresStoreOnSQLX(ctx, cfg, opts)
	default:
		return nil, nil, fmt.Errorf("%w: %q", config.ErrUnsupportedPostgresDriver, cfg.Store.PostgresDriver)
	}
}

func buildPostgresStoreOnPGXPool(ctx context.Context, cfg config.Config, opts EngineOptions) (RecordStore, Closer, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.Store.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	if pingErr := pool.Ping(ctx); pingErr != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("pinging postgres: %w", pingErr)
	}

	store, err := postgresengine.NewDocumentStoreFromPGXPool(pool, postgresOptions(cfg, opts)...)
	if err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("building postgres document store: %w", err)
	}

	return store, pool.Close, nil
}

func buildPostgresStoreOnSQLDB(ctx context.Context, cfg config.Config, opts EngineOptions) (RecordStore, Closer, error) {
	db, err := sql.Open("postgres", cfg.Store.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	configureSQLPool(db)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("pinging postgres: %w", pingErr)
	}

	store, err := postgresengine.NewDocumentStoreFromSQLDB(db, postgresOptions(cfg, opts)...)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("building postgres document store: %w", err)
	}

	return store, func() { _ = db.Close() }, nil
}

func buildPostgresStoreOnSQLX(ctx context.Context, cfg config.Config, opts EngineOptions) (RecordStore, Closer, error) {
	db, err := sqlx.Open("postgres", cfg.Store.PostgresDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("opening postgres connection: %w", err)
	}

	configureSQLPool(db.DB)

	if pingErr := db.PingContext(ctx); pingErr != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("pinging postgres: %w", pingErr)
	}

	store, err := postgresengine.NewDocumentStoreFromSQLX(db, postgresOptions(cfg, opts)...)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("building postgres document store: %w", err)
	}

	return store, func() { _ = db.Close() }, nil
}

func configureSQLPool(db *sql.DB) {
	const defaultMaxOpenConnections = 50
	const defaultMaxIdleConnections = 10
	const defaultMaxConnLifetime = time.Hour
	const defaultMaxConnIdleTime = 5 * time.Minute

	db.SetMaxOpenConns(defaultMaxOpenConnections)
	db.SetMaxIdleConns(defaultMaxIdleConnections)
	db.SetConnMaxLifetime(defaultMaxConnLifetime)
	db.SetConnMaxIdleTime(defaultMaxConnIdleTime)
}

func postgresOptions(cfg config.Config, opts EngineOptions) []postgresengine.Option {
	options := make([]postgresengine.Option, 0, 5)

	if cfg.Store.TableName != "" {
		options = append(options, postgresengine.WithTableName(cfg.Store.TableName))
	}

	if opts.Logger != nil {
		options = append(options, postgresengine.WithLogger(opts.Logger))
	}

	if opts.ContextualLogger != nil {
		options = append(options, postgresengine.WithContextualLogger(opts.ContextualLogger))
	}

	if opts.MetricsCollector != nil {
		options = append(options, postgresengine.WithMetrics(opts.MetricsCollector))
	}

	if opts.TracingCollector != nil {
		options = append(options, postgresengine.WithTracing(opts.TracingCollector))
	}

	return options
}

func buildMongoStore(ctx context.Context, cfg config.Config, opts EngineOptions) (RecordStore, Closer, error) {
	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(cfg.Store.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	if pingErr := client.Ping(ctx, nil); pingErr != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("pinging mongodb: %w", pingErr)
	}

	store, err := mongoengine.NewDocumentStore(client.Database(cfg.Store.MongoDatabase), mongoOptions(opts)...)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("building mongodb document store: %w", err)
	}

	closer := func() { _ = client.Disconnect(context.Background()) }

	return store, closer, nil
}

func mongoOptions(opts EngineOptions) []mongoengine.Option {
	options := make([]mongoengine.Option, 0, 4)

	if opts.Logger != nil {
		options = append(options, mongoengine.WithLogger(opts.Logger))
	}

	if opts.ContextualLogger != nil {
		options = append(options, mongoengine.WithContextualLogger(opts.ContextualLogger))
	}

	if opts.MetricsCollector != nil {
		options = append(options, mongoengine.WithMetrics(opts.MetricsCollector))
	}

	if opts.TracingCollector != nil {
		options = append(options, mongoengine.WithTracing(opts.TracingCollector))
	}

	return options
}
