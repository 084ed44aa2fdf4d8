package bootstrap

import (
	"context"
	"os"
	"strings"
	"time"

	"easgateway/adapter/out/cache"
	"easgateway/adapter/out/mailstore"
	"easgateway/adapter/out/persistence"
	"easgateway/adapter/out/realtime"
	"easgateway/config"
	"easgateway/core/eas"
	"easgateway/core/eas/synclock"
	"easgateway/core/mime"
	pkgcache "easgateway/pkg/cache"
	"easgateway/pkg/diagnostics"
	"easgateway/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver for database/sql
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"easgateway/infra/database"
)

// Dependencies wires together every adapter the ActiveSync core needs,
// following the teacher's NewDependencies constructor pattern: connect
// everything up front, return a single cleanup func that tears it all
// down in reverse order.
type Dependencies struct {
	Config *config.Config

	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client

	Devices    *persistence.DeviceAdapter
	Folders    *persistence.FolderAdapter
	SyncStates *persistence.SyncStateAdapter
	Auth       *persistence.AuthAdapter
	MailStore  *mailstore.Adapter
	Notifier   *realtime.Notifier
	Responses  *cache.ResponseCache

	Locks *synclock.Keyed
	MIME  *mime.Builder
	Trace *diagnostics.Tracer

	Service *eas.Service
}

// NewDependencies connects to Postgres, Mongo and Redis and builds every
// adapter and the core eas.Service on top of them.
func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.DB = db
	cleanups = append(cleanups, func() { db.Close() })

	sqlxURL := cfg.DatabaseURL
	if strings.Contains(sqlxURL, "?") {
		sqlxURL += "&default_query_exec_mode=simple_protocol"
	} else {
		sqlxURL += "?default_query_exec_mode=simple_protocol"
	}
	sqlDB, err := sqlx.Connect("pgx", sqlxURL)
	if err != nil {
		logger.Error("sqlx connection failed: %v", err)
		return nil, nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })

	redisClient, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	deps.Redis = redisClient
	cleanups = append(cleanups, func() { redisClient.Close() })

	mongoClient, err := database.NewMongo(cfg.MongoDBURL)
	if err != nil {
		return nil, nil, err
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() { _ = mongoClient.Disconnect(context.Background()) })

	deps.Devices = persistence.NewDeviceAdapter(sqlDB)
	deps.Folders = persistence.NewFolderAdapter(sqlDB)
	deps.SyncStates = persistence.NewSyncStateAdapter(sqlDB)
	deps.Auth = persistence.NewAuthAdapter(sqlDB)
	deps.MailStore = mailstore.New(sqlDB, mongoClient.Database(cfg.MongoDBName))
	deps.Notifier = realtime.New(redisClient, zerolog.New(os.Stderr).With().Timestamp().Logger())
	deps.Responses = cache.NewResponseCache(pkgcache.NewRedisCache(redisClient))

	deps.Locks = synclock.New()
	deps.MIME = mime.NewBuilder()
	deps.Trace = diagnostics.New(zerolog.New(os.Stderr).With().Timestamp().Str("component", "eas").Logger())

	deps.Service = eas.NewService(
		deps.Devices,
		deps.SyncStates,
		deps.Folders,
		deps.MailStore,
		deps.Notifier,
		deps.Auth,
		deps.Responses,
		deps.Locks,
		deps.MIME,
		deps.Trace,
	)

	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	return deps, cleanup, nil
}
