package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/inventory-system/api/pkg/config"
)

// Options controls how the Postgres connection pool is opened.
type Options struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogLevel        gormlogger.LogLevel
	MaxRetries      int
}

// OptionsFromConfig derives pool options from the service configuration.
func OptionsFromConfig(c *config.Config) Options {
	lvl := gormlogger.Warn
	switch c.AppEnv {
	case "development", "test":
		lvl = gormlogger.Info
	case config.EnvProduction:
		lvl = gormlogger.Error
	}
	return Options{
		DSN:             c.DatabaseURL,
		MaxOpenConns:    c.DBMaxOpenConns,
		MaxIdleConns:    c.DBMaxIdleConns,
		ConnMaxLifetime: c.DBConnMaxLifetime,
		LogLevel:        lvl,
		MaxRetries:      5,
	}
}

// Client owns the process-wide connection pool.
type Client struct {
	DB  *gorm.DB
	log *zap.Logger
}

// OpenPostgres opens a Gorm PostgreSQL connection with retry and pooling from opts.
// Failures are reported as *InitializationError.
func OpenPostgres(ctx context.Context, opts Options, log *zap.Logger) (*Client, error) {
	var db *gorm.DB
	var err error

	b := backoff{
		maxRetries: opts.MaxRetries,
		delay:      500 * time.Millisecond,
		maxDelay:   5 * time.Second,
	}

	for attempt := 0; ; attempt++ {
		db, err = gorm.Open(postgres.Open(opts.DSN), &gorm.Config{
			Logger: NewGormLogger(log, opts.LogLevel),
		})
		if err == nil {
			break
		}
		if attempt >= b.maxRetries {
			return nil, initFailure(fmt.Sprintf("open postgres failed after %d retries", attempt), err)
		}
		log.Warn("postgres not reachable, retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", b.nextDelay(attempt)),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return nil, initFailure("open postgres canceled", ctx.Err())
		case <-time.After(b.nextDelay(attempt)):
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, initFailure("db handle unavailable", err)
	}

	sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)

	c := &Client{DB: db, log: log}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := c.Ping(ctxPing); err != nil {
		return nil, err
	}
	log.Info("Database connected")
	return c, nil
}

// Ping checks connectivity. Errors are translated.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return initFailure("db handle unavailable", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		if tr := Translate(err); tr != err {
			return tr
		}
		return initFailure("database ping failed", err)
	}
	return nil
}

// Close releases the pool.
func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	c.log.Info("Database disconnected")
	return nil
}

func initFailure(msg string, err error) error {
	return pkgerrors.WithStack(&InitializationError{Message: msg, Err: err})
}

// GormLogger routes gorm events through zap. Queries are emitted at debug level.
type GormLogger struct {
	zap           *zap.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func NewGormLogger(log *zap.Logger, level gormlogger.LogLevel) *GormLogger {
	return &GormLogger{zap: log.Named("Database"), level: level, slowThreshold: 200 * time.Millisecond}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	n := *l
	n.level = level
	return &n
}

func (l *GormLogger) Info(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.zap.Sugar().Infof(s, args...)
	}
}

func (l *GormLogger) Warn(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.zap.Sugar().Warnf(s, args...)
	}
}

func (l *GormLogger) Error(ctx context.Context, s string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.zap.Sugar().Errorf(s, args...)
	}
}

func (l *GormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level == gormlogger.Silent {
		return
	}
	dur := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		l.zap.Error("query error", zap.Duration("duration", dur), zap.Int64("rows", rows), zap.String("sql", sql), zap.Error(err))
	case dur > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.zap.Warn("slow query", zap.Duration("duration", dur), zap.Int64("rows", rows), zap.String("sql", sql))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.zap.Debug("query", zap.Duration("duration", dur), zap.Int64("rows", rows), zap.String("sql", sql))
	}
}

type backoff struct {
	maxRetries int
	delay      time.Duration
	maxDelay   time.Duration
}

func (b backoff) nextDelay(attempt int) time.Duration {
	d := b.delay << attempt
	if d > b.maxDelay {
		return b.maxDelay
	}
	return d
}
