package redshift

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/ajitpratap0/tap-redshift/pkg/config"
	"github.com/ajitpratap0/tap-redshift/pkg/connector/base"
	"github.com/ajitpratap0/tap-redshift/pkg/connector/core"
	"github.com/ajitpratap0/tap-redshift/pkg/taperrors"
)

// Connection is a single pgx connection to the warehouse.
type Connection struct {
	conn *pgx.Conn
}

var _ core.Conn = (*Connection)(nil)

// Open connects using cfg, retrying connection failures with backoff.
// Authentication failures are not retried.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Connection, error) {
	pgCfg, err := pgx.ParseConfig(cfg.ConnString())
	if err != nil {
		return nil, taperrors.Wrap(err, taperrors.ErrorTypeConfig, "invalid connection settings")
	}
	// No server-side prepared statements on Redshift. pgx still binds the parameters.
	pgCfg.DefaultQueryExecMode = pgx.QueryExecModeSimpleProtocol

	policy := base.NewRetryPolicy(cfg.ConnectRetries, time.Second)
	policy.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Connection attempt failed, retrying",
			zap.String("host", cfg.Host),
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.Error(err))
	}

	var conn *pgx.Conn
	err = policy.ExecuteWithCondition(ctx, func() error {
		c, err := pgx.ConnectConfig(ctx, pgCfg)
		if err != nil {
			return classifyConnectError(err)
		}
		conn = c
		return nil
	}, taperrors.IsRetryable)
	if err != nil {
		return nil, err
	}

	logger.Info("Connected",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.DBName))
	return &Connection{conn: conn}, nil
}

func classifyConnectError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "28") {
		return taperrors.Wrap(err, taperrors.ErrorTypeConfig, "authentication failed").
			WithDetail("sqlstate", pgErr.Code)
	}
	return taperrors.Wrap(err, taperrors.ErrorTypeConnection, "failed to connect")
}

// Query runs sql with positional arguments and streams the result.
func (c *Connection) Query(ctx context.Context, sql string, args ...interface{}) (core.Rows, error) {
	rows, err := c.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// DatabaseName returns the name of the connected database.
func (c *Connection) DatabaseName() string {
	return c.conn.Config().Database
}

// Close closes the connection.
func (c *Connection) Close(ctx context.Context) error {
	return c.conn.Close(ctx)
}
