package clickhouse

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/JoodasCode/wallet-whisperer/pkg/retry"
	"github.com/JoodasCode/wallet-whisperer/pkg/utils"
	"go.uber.org/zap"
)

// Client wraps a ClickHouse connection scoped to one database.
type Client struct {
	Logger *zap.Logger
	Db     driver.Conn
	Name   string
}

// New connects to ClickHouse using CLICKHOUSE_ADDR
// (clickhouse://<user>:<password>@<host>:<port>?sslmode=disable) and retries
// with backoff until the server answers a ping.
func New(ctx context.Context, logger *zap.Logger, dbName string) (Client, error) {
	connCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	dsn := utils.Env("CLICKHOUSE_ADDR", "clickhouse://localhost:9000?sslmode=disable")
	username, password, addrs := parseDSN(dsn)

	client := Client{Logger: logger, Name: dbName}

	options := &clickhouse.Options{
		Addr: addrs,
		Auth: clickhouse.Auth{
			// Connect to the default database first; the target database is
			// created during initialization.
			Database: "default",
			Username: username,
			Password: password,
		},
		DialTimeout:     30 * time.Second,
		MaxOpenConns:    utils.EnvInt("CLICKHOUSE_MAX_OPEN_CONNS", 10),
		MaxIdleConns:    utils.EnvInt("CLICKHOUSE_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: utils.EnvDuration("CLICKHOUSE_CONN_MAX_LIFETIME", time.Hour),
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		Settings: clickhouse.Settings{
			"prefer_column_name_to_alias": 1,
		},
	}

	err := retry.WithBackoff(connCtx, retry.DefaultConfig(), logger, "clickhouse_connection", func() error {
		conn, err := clickhouse.Open(options)
		if err != nil {
			return fmt.Errorf("failed to open clickhouse connection: %w", err)
		}
		client.Db = conn
		if err := client.Db.Ping(connCtx); err != nil {
			return fmt.Errorf("failed to ping clickhouse: %w", err)
		}
		return nil
	})
	if err != nil {
		return Client{}, err
	}

	logger.Info("ClickHouse connection ready",
		zap.Strings("addrs", addrs),
		zap.String("database", dbName))
	return client, nil
}

// Close terminates the underlying connection.
func (c Client) Close() error {
	return c.Db.Close()
}

// CreateDbIfNotExists ensures the client's target database exists.
func (c Client) CreateDbIfNotExists(ctx context.Context) error {
	return c.Db.Exec(ctx, fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS "%s"`, c.Name))
}

// parseDSN pulls credentials and replica addresses out of a
// clickhouse:// DSN. Malformed DSNs degrade to localhost defaults.
func parseDSN(dsn string) (username, password string, addrs []string) {
	username = "default"
	u, err := url.Parse(dsn)
	if err != nil || u.Host == "" {
		return username, "", []string{"localhost:9000"}
	}
	if u.User != nil {
		if name := u.User.Username(); name != "" {
			username = name
		}
		password, _ = u.User.Password()
	}
	for _, host := range strings.Split(u.Host, ",") {
		if host = strings.TrimSpace(host); host != "" {
			addrs = append(addrs, host)
		}
	}
	if len(addrs) == 0 {
		addrs = []string{"localhost:9000"}
	}
	return username, password, addrs
}

// SanitizeName sanitizes an identifier for use as a ClickHouse object name.
func SanitizeName(id string) string {
	s := strings.ToLower(id)
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, ".", "_")
	return s
}
