package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoodasCode/wallet-whisperer/pkg/cards"
	"github.com/JoodasCode/wallet-whisperer/pkg/db/clickhouse"
)

const tableCardResults = "card_results"

// Store persists computed card results in ClickHouse. The table is a
// ReplacingMergeTree keyed by (wallet, card type) so the latest
// calculation wins and history remains queryable until merges collapse
// older versions.
type Store struct {
	client clickhouse.Client
	logger *zap.Logger
}

// NewStore connects to ClickHouse and ensures the schema exists.
func NewStore(ctx context.Context, logger *zap.Logger) (*Store, error) {
	dbName := clickhouse.SanitizeName("whisperer")
	client, err := clickhouse.New(ctx, logger, dbName)
	if err != nil {
		return nil, err
	}
	s := &Store{client: client, logger: logger}
	if err := s.init(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init(ctx context.Context) error {
	if err := s.client.CreateDbIfNotExists(ctx); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS "%s".%s (
			wallet_address String,
			chain          LowCardinality(String),
			card_type      LowCardinality(String),
			calculated_at  DateTime64(3),
			payload        String
		) ENGINE = ReplacingMergeTree(calculated_at)
		ORDER BY (wallet_address, card_type, calculated_at)`,
		s.client.Name, tableCardResults)
	if err := s.client.Db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create %s table: %w", tableCardResults, err)
	}
	return nil
}

// Close terminates the underlying connection.
func (s *Store) Close() error {
	return s.client.Close()
}

// UpsertCardResult stores one successful card computation. Error results
// never reach the table; callers skip them.
func (s *Store) UpsertCardResult(ctx context.Context, result *cards.Result) error {
	if result == nil || !result.OK() {
		return nil
	}
	query := fmt.Sprintf(`
		INSERT INTO "%s".%s (wallet_address, chain, card_type, calculated_at, payload)
		VALUES (?, ?, ?, ?, ?)`,
		s.client.Name, tableCardResults)
	return s.client.Db.Exec(ctx, query,
		result.WalletAddress,
		result.Chain,
		result.CardType,
		result.CalculatedAt,
		string(result.Payload))
}

// StoredResult is one persisted card row.
type StoredResult struct {
	WalletAddress string    `ch:"wallet_address"`
	Chain         string    `ch:"chain"`
	CardType      string    `ch:"card_type"`
	CalculatedAt  time.Time `ch:"calculated_at"`
	Payload       string    `ch:"payload"`
}

// LatestCardResults returns the newest persisted result per card type
// for one wallet.
func (s *Store) LatestCardResults(ctx context.Context, walletAddress string) ([]StoredResult, error) {
	query := fmt.Sprintf(`
		SELECT wallet_address, chain, card_type, calculated_at, payload
		FROM "%s".%s FINAL
		WHERE wallet_address = ?
		ORDER BY card_type`,
		s.client.Name, tableCardResults)
	var results []StoredResult
	if err := s.client.Db.Select(ctx, &results, query, walletAddress); err != nil {
		return nil, fmt.Errorf("failed to select latest card results: %w", err)
	}
	return results, nil
}

// CardHistory returns recent calculations for one wallet and card type,
// newest first.
func (s *Store) CardHistory(ctx context.Context, walletAddress string, cardType string, limit int) ([]StoredResult, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	query := fmt.Sprintf(`
		SELECT wallet_address, chain, card_type, calculated_at, payload
		FROM "%s".%s
		WHERE wallet_address = ? AND card_type = ?
		ORDER BY calculated_at DESC
		LIMIT %d`,
		s.client.Name, tableCardResults, limit)
	var results []StoredResult
	if err := s.client.Db.Select(ctx, &results, query, walletAddress, cardType); err != nil {
		return nil, fmt.Errorf("failed to select card history: %w", err)
	}
	return results, nil
}
