// internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"campaign-wallet/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

const (
	// DefaultChannel is the Redis channel ledger events are published on.
	DefaultChannel = "ledger_events"

	EventTransactionRecorded = "transaction.recorded"
)

// Publisher is the part of a Redis client the event publisher needs.
// *redis.Client and redis.UniversalClient implement it.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// TransactionEvent is the JSON payload announcing a committed ledger entry.
type TransactionEvent struct {
	EventType     string          `json:"event_type"`
	TransactionID string          `json:"transaction_id"`
	WalletID      int64           `json:"wallet_id"`
	Type          string          `json:"transaction_type"`
	Status        string          `json:"status"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	Timestamp     time.Time       `json:"timestamp"`
}

// TransactionEventPublisher publishes ledger events to a Redis channel.
type TransactionEventPublisher struct {
	rdb     Publisher
	channel string
	logger  *slog.Logger
}

// NewTransactionEventPublisher creates a publisher on channel. An empty channel
// falls back to DefaultChannel.
func NewTransactionEventPublisher(rdb Publisher, channel string, logger *slog.Logger) *TransactionEventPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TransactionEventPublisher{rdb: rdb, channel: channel, logger: logger}
}

// PublishTransactionRecorded announces a committed entry and the wallet balance
// it produced.
func (p *TransactionEventPublisher) PublishTransactionRecorded(ctx context.Context, transaction *domain.Transaction, balanceAfter decimal.Decimal) error {
	event := TransactionEvent{
		EventType:     EventTransactionRecorded,
		TransactionID: transaction.ID,
		WalletID:      transaction.WalletID,
		Type:          string(transaction.Type),
		Status:        string(transaction.Status),
		Amount:        transaction.Amount,
		BalanceAfter:  balanceAfter,
		CreatedAt:     transaction.CreatedAt,
		Timestamp:     time.Now().UTC(),
	}
	if transaction.ReferenceID != nil {
		event.ReferenceID = *transaction.ReferenceID
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	p.logger.Debug("Ledger event published", "channel", p.channel, "transaction_id", transaction.ID)
	return nil
}

// NewRedisClient connects to Redis and checks the connection with PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return rdb, nil
}
