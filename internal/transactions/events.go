package transactions

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventTransactionPlaced = "TransactionPlaced"

	TopicTransactionPlaced = "transaction.placed"
)

type Envelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	EventVersion  int             `json:"event_version"`
	OccurredAt    time.Time       `json:"occurred_at"`
	Producer      string          `json:"producer"`
	TraceID       string          `json:"trace_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// TransactionPlacedPayload is published after a successful commit so
// downstream consumers (reporting, fulfilment) can react. Publication is
// fire-and-forget; the order is already durable when this goes out.
type TransactionPlacedPayload struct {
	TransactionID string          `json:"transaction_id"`
	UserID        string          `json:"user_id"`
	Items         []ItemInput     `json:"items"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// Partition key = order id, so every event for one order keeps its ordering.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
