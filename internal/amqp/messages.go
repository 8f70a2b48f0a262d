package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// MetricsSyncMessage is a lightweight message for mirroring ingested rows to Google Sheets.
// It carries only row ids; the worker loads the full rows from the database.
type MetricsSyncMessage struct {
	IDs       []int64   `json:"ids"`
	Dimension string    `json:"dimension"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMetricsSyncMessage creates a new sync message for the given rows.
func NewMetricsSyncMessage(ids []int64, dimension string) *MetricsSyncMessage {
	return &MetricsSyncMessage{
		IDs:       append([]int64(nil), ids...),
		Dimension: dimension,
		Timestamp: time.Now(),
	}
}

// Validate rejects messages that reference no rows.
func (m *MetricsSyncMessage) Validate() error {
	if len(m.IDs) == 0 {
		return errors.New("sync message has no row ids")
	}
	for _, id := range m.IDs {
		if id <= 0 {
			return errors.New("sync message has a non-positive row id")
		}
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *MetricsSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MetricsSyncMessageFromJSON creates a message from JSON bytes
func MetricsSyncMessageFromJSON(data []byte) (*MetricsSyncMessage, error) {
	var msg MetricsSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
