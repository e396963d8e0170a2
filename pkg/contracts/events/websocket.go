// Package events contains the event contracts pushed to dashboard clients over WebSocket.
package events

import (
	"time"
)

// MessageType defines the type of WebSocket message
type MessageType string

const (
	// MessageTypeDatasetReloaded is sent after the data directory was re-imported
	MessageTypeDatasetReloaded MessageType = "dataset:reloaded"

	// System messages
	MessageTypeSystemStatus MessageType = "system:status"

	// Connection messages
	MessageTypeConnect MessageType = "connect"
)

// BaseMessage represents the base structure for all WebSocket messages
type BaseMessage struct {
	ID        string      `json:"id,omitempty"`
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// WebSocketMessage represents a complete WebSocket message
type WebSocketMessage struct {
	BaseMessage
	Data interface{} `json:"data,omitempty"`
}

// DatasetReloaded is the payload of a dataset:reloaded message
type DatasetReloaded struct {
	Observations int       `json:"observations"`
	Files        int       `json:"files"`
	FailedFiles  int       `json:"failed_files"`
	Warnings     []string  `json:"warnings,omitempty"`
	LoadedAt     time.Time `json:"loaded_at"`
}
