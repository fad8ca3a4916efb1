// Package events provides event management functionality.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	DatasetLoaded     EventType = "DATASET_LOADED"
	DatasetLoadFailed EventType = "DATASET_LOAD_FAILED"
	ViewerConnected   EventType = "VIEWER_CONNECTED"
	ViewerResized     EventType = "VIEWER_RESIZED"
	LogFileChanged    EventType = "LOG_FILE_CHANGED"
	ErrorOccurred     EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, in declaration order
var AllTypes = []EventType{
	DatasetLoaded,
	DatasetLoadFailed,
	ViewerConnected,
	ViewerResized,
	LogFileChanged,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
