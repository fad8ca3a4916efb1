package events

import "encoding/json"

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// DatasetLoadedData contains data for DatasetLoaded events
type DatasetLoadedData struct {
	Source   string   `json:"source"`
	Checksum string   `json:"checksum"`
	Records  int      `json:"records"`
	Series   []string `json:"series"`
	Reload   bool     `json:"reload"`
}

// EventType returns the event type for DatasetLoadedData
func (d *DatasetLoadedData) EventType() EventType {
	return DatasetLoaded
}

// DatasetLoadFailedData contains data for DatasetLoadFailed events
type DatasetLoadFailedData struct {
	Source string `json:"source"`
	Stage  string `json:"stage,omitempty"`
	Error  string `json:"error"`
	Reload bool   `json:"reload"`
}

// EventType returns the event type for DatasetLoadFailedData
func (d *DatasetLoadFailedData) EventType() EventType {
	return DatasetLoadFailed
}

// ViewerConnectedData contains data for ViewerConnected events
type ViewerConnectedData struct {
	ViewerID string `json:"viewer_id"`
	Remote   string `json:"remote,omitempty"`
	Binary   bool   `json:"binary"`
}

// EventType returns the event type for ViewerConnectedData
func (d *ViewerConnectedData) EventType() EventType {
	return ViewerConnected
}

// ViewerResizedData contains data for ViewerResized events
type ViewerResizedData struct {
	ViewerID string `json:"viewer_id"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// EventType returns the event type for ViewerResizedData
func (d *ViewerResizedData) EventType() EventType {
	return ViewerResized
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// TypedData converts the event's map payload back into its typed form.
// It returns nil for unknown types or payloads that do not fit.
func (e *Event) TypedData() EventData {
	if e.Data == nil {
		return nil
	}

	var data EventData
	switch e.Type {
	case DatasetLoaded:
		data = &DatasetLoadedData{}
	case DatasetLoadFailed:
		data = &DatasetLoadFailedData{}
	case ViewerConnected:
		data = &ViewerConnectedData{}
	case ViewerResized:
		data = &ViewerResizedData{}
	case ErrorOccurred:
		data = &ErrorEventData{}
	default:
		return nil
	}

	if err := convertMapToStruct(e.Data, data); err != nil {
		return nil
	}
	return data
}

// convertMapToStruct converts a map[string]interface{} to a struct
func convertMapToStruct(m map[string]interface{}, v interface{}) error {
	jsonBytes, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return json.Unmarshal(jsonBytes, v)
}
