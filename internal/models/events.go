package models

// EventType names for the document processing stream.
const (
	EventStatusUpdate  = "status_update"
	EventPageStarted   = "page_started"
	EventPageCompleted = "page_completed"
	EventPageError     = "page_error"
	EventError         = "error"
)

// KnownEventTypes lists every stream event name the consumer recognizes.
// Events outside this set are ignored.
var KnownEventTypes = []string{
	EventStatusUpdate,
	EventPageStarted,
	EventPageCompleted,
	EventPageError,
	EventError,
}

// Processing status values carried in status_update payloads.
const (
	ProcessingUploaded  = "uploaded"
	ProcessingCompleted = "completed"
	ProcessingFailed    = "failed"
)

// EventPayload is the data block of a processing event.
type EventPayload struct {
	Status         string `json:"status,omitempty"`
	Message        string `json:"message,omitempty"`
	PageNumber     int    `json:"page_number,omitempty"`
	PagesExtracted int    `json:"pages_extracted,omitempty"`
	TotalPages     int    `json:"total_pages,omitempty"`
	Summary        string `json:"summary,omitempty"`
	Language       string `json:"language,omitempty"`
}

// ProcessingEvent is the normalized shape every stream event is reduced to
// before it reaches the wizard.
type ProcessingEvent struct {
	EventType  string       `json:"event_type"`
	DocumentID string       `json:"document_id"`
	Timestamp  string       `json:"timestamp"`
	Payload    EventPayload `json:"data"`
}
