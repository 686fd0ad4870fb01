// Package stream consumes the processing backend's server-sent event
// streams and reduces them to normalized processing events.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/valuation-console/backend/internal/models"
)

// EventCallback receives each recognized, parsed event in arrival order.
type EventCallback func(event models.ProcessingEvent)

// ErrorCallback is invoked exactly once on transport failure.
type ErrorCallback func(err error)

// wireEvent is the JSON body attached to each named SSE event.
type wireEvent struct {
	Data       models.EventPayload `json:"data"`
	DocumentID string              `json:"document_id"`
	Timestamp  string              `json:"timestamp"`
}

// Consumer opens SSE streams against the processing backend.
type Consumer struct {
	baseURL string
	client  *http.Client
}

// NewConsumer creates a stream consumer for the given backend base URL.
// The HTTP client must not impose an overall request timeout; streams stay
// open for the lifetime of a document's processing.
func NewConsumer(baseURL string) *Consumer {
	return &Consumer{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
			},
		},
	}
}

// Subscription is one open stream for one document. The caller owns its
// lifetime and must Close it unless a transport error already closed it.
type Subscription struct {
	cancel    context.CancelFunc
	closeOnce sync.Once
	done      chan struct{}
}

// Close terminates the stream and returns without waiting for the read
// loop to exit, so it is safe to call from inside an event callback.
// Events already in flight may still be delivered. Safe to call more
// than once. Done reports when the read loop has finished.
func (s *Subscription) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
	})
}

// Done is closed once the read loop has exited and no more callbacks
// will fire.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Connect opens the event stream for a document and delivers recognized
// events to onMessage in the order the server sends them. A transport
// error after connect invokes onError exactly once and closes the stream;
// there is no reconnect. Unknown event names are ignored; payloads that
// fail to parse are logged and dropped.
func (c *Consumer) Connect(ctx context.Context, documentID string, onMessage EventCallback, onError ErrorCallback) (*Subscription, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	url := fmt.Sprintf("%s/api/v1/stream/%s", c.baseURL, documentID)
	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, url, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("building stream request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("opening stream: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("stream returned status %d", resp.StatusCode)
	}

	sub := &Subscription{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go c.readLoop(sub, resp.Body, documentID, onMessage, onError)

	return sub, nil
}

// readLoop parses the SSE framing: "event:" names the type, "data:" carries
// the JSON body, a blank line dispatches.
func (c *Consumer) readLoop(sub *Subscription, body io.ReadCloser, documentID string, onMessage EventCallback, onError ErrorCallback) {
	defer close(sub.done)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var eventName string
	var data strings.Builder

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case line == "":
			c.dispatch(eventName, data.String(), documentID, onMessage)
			eventName = ""
			data.Reset()
		case strings.HasPrefix(line, "event:"):
			eventName = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
		// Comment lines (":") and other fields are ignored
	}

	// Flush a final event that arrived without a trailing blank line
	if eventName != "" || data.Len() > 0 {
		c.dispatch(eventName, data.String(), documentID, onMessage)
	}

	if err := scanner.Err(); err != nil {
		// Caller-initiated Close cancels the context; that is not a failure
		if errors.Is(err, context.Canceled) {
			return
		}
		onError(fmt.Errorf("stream connection failed: %w", err))
	}
}

func (c *Consumer) dispatch(eventName, payload, documentID string, onMessage EventCallback) {
	if eventName == "" || payload == "" {
		return
	}
	if !isKnownEvent(eventName) {
		return
	}

	var wire wireEvent
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		fmt.Printf("[Stream %s] dropping unparsable %s event: %v\n", shortID(documentID), eventName, err)
		return
	}

	docID := wire.DocumentID
	if docID == "" {
		docID = documentID
	}

	onMessage(models.ProcessingEvent{
		EventType:  eventName,
		DocumentID: docID,
		Timestamp:  wire.Timestamp,
		Payload:    wire.Data,
	})
}

func isKnownEvent(name string) bool {
	for _, known := range models.KnownEventTypes {
		if name == known {
			return true
		}
	}
	return false
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
