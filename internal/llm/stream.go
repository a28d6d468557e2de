package llm

import (
	"context"
	"strings"
)

// EventType represents the type of event in the text stream
type EventType int

const (
	// EventTypeText represents a text chunk event
	EventTypeText EventType = iota
	// EventTypeEnd represents the end of the stream
	EventTypeEnd
	// EventTypeError represents an error event
	EventTypeError
)

// TextStreamEvent represents an event in the text stream
type TextStreamEvent struct {
	Type  EventType
	Value any
}

// TextStreamResult represents a stream of text events
type TextStreamResult struct {
	Stream <-chan TextStreamEvent
}

// NewStreamFromString emits text as a single chunk followed by an end event.
func NewStreamFromString(text string) *TextStreamResult {
	return NewStreamFromChunks([]string{text})
}

// NewStreamFromChunks emits every chunk in order followed by an end event.
func NewStreamFromChunks(chunks []string) *TextStreamResult {
	stream := make(chan TextStreamEvent)

	go func() {
		defer close(stream)
		for _, chunk := range chunks {
			stream <- TextStreamEvent{
				Type:  EventTypeText,
				Value: chunk,
			}
		}
		stream <- TextStreamEvent{
			Type:  EventTypeEnd,
			Value: nil,
		}
	}()

	return &TextStreamResult{
		Stream: stream,
	}
}

// NewStreamFromError emits err as the only event.
func NewStreamFromError(err error) *TextStreamResult {
	stream := make(chan TextStreamEvent, 1)
	stream <- TextStreamEvent{Type: EventTypeError, Value: err}
	close(stream)
	return &TextStreamResult{Stream: stream}
}

// ReadAll concatenates text events until the end of the stream. The first
// error event aborts reading.
func (t *TextStreamResult) ReadAll() (string, error) {
	var result strings.Builder
	for event := range t.Stream {
		switch event.Type {
		case EventTypeText:
			if textChunk, ok := event.Value.(string); ok {
				result.WriteString(textChunk)
			}
		case EventTypeError:
			if err, ok := event.Value.(error); ok {
				return "", err
			}
		case EventTypeEnd:
			return result.String(), nil
		}
	}

	return result.String(), nil
}

// Send delivers event unless ctx is done first. Providers use it so a
// consumer that stops reading does not strand the producing goroutine.
func Send(ctx context.Context, out chan<- TextStreamEvent, event TextStreamEvent) bool {
	select {
	case out <- event:
		return true
	case <-ctx.Done():
		return false
	}
}
