package orchestrator

import (
	"context"
	"strings"
)

// Stream event types.
const (
	EventStatus   = "status"
	EventContent  = "content"
	EventComplete = "complete"
	EventError    = "error"
)

// StreamEvent is one server-sent event for a streamed turn.
type StreamEvent struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// StreamChat processes a turn like Chat and emits the reply as a sequence of
// events: a status event while thinking, word-sized content chunks, then a
// complete event carrying the full answer. The whole stream is capped by the
// configured deadline.
func (o *Orchestrator) StreamChat(ctx context.Context, sessionID, userID, input string) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)

	go func() {
		defer close(events)

		ctx, cancel := context.WithTimeout(ctx, o.streamDeadline)
		defer cancel()

		send := func(ev StreamEvent) bool {
			select {
			case events <- ev:
				return true
			case <-ctx.Done():
				return false
			}
		}

		if !send(StreamEvent{Type: EventStatus, Data: "thinking"}) {
			return
		}

		reply, err := o.Chat(ctx, sessionID, userID, input)
		if err != nil {
			send(StreamEvent{Type: EventError, Data: err.Error()})
			return
		}

		for _, word := range strings.Fields(reply.Answer) {
			if !send(StreamEvent{Type: EventContent, Data: word + " "}) {
				return
			}
		}
		send(StreamEvent{Type: EventComplete, Data: reply.Answer})
	}()

	return events
}
