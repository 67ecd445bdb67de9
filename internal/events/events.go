package events

import (
	"context"
	"encoding/json"
	"fmt"
)

// Event types
const (
	EventLogCreated = "log_created"
)

// PayloadLog is the payload key holding the created record.
const PayloadLog = "log"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

// Decode re-encodes Payload[key] into dst. Payloads come back from the wire as
// generic maps, so this is how subscribers recover typed values.
func (e Event) Decode(key string, dst any) error {
	v, ok := e.Payload[key]
	if !ok {
		return fmt.Errorf("event %s: payload key %q missing", e.Type, key)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler func(Event)) error
}

// NopPublisher drops events; used when redis is not configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
