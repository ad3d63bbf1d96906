// Package realtime delivers row-change notifications from the backing store.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
)

// ProjectsChannel is the notification channel the projects trigger publishes on.
const ProjectsChannel = "projects_changes"

// Notification is one raw message received on a channel.
type Notification struct {
	Channel string
	Payload []byte
}

// Subscription is an open channel. C is closed after Close returns.
type Subscription interface {
	C() <-chan Notification
	Close() error
}

// Source opens subscriptions. Every call to Subscribe opens an independent channel.
type Source interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
	Close() error
}

// Change is the JSON document published by the row-change triggers.
type Change struct {
	Type      string          `json:"type"`
	Record    json.RawMessage `json:"record"`
	OldRecord json.RawMessage `json:"old_record"`
}

// DecodeChange parses a trigger payload.
func DecodeChange(n Notification) (Change, error) {
	var c Change
	if err := json.Unmarshal(n.Payload, &c); err != nil {
		return Change{}, fmt.Errorf("failed to decode change on %s: %w", n.Channel, err)
	}
	if c.Type == "" {
		return Change{}, fmt.Errorf("change on %s has no type", n.Channel)
	}
	return c, nil
}

// EncodeChange builds a trigger-shaped payload. Used by in-process publishers.
func EncodeChange(changeType string, record, oldRecord interface{}) ([]byte, error) {
	doc := map[string]interface{}{"type": changeType, "record": record, "old_record": oldRecord}
	return json.Marshal(doc)
}
