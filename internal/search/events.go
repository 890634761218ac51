package search

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

// payloadField is the stream entry field holding the encoded event
const payloadField = "payload"

var ErrMalformedEvent = errors.New("malformed index event")

// Operation is the index change carried by an IndexEvent
type Operation string

const (
	OpUpsert Operation = "upsert"
	OpRemove Operation = "remove"
)

// IndexEvent tells the synchronizer that a shop changed in the catalog.
// It carries only the shop ID; the current state is read back from the
// store when the event is applied.
type IndexEvent struct {
	ID     uuid.UUID `json:"id"`
	Op     Operation `json:"op"`
	ShopID int64     `json:"shopId"`
	At     time.Time `json:"at"`
}

func newIndexEvent(op Operation, shopID int64) IndexEvent {
	return IndexEvent{
		ID:     uuid.New(),
		Op:     op,
		ShopID: shopID,
		At:     time.Now().UTC(),
	}
}

func (e IndexEvent) encode() (string, error) {
	data, err := jsoniter.ConfigFastest.Marshal(e)
	if err != nil {
		return "", fmt.Errorf("encoding index event: %w", err)
	}
	return string(data), nil
}

func decodeIndexEvent(values map[string]interface{}) (IndexEvent, error) {
	var event IndexEvent

	raw, ok := values[payloadField].(string)
	if !ok {
		return event, fmt.Errorf("%w: missing %s field", ErrMalformedEvent, payloadField)
	}

	if err := jsoniter.ConfigFastest.UnmarshalFromString(raw, &event); err != nil {
		return event, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	switch event.Op {
	case OpUpsert, OpRemove:
	default:
		return event, fmt.Errorf("%w: unknown operation %q", ErrMalformedEvent, event.Op)
	}

	return event, nil
}
