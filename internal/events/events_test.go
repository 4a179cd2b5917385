package events

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockEventHandler is a test implementation of the EventHandler interface
type MockEventHandler struct {
	HandledCount int
	LastEvent    *JobRequestEvent
	HandlerError error
}

func (h *MockEventHandler) HandleEvent(ctx context.Context, event *JobRequestEvent) error {
	h.HandledCount++
	h.LastEvent = event
	return h.HandlerError
}

func TestNewJobRequestEvent(t *testing.T) {
	t.Parallel()

	payload := map[string]string{"notification_id": uuid.New().String()}

	event, err := NewJobRequestEvent("notification_dispatch", payload)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, "notification_dispatch", event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var decoded map[string]string
	require.NoError(t, event.UnmarshalPayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestNewJobRequestEvent_UnserializablePayload(t *testing.T) {
	t.Parallel()

	// Channels cannot be marshaled to JSON
	_, err := NewJobRequestEvent("notification_dispatch", make(chan int))
	assert.Error(t, err)
}

func TestJobRequestEvent_UnmarshalPayload_Invalid(t *testing.T) {
	t.Parallel()

	event := &JobRequestEvent{Payload: []byte("not json")}

	var decoded map[string]string
	assert.Error(t, event.UnmarshalPayload(&decoded))
}
