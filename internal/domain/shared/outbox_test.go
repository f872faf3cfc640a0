package shared

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

type testEvent struct {
	BaseDomainEvent
}

func TestOutboxEntry_Lifecycle(t *testing.T) {
	ev := &testEvent{BaseDomainEvent: NewBaseDomainEvent("case.completed", "Case", uuid.New())}
	entry := NewOutboxEntry(ev, []byte(`{}`))

	assert.Equal(t, OutboxStatusPending, entry.Status)
	assert.Equal(t, ev.EventID(), entry.EventID)
	assert.Equal(t, "case.completed", entry.EventType)
	assert.Equal(t, DefaultMaxRetries, entry.MaxRetries)

	entry.MarkFailed("boom")
	assert.Equal(t, OutboxStatusFailed, entry.Status)
	assert.Equal(t, 1, entry.RetryCount)
	if assert.NotNil(t, entry.NextRetryAt) {
		assert.WithinDuration(t, time.Now().Add(DefaultBaseBackoff), *entry.NextRetryAt, 500*time.Millisecond)
	}

	for i := 1; i < DefaultMaxRetries; i++ {
		entry.MarkFailed("boom")
	}
	assert.True(t, entry.IsDead())
	assert.Nil(t, entry.NextRetryAt)

	other := NewOutboxEntry(ev, nil)
	other.MarkSent()
	assert.Equal(t, OutboxStatusSent, other.Status)
	assert.NotNil(t, other.ProcessedAt)
}
