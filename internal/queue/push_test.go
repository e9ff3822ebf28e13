package queue

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fieldserve/jobrunner/internal/jobs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierDouble struct {
	mu         sync.Mutex
	dispatched []jobs.JobPayload
	err        error
}

func (n *notifierDouble) Dispatch(_ context.Context, p jobs.JobPayload) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dispatched = append(n.dispatched, p)
	return n.err
}

func TestPushQueue_EnqueueDispatchesExactlyOnce(t *testing.T) {
	notifier := &notifierDouble{}
	q := NewPushQueue(notifier, testLogger())

	err := q.Enqueue(context.Background(), jobs.JobPayload{
		OrgID: "org1",
		Type:  "sendInvoiceReminder",
		Data:  map[string]any{"invoiceId": "inv1"},
	})
	require.NoError(t, err)

	require.Len(t, notifier.dispatched, 1)
	assert.Equal(t, "org1", notifier.dispatched[0].OrgID)
	assert.NotNil(t, notifier.dispatched[0].Data, "payload is normalized before dispatch")
}

func TestPushQueue_EnqueueValidatesOrg(t *testing.T) {
	notifier := &notifierDouble{}
	q := NewPushQueue(notifier, testLogger())

	err := q.Enqueue(context.Background(), jobs.JobPayload{Type: "t"})
	require.ErrorIs(t, err, ErrMissingOrgID)
	assert.Empty(t, notifier.dispatched)
}

func TestPushQueue_TransportFailureIsSwallowed(t *testing.T) {
	notifier := &notifierDouble{err: errors.New("dispatcher unreachable")}
	q := NewPushQueue(notifier, testLogger())

	// At-most-once: the failure is logged, not raised, not retried
	err := q.Enqueue(context.Background(), jobs.JobPayload{OrgID: "org1", Type: "t"})
	require.NoError(t, err)
	assert.Len(t, notifier.dispatched, 1)
}

func TestPushQueue_NothingToPoll(t *testing.T) {
	q := NewPushQueue(&notifierDouble{}, testLogger())
	ctx := context.Background()

	assert.Nil(t, q.Dequeue(ctx))
	assert.NoError(t, q.MarkComplete(ctx, 1))
	assert.NoError(t, q.MarkFailed(ctx, 1, "x"))
	assert.NoError(t, q.Discard(ctx, 1, "x"))
}
