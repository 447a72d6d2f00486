package widget

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedTransport replays a fixed chunk sequence, optionally failing
// partway through.
type scriptedTransport struct {
	chunks    []string
	failAfter int // -1 means never fail
	sends     atomic.Int32
}

func (f *scriptedTransport) Send(ctx context.Context, key, text string, history []Message) (<-chan Event, error) {
	f.sends.Add(1)
	events := make(chan Event, len(f.chunks)+1)
	go func() {
		defer close(events)
		for i, c := range f.chunks {
			if f.failAfter >= 0 && i == f.failAfter {
				events <- Event{Kind: EventErr, Err: errors.New("connection reset")}
				return
			}
			events <- Event{Kind: EventChunk, Chunk: c}
		}
		if f.failAfter >= 0 && f.failAfter >= len(f.chunks) {
			events <- Event{Kind: EventErr, Err: errors.New("connection reset")}
			return
		}
		events <- Event{Kind: EventDone}
	}()
	return events, nil
}

func newTestController(transport Transport) (*Controller, *MemoryBackend) {
	backend := NewMemoryBackend()
	store := NewStore(backend, "test")
	c := NewController(store, transport, NewReconciler())
	c.settleDelay = 0
	return c, backend
}

func waitForIdle(t *testing.T, c *Controller) {
	t.Helper()
	require.Eventually(t, func() bool { return !c.Loading() },
		5*time.Second, 5*time.Millisecond, "controller never left loading state")
}

func TestControllerEndToEnd(t *testing.T) {
	transport := &scriptedTransport{
		chunks:    []string{"Here are ", "my best ", "projects."},
		failAfter: -1,
	}
	c, backend := newTestController(transport)

	// Fresh widget shows the seed greeting only.
	require.Equal(t, 1, c.Store().Len())

	require.NoError(t, c.Submit("Show me your best projects"))
	waitForIdle(t, c)

	messages := c.Store().Messages()
	require.Len(t, messages, 3) // seed, outgoing, incoming
	assert.Equal(t, RoleUser, messages[1].Role)
	assert.Equal(t, "Show me your best projects", messages[1].Content)
	assert.Equal(t, RoleAssistant, messages[2].Role)
	assert.Equal(t, "Here are my best projects.", messages[2].Content)
	assert.False(t, messages[2].Streaming)

	// Persisted state matches what is on screen.
	stored, err := backend.Read("test")
	require.NoError(t, err)
	require.Len(t, stored, 3)
	assert.Equal(t, messages[2].Content, stored[2].Content)
}

func TestControllerChunkAccumulation(t *testing.T) {
	transport := &scriptedTransport{chunks: []string{"Hel", "lo, ", "world"}, failAfter: -1}
	c, _ := newTestController(transport)

	require.NoError(t, c.Submit("hi"))
	waitForIdle(t, c)

	messages := c.Store().Messages()
	require.Len(t, messages, 3)
	// One incoming message for the whole turn, content in chunk order.
	assert.Equal(t, "Hello, world", messages[2].Content)
}

func TestControllerRejectsEmptyAndInFlight(t *testing.T) {
	transport := &scriptedTransport{chunks: []string{"slow"}, failAfter: -1}
	c, _ := newTestController(transport)

	assert.ErrorIs(t, c.Submit(""), ErrEmptyMessage)
	assert.ErrorIs(t, c.Submit("   \n\t"), ErrEmptyMessage)
	require.Equal(t, 1, c.Store().Len(), "rejected input must not append")

	require.NoError(t, c.Submit("first"))
	err := c.Submit("second")
	if err != nil {
		assert.ErrorIs(t, err, ErrInFlight)
	}
	waitForIdle(t, c)
}

func TestControllerMidStreamFailure(t *testing.T) {
	transport := &scriptedTransport{chunks: []string{"partial ", "answer"}, failAfter: 1}
	c, _ := newTestController(transport)

	require.NoError(t, c.Submit("hi"))
	waitForIdle(t, c)

	messages := c.Store().Messages()
	// Exactly one new incoming message, holding the fixed fallback.
	require.Len(t, messages, 3)
	assert.Equal(t, apologyText, messages[2].Content)
	assert.False(t, messages[2].Streaming)
	assert.False(t, c.Loading())

	// The failure surfaced a notice.
	select {
	case n := <-c.Notices():
		assert.Contains(t, n.Text, "failed")
	default:
		t.Fatal("expected a failure notice")
	}
}

func TestControllerFailureBeforeFirstChunk(t *testing.T) {
	transport := &scriptedTransport{chunks: nil, failAfter: 0}
	c, _ := newTestController(transport)

	require.NoError(t, c.Submit("hi"))
	waitForIdle(t, c)

	messages := c.Store().Messages()
	require.Len(t, messages, 3)
	assert.Equal(t, apologyText, messages[2].Content)
}

func TestControllerQuickReplyEquivalence(t *testing.T) {
	manual := &scriptedTransport{chunks: []string{"reply"}, failAfter: -1}
	cManual, _ := newTestController(manual)
	require.NoError(t, cManual.Submit("Tell me about your skills"))
	waitForIdle(t, cManual)

	quick := &scriptedTransport{chunks: []string{"reply"}, failAfter: -1}
	cQuick, _ := newTestController(quick)
	cQuick.QuickReply("Tell me about your skills")
	require.Eventually(t, func() bool { return quick.sends.Load() == 1 },
		5*time.Second, 5*time.Millisecond)
	waitForIdle(t, cQuick)

	manualMsgs := cManual.Store().Messages()
	quickMsgs := cQuick.Store().Messages()
	require.Equal(t, len(manualMsgs), len(quickMsgs))
	assert.Equal(t, manualMsgs[1].Content, quickMsgs[1].Content)
	assert.Equal(t, manualMsgs[1].Role, quickMsgs[1].Role)
}

func TestControllerResetIdempotent(t *testing.T) {
	transport := &scriptedTransport{chunks: []string{"reply"}, failAfter: -1}
	c, backend := newTestController(transport)

	require.NoError(t, c.Submit("hi"))
	waitForIdle(t, c)
	require.Equal(t, 3, c.Store().Len())

	require.NoError(t, c.Reset())
	require.Equal(t, 1, c.Store().Len())
	stored, err := backend.Read("test")
	require.NoError(t, err)
	assert.Empty(t, stored)

	require.NoError(t, c.Reset())
	assert.Equal(t, 1, c.Store().Len())
	assert.Equal(t, RoleAssistant, c.Store().Messages()[0].Role)
}

// hangingTransport holds the stream open until the turn context is
// canceled, then surfaces the cancellation as a transport error. This
// is what a real HTTP transport does when the request is aborted.
type hangingTransport struct {
	emitted chan struct{}
}

func (f *hangingTransport) Send(ctx context.Context, key, text string, history []Message) (<-chan Event, error) {
	events := make(chan Event, 1)
	go func() {
		defer close(f.emitted)
		defer close(events)
		<-ctx.Done()
		events <- Event{Kind: EventErr, Err: ctx.Err()}
	}()
	return events, nil
}

func TestControllerResetDuringStream(t *testing.T) {
	transport := &hangingTransport{emitted: make(chan struct{})}
	c, backend := newTestController(transport)

	require.NoError(t, c.Submit("hi"))
	require.True(t, c.Loading())
	require.NoError(t, c.Reset())
	assert.False(t, c.Loading())

	// Let the canceled turn flush its error event.
	<-transport.emitted
	time.Sleep(50 * time.Millisecond)

	messages := c.Store().Messages()
	require.Len(t, messages, 1, "reset must leave only the seed greeting")
	assert.Equal(t, RoleAssistant, messages[0].Role)
	assert.NotEqual(t, apologyText, messages[0].Content)

	stored, err := backend.Read("test")
	require.NoError(t, err)
	assert.Empty(t, stored, "persisted state must stay empty after reset")

	select {
	case n := <-c.Notices():
		t.Fatalf("canceled turn must not surface a notice, got %q", n.Text)
	default:
	}
}

func TestControllerForcesScrollOnSubmit(t *testing.T) {
	transport := &scriptedTransport{chunks: []string{"reply"}, failAfter: -1}
	c, _ := newTestController(transport)

	c.Scroll().HandleScroll(300)
	c.Scroll().ContentArrived(false)
	require.True(t, c.Scroll().HasUnseen())

	require.NoError(t, c.Submit("hi"))
	assert.False(t, c.Scroll().ScrolledUp())
	assert.False(t, c.Scroll().HasUnseen())
	waitForIdle(t, c)
}

func TestControllerReappliesOptimisticTail(t *testing.T) {
	c, _ := newTestController(nil)

	// Server list that has not recorded the just-sent message yet.
	server := []Message{NewMessage(RoleAssistant, "hi there")}
	c.applyAuthoritative(server, "am I lost?")

	messages := c.Store().Messages()
	require.Len(t, messages, 2)
	assert.Equal(t, "am I lost?", messages[1].Content)

	// Once the server echoes it, the list is taken verbatim.
	echoed := []Message{
		NewMessage(RoleAssistant, "hi there"),
		NewMessage(RoleUser, "am I lost?"),
	}
	c.applyAuthoritative(echoed, "am I lost?")
	assert.Equal(t, 2, c.Store().Len())
}

func TestControllerFocusRequests(t *testing.T) {
	c, _ := newTestController(nil)

	c.RequestFocus("conv-1")
	// A newer request replaces an unconsumed one.
	c.RequestFocus("conv-2")

	select {
	case req := <-c.FocusRequests():
		assert.Equal(t, "conv-2", req.ConversationKey)
	default:
		t.Fatal("expected a pending focus request")
	}
}
