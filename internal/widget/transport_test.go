package widget

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var out []Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("timed out waiting for transport events")
		}
	}
}

func TestStreamTransportDeliversChunksInOrder(t *testing.T) {
	chunks := []string{"Hel", "lo, ", "world"}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Message string        `json:"message"`
			History []historyTurn `json:"history"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "hi", body.Message)

		flusher := w.(http.Flusher)
		w.Header().Set("Content-Type", "text/plain")
		for _, c := range chunks {
			w.Write([]byte(c))
			flusher.Flush()
		}
	}))
	defer srv.Close()

	transport := NewStreamTransport(srv.URL)
	events, err := transport.Send(context.Background(), "visitor", "hi", nil)
	require.NoError(t, err)

	got := collect(t, events)
	require.NotEmpty(t, got)
	assert.Equal(t, EventDone, got[len(got)-1].Kind)

	var acc string
	for _, ev := range got[:len(got)-1] {
		require.Equal(t, EventChunk, ev.Kind)
		acc += ev.Chunk
	}
	assert.Equal(t, "Hello, world", acc)
}

func TestStreamTransportCapsHistory(t *testing.T) {
	var gotHistory []historyTurn
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			History []historyTurn `json:"history"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		gotHistory = body.History
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	history := make([]Message, 12)
	for i := range history {
		history[i] = NewMessage(RoleUser, string(rune('a'+i)))
	}

	transport := NewStreamTransport(srv.URL)
	events, err := transport.Send(context.Background(), "visitor", "hi", history)
	require.NoError(t, err)
	collect(t, events)

	require.Len(t, gotHistory, historyWindow)
	// The newest turns survive the trim.
	assert.Equal(t, "l", gotHistory[len(gotHistory)-1].Content)
}

func TestStreamTransportNonOKIsFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	transport := NewStreamTransport(srv.URL)
	events, err := transport.Send(context.Background(), "visitor", "hi", nil)
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 1)
	assert.Equal(t, EventErr, got[0].Kind)
	assert.Error(t, got[0].Err)
}

func TestPollingTransportSendThenRefetch(t *testing.T) {
	var posted string
	mux := http.NewServeMux()
	mux.HandleFunc("/chat/messages", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var body struct {
				Message string `json:"message"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			posted = body.Message
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{}`))
		case http.MethodGet:
			assert.Equal(t, "v-1", r.Header.Get("X-Visitor-ID"))
			json.NewEncoder(w).Encode(map[string]interface{}{
				"messages": []serverMessage{
					{ID: "1", Sender: "admin", Content: "hello there", CreatedAt: time.Now()},
					{ID: "2", Sender: "visitor", Content: posted, CreatedAt: time.Now()},
				},
			})
		}
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	transport := NewPollingTransport(srv.URL, "visitor", map[string]string{"X-Visitor-ID": "v-1"})
	events, err := transport.Send(context.Background(), "v-1", "anyone there?", nil)
	require.NoError(t, err)

	got := collect(t, events)
	require.Len(t, got, 2)
	require.Equal(t, EventReplace, got[0].Kind)
	assert.Equal(t, EventDone, got[1].Kind)

	messages := got[0].Messages
	require.Len(t, messages, 2)
	// Counterpart messages map to the incoming role, own to outgoing.
	assert.Equal(t, RoleAssistant, messages[0].Role)
	assert.Equal(t, RoleUser, messages[1].Role)
	assert.Equal(t, "anyone there?", messages[1].Content)
}

func TestPollingTransportPollStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"messages": []serverMessage{}})
	}))
	defer srv.Close()

	transport := NewPollingTransport(srv.URL, "visitor", nil)
	ctx, cancel := context.WithCancel(context.Background())
	events := transport.Poll(ctx, "v-1")

	cancel()

	select {
	case _, ok := <-events:
		if ok {
			// A tick may have raced the cancel; the channel must still
			// close right after.
			_, ok = <-events
			assert.False(t, ok)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("poll channel did not close after cancel")
	}
}
