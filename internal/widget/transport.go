package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// historyWindow bounds how many prior turns ride along with a streaming
// send. The server enforces the same cap.
const historyWindow = 8

// Polling cadence: open conversations refetch quickly, the counterpart
// list can lag.
const (
	MessagePollInterval      = 3 * time.Second
	ConversationPollInterval = 10 * time.Second
)

type EventKind int

const (
	// EventChunk carries one incremental piece of a streamed reply.
	EventChunk EventKind = iota
	// EventReplace carries the server's full authoritative message
	// list. Last fetch wins.
	EventReplace
	// EventDone signals the turn completed.
	EventDone
	// EventErr signals a fatal turn failure.
	EventErr
)

type Event struct {
	Kind     EventKind
	Chunk    string
	Messages []Message
	Err      error
}

// Transport delivers one conversation turn as a sequence of events.
// Both variants emit events strictly in arrival order and always
// terminate the sequence with EventDone or EventErr.
type Transport interface {
	Send(ctx context.Context, key, text string, history []Message) (<-chan Event, error)
}

// StreamTransport is the assistant-widget variant: one POST per turn,
// reply consumed incrementally from the response body. No framing; raw
// text chunks arrive as the server flushes them.
type StreamTransport struct {
	endpoint string
	client   *http.Client
}

func NewStreamTransport(endpoint string) *StreamTransport {
	// No client timeout: a reply may stream for minutes. Cancellation
	// comes from the caller's context.
	return &StreamTransport{
		endpoint: endpoint,
		client:   &http.Client{},
	}
}

type historyTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (t *StreamTransport) Send(ctx context.Context, key, text string, history []Message) (<-chan Event, error) {
	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}
	turns := make([]historyTurn, 0, len(history))
	for _, m := range history {
		turns = append(turns, historyTurn{Role: string(m.Role), Content: m.Content})
	}

	payload, err := json.Marshal(map[string]interface{}{
		"message": text,
		"history": turns,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	events := make(chan Event, 16)
	go func() {
		defer close(events)

		resp, err := t.client.Do(req)
		if err != nil {
			events <- Event{Kind: EventErr, Err: err}
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			events <- Event{Kind: EventErr, Err: fmt.Errorf("assistant returned %d: %s", resp.StatusCode, body)}
			return
		}

		buf := make([]byte, 512)
		for {
			n, err := resp.Body.Read(buf)
			if n > 0 {
				events <- Event{Kind: EventChunk, Chunk: string(buf[:n])}
			}
			if err == io.EOF {
				events <- Event{Kind: EventDone}
				return
			}
			if err != nil {
				events <- Event{Kind: EventErr, Err: err}
				return
			}
		}
	}()

	return events, nil
}

// serverMessage is the wire shape of a support-chat message record.
type serverMessage struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ConversationSummary is one row of the polled counterpart list.
type ConversationSummary struct {
	ID          string `json:"id"`
	VisitorName string `json:"visitor_name"`
	UnreadCount int    `json:"unread_count"`
	Online      bool   `json:"online"`
	Focused     bool   `json:"focused"`
}

// PollingTransport is the support-chat variant: the message list is
// refetched on a fixed interval and each fetch replaces the local view
// wholesale. Send is a separate POST followed by an immediate
// out-of-cycle refetch.
type PollingTransport struct {
	baseURL string
	client  *http.Client

	// outgoingSender is which wire sender maps to RoleUser. "admin"
	// for the dashboard client, "visitor" for the widget.
	outgoingSender string

	// headers carries auth: Bearer token for admins, X-Visitor-ID for
	// visitors.
	headers map[string]string
}

func NewPollingTransport(baseURL, outgoingSender string, headers map[string]string) *PollingTransport {
	return &PollingTransport{
		baseURL:        baseURL,
		client:         &http.Client{Timeout: 30 * time.Second},
		outgoingSender: outgoingSender,
		headers:        headers,
	}
}

func (t *PollingTransport) do(req *http.Request) (*http.Response, error) {
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return t.client.Do(req)
}

func (t *PollingTransport) messagesURL(key string) string {
	if t.outgoingSender == "admin" {
		return t.baseURL + "/admin/chat/conversations/" + key + "/messages"
	}
	return t.baseURL + "/chat/messages"
}

// Fetch retrieves the authoritative message list for a conversation.
func (t *PollingTransport) Fetch(ctx context.Context, key string) ([]Message, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.messagesURL(key), nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("message fetch returned %d", resp.StatusCode)
	}

	var body struct {
		Messages []serverMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}

	messages := make([]Message, 0, len(body.Messages))
	for _, m := range body.Messages {
		role := RoleAssistant
		if m.Sender == t.outgoingSender {
			role = RoleUser
		}
		messages = append(messages, Message{
			ID:        m.ID,
			Role:      role,
			Content:   m.Content,
			Timestamp: m.CreatedAt,
		})
	}
	return messages, nil
}

// Send posts the message, then refetches immediately so the sender sees
// the authoritative list without waiting for the next tick.
func (t *PollingTransport) Send(ctx context.Context, key, text string, _ []Message) (<-chan Event, error) {
	payload, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.messagesURL(key), bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	events := make(chan Event, 2)
	go func() {
		defer close(events)

		resp, err := t.do(req)
		if err != nil {
			events <- Event{Kind: EventErr, Err: err}
			return
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
			events <- Event{Kind: EventErr, Err: fmt.Errorf("send returned %d", resp.StatusCode)}
			return
		}

		messages, err := t.Fetch(ctx, key)
		if err != nil {
			events <- Event{Kind: EventErr, Err: err}
			return
		}
		events <- Event{Kind: EventReplace, Messages: messages}
		events <- Event{Kind: EventDone}
	}()

	return events, nil
}

// Poll refetches the conversation on MessagePollInterval until ctx is
// canceled. The returned channel closes on teardown, so no timers
// outlive the conversation selection.
func (t *PollingTransport) Poll(ctx context.Context, key string) <-chan Event {
	events := make(chan Event, 4)
	go func() {
		defer close(events)

		ticker := time.NewTicker(MessagePollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				messages, err := t.Fetch(ctx, key)
				if err != nil {
					continue // transient; next tick retries
				}
				select {
				case events <- Event{Kind: EventReplace, Messages: messages}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return events
}

// PollConversations refetches the admin counterpart list on
// ConversationPollInterval.
func (t *PollingTransport) PollConversations(ctx context.Context) <-chan []ConversationSummary {
	out := make(chan []ConversationSummary, 1)
	go func() {
		defer close(out)

		ticker := time.NewTicker(ConversationPollInterval)
		defer ticker.Stop()

		fetch := func() {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.baseURL+"/admin/chat/conversations", nil)
			if err != nil {
				return
			}
			resp, err := t.do(req)
			if err != nil {
				return
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return
			}
			var summaries []ConversationSummary
			if err := json.NewDecoder(resp.Body).Decode(&summaries); err != nil {
				return
			}
			select {
			case out <- summaries:
			case <-ctx.Done():
			}
		}

		fetch()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fetch()
			}
		}
	}()
	return out
}
