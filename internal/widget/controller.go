package widget

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
)

// apologyText replaces a reply that failed mid-stream. Fixed string so
// a failed turn always ends the same way.
const apologyText = "Sorry, I ran into a problem answering that. Please try again."

var (
	ErrEmptyMessage = errors.New("widget: message is empty")
	ErrInFlight     = errors.New("widget: a send is already in flight")
)

// Notice is a transient user-visible notification (toast).
type Notice struct {
	Text string
}

// FocusRequest asks the chat view to open and select a conversation.
// It replaces the page-global event-plus-storage handoff with a typed
// channel both sides hold a reference to.
type FocusRequest struct {
	ConversationKey string
}

// Controller orchestrates one conversation: send, receive, loading
// state, quick replies, reset. It is the only widget component with
// side effects beyond rendering.
type Controller struct {
	store     *Store
	transport Transport
	scroll    *Reconciler

	mu      sync.Mutex
	loading bool
	cancel  context.CancelFunc
	// turn counts cancellation boundaries. A reset or close bumps it,
	// so a superseded turn's remaining events are discarded instead of
	// landing in the reseeded conversation.
	turn int

	// settleDelay lets the UI apply the prefilled input before a quick
	// reply submits it.
	settleDelay time.Duration

	changes chan struct{}
	notices chan Notice
	focus   chan FocusRequest
}

func NewController(store *Store, transport Transport, scroll *Reconciler) *Controller {
	store.Load()
	return &Controller{
		store:       store,
		transport:   transport,
		scroll:      scroll,
		settleDelay: 150 * time.Millisecond,
		changes:     make(chan struct{}, 1),
		notices:     make(chan Notice, 4),
		focus:       make(chan FocusRequest, 1),
	}
}

func (c *Controller) Store() *Store          { return c.store }
func (c *Controller) Scroll() *Reconciler    { return c.scroll }
func (c *Controller) Changes() <-chan struct{} { return c.changes }
func (c *Controller) Notices() <-chan Notice { return c.notices }

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Submit sends a user message. Empty input and concurrent sends are
// rejected before any side effect. An accepted submit appends the
// outgoing message, forces the viewport to the bottom, and runs the
// transport turn in the background.
func (c *Controller) Submit(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrInFlight
	}
	c.loading = true
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	turn := c.turn
	c.mu.Unlock()

	history := c.store.Messages()

	c.store.Append(NewMessage(RoleUser, text))
	if err := c.store.Persist(); err != nil {
		c.notify("Could not save the conversation locally.")
	}
	c.scroll.ForceBottom()
	c.signal()

	go c.runTurn(ctx, turn, text, history)
	return nil
}

// QuickReply prefills a canned string and submits it after the settle
// delay. The resulting outgoing message is byte-identical to typing
// the same text and calling Submit.
func (c *Controller) QuickReply(text string) {
	go func() {
		time.Sleep(c.settleDelay)
		if err := c.Submit(text); err != nil && !errors.Is(err, ErrEmptyMessage) && !errors.Is(err, ErrInFlight) {
			c.notify("Could not send the reply.")
		}
	}()
}

// Reset cancels any in-flight turn, erases persisted state, and
// re-seeds the greeting. Interactive confirmation is the caller's job.
// Calling Reset twice leaves the same single-seed state.
func (c *Controller) Reset() error {
	c.cancelInFlight()

	if err := c.store.Clear(); err != nil {
		return err
	}
	c.scroll.ForceBottom()
	c.signal()
	return nil
}

// Close tears the controller down, canceling any in-flight turn.
func (c *Controller) Close() {
	c.cancelInFlight()
}

// ApplyServerList installs an authoritative message list from a polling
// tick. Last fetch wins; the optimistic tail survives only until the
// server echoes it back.
func (c *Controller) ApplyServerList(messages []Message) {
	c.store.ReplaceAll(messages)
	c.scroll.ContentArrived(false)
	c.signal()
}

// RequestFocus hands "open this conversation" to whoever is listening
// on FocusRequests. Non-blocking: a pending unconsumed request is
// replaced by the newer one.
func (c *Controller) RequestFocus(conversationKey string) {
	req := FocusRequest{ConversationKey: conversationKey}
	for {
		select {
		case c.focus <- req:
			return
		default:
			select {
			case <-c.focus:
			default:
			}
		}
	}
}

func (c *Controller) FocusRequests() <-chan FocusRequest { return c.focus }

func (c *Controller) runTurn(ctx context.Context, turn int, text string, history []Message) {
	defer func() {
		c.mu.Lock()
		if turn == c.turn {
			c.loading = false
			c.cancel = nil
		}
		c.mu.Unlock()
		c.signal()
	}()

	events, err := c.transport.Send(ctx, c.store.Key(), text, history)
	if err != nil {
		if c.live(turn) {
			c.failTurn(err)
		}
		return
	}

	var acc strings.Builder
	started := false
	for ev := range events {
		if !c.live(turn) {
			return
		}
		switch ev.Kind {
		case EventChunk:
			if !started {
				reply := NewMessage(RoleAssistant, "")
				reply.Streaming = true
				c.store.Append(reply)
				started = true
			}
			acc.WriteString(ev.Chunk)
			c.store.MutateLast(acc.String())
			c.scroll.ContentArrived(true)
			c.signal()
		case EventReplace:
			c.applyAuthoritative(ev.Messages, text)
			c.scroll.ContentArrived(false)
			c.signal()
		case EventDone:
			c.store.FinalizeLast()
			if err := c.store.Persist(); err != nil {
				c.notify("Could not save the conversation locally.")
			}
			c.signal()
			return
		case EventErr:
			c.failTurn(ev.Err)
			return
		}
	}
}

// failTurn converts any transport failure into the fixed apology
// message. A partially streamed reply is overwritten rather than left
// dangling, so a failed turn adds exactly one incoming message.
func (c *Controller) failTurn(err error) {
	if c.store.LastIsStreaming() {
		c.store.MutateLast(apologyText)
		c.store.FinalizeLast()
	} else {
		c.store.Append(NewMessage(RoleAssistant, apologyText))
	}
	c.store.Persist()
	c.scroll.ContentArrived(false)
	c.notify("Message failed: " + err.Error())
	c.signal()
}

// applyAuthoritative handles a post-send refetch. The server list wins,
// but if it has not recorded the just-sent message yet, the optimistic
// entry is re-appended so the sender's own words never vanish.
func (c *Controller) applyAuthoritative(messages []Message, sentText string) {
	echoed := false
	for _, m := range messages {
		if m.Role == RoleUser && m.Content == sentText {
			echoed = true
			break
		}
	}
	if !echoed {
		messages = append(messages, NewMessage(RoleUser, sentText))
	}
	c.store.ReplaceAll(messages)
}

// live reports whether the given turn still owns the conversation.
func (c *Controller) live(turn int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return turn == c.turn
}

func (c *Controller) cancelInFlight() {
	c.mu.Lock()
	cancel := c.cancel
	c.cancel = nil
	c.loading = false
	c.turn++
	c.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (c *Controller) notify(text string) {
	select {
	case c.notices <- Notice{Text: text}:
	default:
	}
}

// signal coalesces change notifications; the view redraws from current
// state, so dropped signals while one is pending lose nothing.
func (c *Controller) signal() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}
