// Package widget implements the chat widget core: an append-only
// message store with swappable persistence backends, transports for
// streamed and polled conversations, a scroll reconciler, and the
// conversation controller that ties them together.
package widget

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Streaming bool      `json:"-"`
}

// NewMessage creates a finalized message with a client-generated ID.
func NewMessage(role Role, content string) Message {
	return Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	}
}

// seedMessage is the greeting a fresh conversation starts with. The
// greeting tracks time of day so a reset feels like a new session, not
// a page reload.
func seedMessage(now time.Time) Message {
	greeting := "Good evening"
	switch h := now.Hour(); {
	case h < 12:
		greeting = "Good morning"
	case h < 18:
		greeting = "Good afternoon"
	}
	return Message{
		ID:        uuid.NewString(),
		Role:      RoleAssistant,
		Content:   greeting + "! I'm the portfolio assistant. Ask me about projects, skills, or experience.",
		Timestamp: now,
	}
}

// Backend persists a conversation's ordered message list. Read errors
// are recoverable: the Store falls back to a fresh seed.
type Backend interface {
	Read(key string) ([]Message, error)
	Write(key string, messages []Message) error
	Erase(key string) error
}

var errMutateNotStreaming = errors.New("widget: last message is not streaming")

// Store holds the canonical ordered message list for one conversation.
// Append-only: the only in-place mutation allowed is growing the
// content of the final message while it streams.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	key      string
	messages []Message
	now      func() time.Time
}

func NewStore(backend Backend, key string) *Store {
	return &Store{backend: backend, key: key, now: time.Now}
}

// Key identifies the conversation within the backend.
func (s *Store) Key() string { return s.key }

// Load restores the persisted history, or seeds a fresh greeting when
// nothing usable is stored. Never fails.
func (s *Store) Load() {
	s.mu.Lock()
	defer s.mu.Unlock()

	messages, err := s.backend.Read(s.key)
	if err != nil || len(messages) == 0 {
		s.messages = []Message{seedMessage(s.now())}
		return
	}
	s.messages = messages
}

func (s *Store) Append(m Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
}

// MutateLast replaces the content of the final message. Valid only
// while that message is streaming.
func (s *Store) MutateLast(content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) == 0 || !s.messages[len(s.messages)-1].Streaming {
		return errMutateNotStreaming
	}
	s.messages[len(s.messages)-1].Content = content
	return nil
}

// FinalizeLast marks the streaming message as complete.
func (s *Store) FinalizeLast() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) > 0 {
		s.messages[len(s.messages)-1].Streaming = false
	}
}

// ReplaceAll swaps in an authoritative list from the server. Last fetch
// wins; the polling transport uses this on every tick.
func (s *Store) ReplaceAll(messages []Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = messages
}

// Persist writes the history through the backend. Skipped while only
// the seed exists, so an untouched widget leaves no state behind.
func (s *Store) Persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) <= 1 {
		return nil
	}
	return s.backend.Write(s.key, s.messages)
}

// Clear erases persisted state and re-seeds the greeting. Calling it
// twice is the same as calling it once.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Erase(s.key); err != nil {
		return err
	}
	s.messages = []Message{seedMessage(s.now())}
	return nil
}

// Messages returns a copy of the current ordered list.
func (s *Store) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// LastIsStreaming reports whether a reply is currently growing.
func (s *Store) LastIsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages) > 0 && s.messages[len(s.messages)-1].Streaming
}

// MemoryBackend keeps conversations in a map. Used in tests and as the
// no-persistence fallback.
type MemoryBackend struct {
	mu   sync.Mutex
	data map[string][]Message
	fail bool
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{data: make(map[string][]Message)}
}

func (b *MemoryBackend) Read(key string) ([]Message, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fail {
		return nil, errors.New("widget: backend read failed")
	}
	messages, ok := b.data[key]
	if !ok {
		return nil, nil
	}
	out := make([]Message, len(messages))
	copy(out, messages)
	return out, nil
}

func (b *MemoryBackend) Write(key string, messages []Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	stored := make([]Message, len(messages))
	copy(stored, messages)
	b.data[key] = stored
	return nil
}

func (b *MemoryBackend) Erase(key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
	return nil
}

// FileBackend persists each conversation as a JSON file under dir.
// This is the anonymous widget's local store.
type FileBackend struct {
	dir string
}

func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("widget: create store dir: %w", err)
	}
	return &FileBackend{dir: dir}, nil
}

// DefaultFileBackend stores under ~/.folio-chat.
func DefaultFileBackend() (*FileBackend, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return NewFileBackend(filepath.Join(home, ".folio-chat"))
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Read(key string) ([]Message, error) {
	data, err := os.ReadFile(b.path(key))
	if err != nil {
		return nil, err
	}
	var messages []Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

func (b *FileBackend) Write(key string, messages []Message) error {
	data, err := json.MarshalIndent(messages, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(b.path(key), data, 0o644)
}

func (b *FileBackend) Erase(key string) error {
	err := os.Remove(b.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// RemoteBackend reads history from the server's message-list endpoint.
// The server owns the data, so writes and erases are no-ops; the admin
// chat persists by sending messages, not by uploading its local list.
type RemoteBackend struct {
	fetch func(key string) ([]Message, error)
}

func NewRemoteBackend(fetch func(key string) ([]Message, error)) *RemoteBackend {
	return &RemoteBackend{fetch: fetch}
}

func (b *RemoteBackend) Read(key string) ([]Message, error) {
	return b.fetch(key)
}

func (b *RemoteBackend) Write(string, []Message) error { return nil }

func (b *RemoteBackend) Erase(string) error { return nil }
